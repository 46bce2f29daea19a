// Package binding holds the identity records the scope resolver attaches to
// identifier events: symbols and the per-scope blocks that declare them.
package binding

import (
	"fmt"
	"slices"
)

// Symbol is the identity of one binding. Every identifier occurrence bound
// to it carries the same pointer; only Name may change afterwards.
type Symbol struct {
	// Name is the display name; empty for anonymous symbols created by passes.
	Name string
	// Orig is the name the symbol was declared with.
	Orig string
	// ID orders symbols by creation.
	ID int

	// Scope is the function or program record the symbol belongs to and
	// Block the innermost block that declares it. Both are nil for globals.
	Scope *Block
	Block *Block

	Param     bool
	Unordered bool
	FuncID    bool
	Strict    bool
	Global    bool

	// RefScopes lists function records, other than Scope, that reference
	// the symbol. Filled by scope.RefScopes.
	RefScopes []*Block

	// dom holds variant positions already used by co-occurring symbols.
	dom map[int]bool
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}

	name := s.Name
	if name == "" {
		name = "_"
	}

	if s.Global {
		return fmt.Sprintf("%s(global)", name)
	}

	return fmt.Sprintf("%s#%d", name, s.ID)
}

// Anonymous reports whether the solver still has to invent a name.
func (s *Symbol) Anonymous() bool {
	return s.Name == ""
}

// Reserved reports whether a co-occurring symbol already took variant pos.
func (s *Symbol) Reserved(pos int) bool {
	return s.dom[pos]
}

// Reserve marks variant pos as taken for this symbol.
func (s *Symbol) Reserve(pos int) {
	if s.dom == nil {
		s.dom = map[int]bool{}
	}

	s.dom[pos] = true
}

// ResetDomain forgets variant positions from an earlier solver run.
func (s *Symbol) ResetDomain() {
	s.dom = nil
}

// Block is the record of one lexical scope boundary.
type Block struct {
	// Decls lists symbols declared here in declaration order.
	Decls  []*Symbol
	Parent *Block
	// Func marks function and program records.
	Func bool
	// Refs is the frame: own declarations plus every symbol referenced
	// anywhere inside. Filled by scope.BlockRefs.
	Refs []*Symbol
}

// Declare appends sym unless already declared here.
func (b *Block) Declare(sym *Symbol) {
	if !slices.Contains(b.Decls, sym) {
		b.Decls = append(b.Decls, sym)
	}
}

// FuncScope returns the nearest function record starting at b.
func (b *Block) FuncScope() *Block {
	for p := b; p != nil; p = p.Parent {
		if p.Func {
			return p
		}
	}

	return nil
}

// Table is the symbol arena of a set of runs. Global symbols are created on
// first reference and shared by every later run on the same table.
type Table struct {
	next    int
	globals map[string]*Symbol
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{globals: map[string]*Symbol{}}
}

// New mints a fresh strict symbol. Pass an empty name for an anonymous one.
func (t *Table) New(name string) *Symbol {
	t.next++

	return &Symbol{Name: name, Orig: name, ID: t.next, Strict: true}
}

// Global returns the free-name symbol for name, creating it if needed.
func (t *Table) Global(name string) *Symbol {
	if s, ok := t.globals[name]; ok {
		return s
	}

	s := &Symbol{Name: name, Orig: name, ID: -1, Global: true}
	t.globals[name] = s

	return s
}

// Globals returns the global symbols sorted by name.
func (t *Table) Globals() []*Symbol {
	res := make([]*Symbol, 0, len(t.globals))
	for _, s := range t.globals {
		res = append(res, s)
	}

	slices.SortFunc(res, func(a, b *Symbol) int {
		if a.Name < b.Name {
			return -1
		}

		if a.Name > b.Name {
			return 1
		}

		return 0
	})

	return res
}
