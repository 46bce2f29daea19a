package scope

import (
	"slices"

	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/stream"
)

// symSet is an insertion ordered set of symbols.
type symSet struct {
	list []*binding.Symbol
	has  map[*binding.Symbol]bool
}

func newSymSet(syms ...*binding.Symbol) *symSet {
	s := &symSet{has: map[*binding.Symbol]bool{}}
	for _, sym := range syms {
		s.add(sym)
	}

	return s
}

func (s *symSet) add(sym *binding.Symbol) {
	if !s.has[sym] {
		s.has[sym] = true
		s.list = append(s.list, sym)
	}
}

// BlockRefs stores in every block record its frame: the symbols it
// declares plus every symbol referenced anywhere inside it. The part not
// declared by the block is added to the frame of the enclosing block.
func BlockRefs(events []stream.Event) {
	s := kit.NewLevelSlice(events)
	defer s.Close()

	blockRefs(s, newSymSet(), nil)
}

func blockRefs(s *kit.Level, refs *symSet, cur *binding.Block) {
	for e := range s.Sub() {
		if !e.Enter || e.Value == nil {
			continue
		}

		v := e.Value

		if v.Sym != nil && v.Decl == stream.DeclRef {
			refs.add(v.Sym)
		}

		if !e.IsOpen() {
			continue
		}

		// a function body reuses the record of its function
		if v.Block == nil || v.Block == cur {
			blockRefs(s, refs, cur)
			continue
		}

		inner := newSymSet(v.Block.Decls...)
		blockRefs(s, inner, v.Block)

		v.Block.Refs = inner.list

		for _, sym := range inner.list {
			if !slices.Contains(v.Block.Decls, sym) {
				refs.add(sym)
			}
		}
	}
}

// RefScopes stores in every local symbol the function records, other than
// its own, that reference it. A symbol with RefScopes is captured by a
// closure.
func RefScopes(events []stream.Event) {
	s := kit.NewLevelSlice(events)
	defer s.Close()

	seen := map[*binding.Symbol]bool{}
	refScopes(s, nil, seen)
}

func refScopes(s *kit.Level, root *binding.Block, seen map[*binding.Symbol]bool) {
	for e := range s.Sub() {
		if !e.Enter || e.Value == nil {
			continue
		}

		v := e.Value

		if sym := v.Sym; sym != nil && !sym.Global {
			if !seen[sym] {
				seen[sym] = true
				sym.RefScopes = nil
			}

			if root != nil && sym.Scope != root && !slices.Contains(sym.RefScopes, root) {
				sym.RefScopes = append(sym.RefScopes, root)
			}
		}

		if !e.IsOpen() {
			continue
		}

		next := root
		if v.Block != nil && v.Block.Func {
			next = v.Block
		}

		refScopes(s, next, seen)
	}
}
