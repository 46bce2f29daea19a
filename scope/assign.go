package scope

import (
	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// env is one overlay of the scope chain.
type env struct {
	names  map[string]*binding.Symbol
	parent *env
}

func (e *env) child() *env {
	return &env{names: map[string]*binding.Symbol{}, parent: e}
}

func (e *env) set(name string, sym *binding.Symbol) {
	e.names[name] = sym
}

func (e *env) get(name string) (*binding.Symbol, bool) {
	for p := e; p != nil; p = p.parent {
		if sym, ok := p.names[name]; ok {
			return sym, true
		}
	}

	return nil, false
}

type assigner struct {
	reg   *schema.Registry
	sc    *schema.Scoping
	table *binding.Table
}

// Assign is the reference pass. It runs after Collect on the same events
// and binds every referencing identifier without a symbol to the visible
// declaration of its name, or to the table's global symbol for that name.
//
// Two chains are threaded through the walk. scope holds what code at the
// current point sees: lexical declarations made by preceding siblings and
// the unordered declarations of every enclosing block. par holds every
// declaration of the enclosing blocks; a function body starts from it, as
// the body may run after the whole block is initialized.
func Assign(reg *schema.Registry, table *binding.Table, events []stream.Event) (err error) {
	defer estream.Recover(&err)

	a := &assigner{reg: reg, sc: reg.Scoping(), table: table}

	s := kit.NewLevelSlice(events)
	defer s.Close()

	root := &env{names: map[string]*binding.Symbol{}}
	a.walk(s, root, root.child())

	return nil
}

func (a *assigner) walk(s *kit.Level, scope, par *env) {
	for e := range s.Sub() {
		if !e.Enter || e.Value == nil {
			continue
		}

		v := e.Value

		if e.Type == a.sc.Identifier {
			a.ident(e, scope)
		}

		if !e.IsOpen() {
			continue
		}

		if v.Block == nil {
			a.walk(s, scope, par)
			continue
		}

		nscope := scope
		if a.reg.Classify(e.Type).IsFunctionScope {
			nscope = par
		}

		nscope = nscope.child()
		npar := par.child()

		for _, sym := range v.Block.Decls {
			if !sym.Strict || sym.Name == "" {
				continue
			}

			npar.set(sym.Name, sym)

			if sym.Unordered {
				nscope.set(sym.Name, sym)
			}
		}

		a.walk(s, nscope, npar)
	}
}

func (a *assigner) ident(e stream.Event, scope *env) {
	v := e.Value

	switch v.Decl {
	case stream.DeclBinding:
		sym := v.Sym
		if sym.Strict && sym.Name != "" && (!sym.Unordered || sym.FuncID) {
			scope.set(sym.Name, sym)
		}
	case stream.DeclRef:
		if v.Sym != nil {
			return
		}

		name := e.Node().Str(a.sc.Name)

		if sym, ok := scope.get(name); ok {
			v.Sym = sym
			return
		}

		v.Sym = a.table.Global(name)
	}
}
