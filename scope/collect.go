package scope

import (
	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/tree"
)

type mode uint8

const (
	modeRef mode = iota
	modeDecl
	modeIgnore
)

// frame is the context a value is visited in.
type frame struct {
	// fn and blk are the nearest function and block records.
	fn  *binding.Block
	blk *binding.Block
	// share is the record a block-scope child of a function reuses.
	share *binding.Block

	mode mode
	// target receives declarations made in modeDecl.
	target    *binding.Block
	unordered bool
	param     bool
	funcID    bool
}

type collector struct {
	reg   *schema.Registry
	sc    *schema.Scoping
	table *binding.Table

	blocks []*binding.Block
	sites  map[*binding.Symbol]*tree.Node
}

// Collect is the declaration pass. Every scope boundary value gets a fresh
// binding.Block in Value.Block, every declaring identifier a symbol (minted
// from table unless a pass already attached one) and every identifier its
// DeclMode. Events must carry field descriptors, see stream.AnnotateFields.
func Collect(reg *schema.Registry, table *binding.Table, events []stream.Event, opts Options) (err error) {
	defer estream.Recover(&err)

	c := &collector{
		reg:   reg,
		sc:    reg.Scoping(),
		table: table,
		sites: map[*binding.Symbol]*tree.Node{},
	}

	s := kit.NewLevelSlice(events)
	defer s.Close()

	c.walk(s, stream.Event{}, frame{}, frame{})

	if opts.CheckCollisions {
		return c.check()
	}

	return nil
}

// walk visits the children of parent. outer is the context parent itself
// was visited in, inner the one it established for its children.
func (c *collector) walk(s *kit.Level, parent stream.Event, outer, inner frame) {
	for e := range s.Sub() {
		if !e.Enter || e.Value == nil {
			continue
		}

		at := c.at(parent, outer, inner, e)
		own := c.enter(e, at)

		if e.IsOpen() {
			c.walk(s, e, at, own)
		}
	}
}

// at computes the context of child e from its field descriptor.
func (c *collector) at(parent stream.Event, outer, inner frame, e stream.Event) frame {
	res := inner
	res.share = nil

	// array elements share the context of the array
	if c.reg.KindOf(parent.Type) != schema.KindType {
		return res
	}

	pcl := c.reg.Classify(parent.Type)
	if pcl.IsFunctionScope && e.Type != schema.ArrayTag {
		res.share = inner.fn
	}

	f := e.Value.Field

	switch {
	case f == nil:
	case f.Binding:
		res.mode = modeDecl
		res.param = f.Param
		res.funcID = false
		res.unordered = false

		switch {
		case c.sc.IsOuterName(parent.Type) && !f.Param:
			res.funcID = true
			res.unordered = c.sc.IsUnordered(parent.Type, parent.Node())

			res.target = outer.blk
			if res.unordered {
				res.target = outer.fn
			}
		case pcl.IsScopeBoundary:
			res.target = inner.blk
			res.funcID = pcl.IsFunction && !f.Param
		default:
			res.unordered = inner.unordered

			res.target = inner.blk
			if res.unordered {
				res.target = inner.fn
			}
		}
	case f.IsKey:
		res.mode = modeIgnore
	case inner.mode == modeDecl && (f.IsLval || !f.IsExpr):
	default:
		res.mode = modeRef
	}

	return res
}

// enter handles e itself and returns the context of its children.
func (c *collector) enter(e stream.Event, at frame) frame {
	if e.Type == c.sc.Identifier {
		c.ident(e, at)
		return at
	}

	if c.reg.KindOf(e.Type) != schema.KindType {
		return at
	}

	own := at
	cl := c.reg.Classify(e.Type)

	if !cl.IsScopeBoundary {
		if c.sc.IsUnordered(e.Type, e.Node()) {
			own.unordered = true
		}

		return own
	}

	var rec *binding.Block

	switch {
	case cl.IsFunctionScope:
		rec = &binding.Block{Parent: at.blk, Func: true}
		own.fn = rec
	case at.share != nil:
		rec = at.share
	default:
		rec = &binding.Block{Parent: at.blk}
	}

	if rec != at.share {
		c.blocks = append(c.blocks, rec)
	}

	e.Value.Block = rec
	own.blk = rec
	own.unordered = false

	return own
}

func (c *collector) ident(e stream.Event, at frame) {
	v := e.Value

	switch at.mode {
	case modeDecl:
		n := e.Node()

		sym := v.Sym
		if sym == nil {
			if prev := redeclared(at, n.Str(c.sc.Name)); prev != nil {
				v.Sym = prev
				v.Decl = stream.DeclBinding

				return
			}

			sym = c.table.New(n.Str(c.sc.Name))
			v.Sym = sym
		}

		if n.Str(c.sc.Name) == "" && sym.Name != "" {
			n.Set(c.sc.Name, sym.Name)
		}

		sym.Param = at.param
		sym.Unordered = at.unordered
		sym.FuncID = at.funcID
		sym.Block = at.target

		if at.target != nil {
			sym.Scope = at.target.FuncScope()
			at.target.Declare(sym)
		}

		if _, ok := c.sites[sym]; !ok {
			c.sites[sym] = n
		}

		v.Decl = stream.DeclBinding
	case modeRef:
		v.Decl = stream.DeclRef
	default:
		v.Decl = stream.DeclNone
	}
}

// redeclared returns the symbol a hoisted declaration of name joins: a
// parameter or another hoisted declaration of the same function record.
func redeclared(at frame, name string) *binding.Symbol {
	if !at.unordered || at.target == nil || name == "" {
		return nil
	}

	for _, sym := range at.target.Decls {
		if sym.Name == name && (sym.Unordered || sym.Param) {
			return sym
		}
	}

	return nil
}

// check reports the first block declaring one lexical name twice.
func (c *collector) check() error {
	for _, b := range c.blocks {
		seen := map[string]*binding.Symbol{}

		for _, sym := range b.Decls {
			if !sym.Strict || sym.FuncID || sym.Unordered || sym.Orig == "" {
				continue
			}

			if prev, ok := seen[sym.Orig]; ok {
				return &estream.Error{
					Kind:    estream.BindingError,
					Err:     estream.ErrDuplicateDeclaration,
					Msg:     sym.Orig + " declared as " + prev.String() + " and " + sym.String(),
					Type:    c.reg.Name(c.sc.Identifier),
					Node:    c.sites[sym],
					Related: c.sites[prev],
				}
			}

			seen[sym.Orig] = sym
		}
	}

	return nil
}
