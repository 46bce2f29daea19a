package stream

import (
	"iter"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/tree"
)

type child struct {
	node *tree.Node
	pos  schema.Tag
}

type frame struct {
	close Event
	kids  []child
	i     int
}

// Produce walks root depth-first and yields its events. root sits at pos.
// The walk keeps its own stack, so deep trees do not grow the goroutine
// stack. Children are snapshotted when their parent opens, so consumers may
// rebuild nodes while the walk is in progress. An unregistered node type
// raises a structural *estream.Error.
func Produce(reg *schema.Registry, root *tree.Node, pos schema.Tag) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		var stack []*frame

		// enter yields the first event of n and pushes a frame for containers
		enter := func(n *tree.Node, pos schema.Tag) bool {
			if n.IsNull() {
				return yield(Terminal(pos, schema.NullTag, &Value{Node: n}))
			}

			v := &Value{Node: n}

			if n.Kind == tree.Array {
				f := &frame{close: Close(pos, schema.ArrayTag, v)}
				for _, e := range n.Elems {
					f.kids = append(f.kids, child{node: e, pos: schema.Push})
				}

				stack = append(stack, f)

				return yield(Open(pos, schema.ArrayTag, v))
			}

			ti := reg.TypeOf(n)
			if ti == nil {
				estream.Raise(&estream.Error{
					Kind: estream.StructuralError,
					Err:  estream.ErrUnknownType,
					Msg:  "cannot produce events",
					Type: n.Type,
					Pos:  reg.Name(pos),
					Node: n,
				})
			}

			if ti.IsLeaf() {
				return yield(Terminal(pos, ti.Tag, v))
			}

			f := &frame{close: Close(pos, ti.Tag, v)}
			for _, k := range ti.Visit {
				if c := n.Child(reg.Name(k)); c != nil {
					f.kids = append(f.kids, child{node: c, pos: k})
				}
			}

			stack = append(stack, f)

			return yield(Open(pos, ti.Tag, v))
		}

		if root == nil {
			return
		}

		if !enter(root, pos) {
			return
		}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.i == len(top.kids) {
				stack = stack[:len(stack)-1]
				if !yield(top.close) {
					return
				}

				continue
			}

			k := top.kids[top.i]
			top.i++

			if !enter(k.node, k.pos) {
				return
			}
		}
	}
}
