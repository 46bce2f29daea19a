package stream

import (
	"iter"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/tree"
)

type slot struct {
	node  *tree.Node
	value *Value
	typ   schema.Tag
}

// Consume rebuilds a tree from events and returns the root value. Object
// events reuse the node they carry; their schema children are cleared when
// they open, so children a pass dropped stay dropped. Control events are
// skipped.
func Consume(reg *schema.Registry, seq iter.Seq[Event]) (root *tree.Node, err error) {
	defer estream.Recover(&err)

	var (
		stack   []slot
		settled bool
	)

	install := func(pos schema.Tag, n *tree.Node) {
		if len(stack) == 0 {
			root, settled = n, true
			return
		}

		parent := stack[len(stack)-1].node
		if parent.Kind == tree.Array {
			parent.Elems = append(parent.Elems, n)
			return
		}

		parent.Set(reg.Name(pos), n)
	}

	fail := func(sentinel error, msg string, e Event) error {
		return &estream.Error{
			Kind: estream.StructuralError,
			Err:  sentinel,
			Msg:  msg,
			Pos:  reg.Name(e.Pos),
			Type: reg.Name(e.Type),
			Node: e.Node(),
		}
	}

	for e := range seq {
		kind := reg.KindOf(e.Type)
		if kind == schema.KindControl {
			continue
		}

		if e.Enter && len(stack) == 0 && settled {
			return nil, fail(estream.ErrUnbalanced, "more than one root value", e)
		}

		switch {
		case e.IsClose():
			if len(stack) == 0 {
				return nil, fail(estream.ErrUnbalanced, "close without open", e)
			}

			top := stack[len(stack)-1]
			if top.value != e.Value || top.typ != e.Type {
				return nil, fail(estream.ErrDepthMismatch, "close does not match innermost open "+reg.Name(top.typ), e)
			}

			stack = stack[:len(stack)-1]
			install(e.Pos, top.node)

		case e.Enter:
			var n *tree.Node

			switch kind {
			case schema.KindArray:
				n = tree.NewArray()
			case schema.KindNull:
				n = nil
			case schema.KindType:
				n = objectNode(reg, e)
			default:
				return nil, fail(estream.ErrUnknownType, "event type is not a node type", e)
			}

			if e.Leave {
				install(e.Pos, n)
				continue
			}

			if n == nil {
				return nil, fail(estream.ErrUnbalanced, "null values cannot open", e)
			}

			stack = append(stack, slot{node: n, value: e.Value, typ: e.Type})
		}
	}

	if len(stack) != 0 {
		top := stack[len(stack)-1]
		return nil, fail(estream.ErrUnbalanced, "stream ended inside an open value", Open(schema.Invalid, top.typ, top.value))
	}

	return root, nil
}

func objectNode(reg *schema.Registry, e Event) *tree.Node {
	name := reg.Name(e.Type)

	var n *tree.Node
	if e.Value != nil {
		n = e.Value.Node
	}

	if n == nil {
		n = tree.New(name)
		if e.Value != nil {
			e.Value.Node = n
		}

		return n
	}

	n.Kind = tree.Object
	n.Type = name

	if ti := reg.Type(e.Type); ti != nil && e.IsOpen() {
		for _, k := range ti.Visit {
			delete(n.Fields, reg.Name(k))
		}
	}

	return n
}
