package stream

import (
	"iter"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/tree"
)

// AnnotateFields caches on every value the descriptor of the position it
// sits at. Variants are selected from the parent node, so a computed member
// property gets the expression descriptor.
func AnnotateFields(reg *schema.Registry) Pass {
	return func(seq iter.Seq[Event]) iter.Seq[Event] {
		return func(yield func(Event) bool) {
			type parent struct {
				node  *tree.Node
				field *schema.Field
			}

			var stack []parent

			for e := range seq {
				kind := reg.KindOf(e.Type)

				if kind != schema.KindControl && e.Value != nil {
					switch {
					case e.Enter:
						var f *schema.Field

						if len(stack) > 0 {
							p := stack[len(stack)-1]
							if p.node == nil {
								if p.field != nil {
									f = p.field.Elem
								}
							} else {
								f = reg.FieldOf(p.node, e.Pos)
							}
						}

						e.Value.Field = f

						if !e.Leave {
							var n *tree.Node
							if kind == schema.KindType {
								n = e.Value.Node
							}

							stack = append(stack, parent{node: n, field: f})
						}

					case e.Leave:
						stack = stack[:len(stack)-1]
					}
				}

				if !yield(e) {
					return
				}
			}
		}
	}
}

// Verify checks that every close matches the innermost open and that the
// stream ends balanced. When values carry field descriptors their types are
// checked against them too. Violations raise a structural *estream.Error.
func Verify(reg *schema.Registry) Pass {
	return func(seq iter.Seq[Event]) iter.Seq[Event] {
		return func(yield func(Event) bool) {
			var stack []Event

			fail := func(sentinel error, msg string, e Event) {
				estream.Raise(&estream.Error{
					Kind: estream.StructuralError,
					Err:  sentinel,
					Msg:  msg,
					Pos:  reg.Name(e.Pos),
					Type: reg.Name(e.Type),
					Node: e.Node(),
				})
			}

			for e := range seq {
				switch {
				case e.IsOpen():
					stack = append(stack, e)
				case e.IsClose():
					if len(stack) == 0 {
						fail(estream.ErrUnbalanced, "close without open", e)
					}

					top := stack[len(stack)-1]
					if top.Value != e.Value || top.Type != e.Type {
						fail(estream.ErrDepthMismatch, "close does not match "+top.Format(reg), e)
					}

					stack = stack[:len(stack)-1]
				}

				if e.Enter && e.Value != nil && e.Value.Field != nil && reg.KindOf(e.Type) != schema.KindControl {
					if !e.Value.Field.Permits(e.Type) {
						fail(estream.ErrUnexpectedType, "field "+e.Value.Field.Name+" does not accept it", e)
					}
				}

				if !yield(e) {
					return
				}
			}

			if len(stack) != 0 {
				fail(estream.ErrUnbalanced, "stream ended inside an open value", stack[len(stack)-1])
			}
		}
	}
}
