package stream

import (
	"iter"
	"slices"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/tree"
)

// Pass transforms an event stream lazily.
type Pass func(iter.Seq[Event]) iter.Seq[Event]

// Pipe composes passes left to right.
func Pipe(passes ...Pass) Pass {
	return func(seq iter.Seq[Event]) iter.Seq[Event] {
		for _, p := range passes {
			seq = p(seq)
		}

		return seq
	}
}

// Slice replays stored events.
func Slice(events []Event) iter.Seq[Event] {
	return slices.Values(events)
}

// Collect drains seq. Errors raised by lazy passes are returned.
func Collect(seq iter.Seq[Event]) (events []Event, err error) {
	defer estream.Recover(&err)

	for e := range seq {
		events = append(events, e)
	}

	return events, nil
}

// Run applies passes to seq and collects the result.
func Run(seq iter.Seq[Event], passes ...Pass) ([]Event, error) {
	return Collect(Pipe(passes...)(seq))
}

// Transform produces root's events, applies passes and consumes the result
// back into a tree.
func Transform(reg *schema.Registry, root *tree.Node, passes ...Pass) (res *tree.Node, err error) {
	defer estream.Recover(&err)

	return Consume(reg, Pipe(passes...)(Produce(reg, root, schema.Top)))
}

// Clone yields copies of the events with fresh values and shallow node
// copies, so stored fragments can be emitted more than once.
func Clone(seq iter.Seq[Event]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		var stack []*Value

		for e := range seq {
			switch {
			case e.IsClose():
				if len(stack) == 0 {
					estream.Raise(&estream.Error{
						Kind: estream.StructuralError,
						Err:  estream.ErrUnbalanced,
						Msg:  "close without open",
						Node: e.Node(),
					})
				}

				e.Value = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			case e.Value != nil:
				v := *e.Value
				v.Node = v.Node.ShallowCopy()
				v.Comments = slices.Clone(v.Comments)
				v.EndComments = slices.Clone(v.EndComments)
				e.Value = &v

				if e.IsOpen() {
					stack = append(stack, e.Value)
				}
			default:
				if e.IsOpen() {
					stack = append(stack, nil)
				}
			}

			if !yield(e) {
				return
			}
		}
	}
}

// RemoveNulls drops null terminals outside arrays.
func RemoveNulls(seq iter.Seq[Event]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for e := range seq {
			if e.Type == schema.NullTag && e.Pos != schema.Push {
				continue
			}

			if !yield(e) {
				return
			}
		}
	}
}
