package kit

import (
	"iter"

	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/tree"
)

type pendingKind uint8

const (
	// pendingClose is a stored close event; Leave stops after emitting it.
	pendingClose pendingKind = iota
	// pendingAction runs silently.
	pendingAction
	// pendingGen emits events and lets Leave continue.
	pendingGen
	// pendingTemplate emits the rest of a template; Leave stops after it.
	pendingTemplate
	// pendingVClose marks a peeled terminal: the source has no close to skip
	// and no children to read.
	pendingVClose
)

type pending struct {
	kind  pendingKind
	close stream.Event
	run   func()
	gen   iter.Seq[stream.Event]
}

// Output builds events and keeps the closes it still owes on a stack.
type Output struct {
	reg   *schema.Registry
	stack []pending
}

func newOutput(reg *schema.Registry) *Output {
	return &Output{reg: reg}
}

// Registry returns the registry events are built against.
func (o *Output) Registry() *schema.Registry {
	return o.reg
}

func (o *Output) push(p pending) {
	o.stack = append(o.stack, p)
}

func (o *Output) top() (pending, bool) {
	if len(o.stack) == 0 {
		return pending{}, false
	}

	return o.stack[len(o.stack)-1], true
}

func (o *Output) pop() pending {
	p := o.stack[len(o.stack)-1]
	o.stack = o.stack[:len(o.stack)-1]

	return p
}

// value wraps n, creating a node matching typ when n is nil.
func (o *Output) value(typ schema.Tag, n *tree.Node) *stream.Value {
	if n == nil {
		switch o.reg.KindOf(typ) {
		case schema.KindArray:
			n = tree.NewArray()
		case schema.KindType:
			n = tree.New(o.reg.Name(typ))
		}
	}

	return stream.NewValue(n)
}

// Enter opens a value at pos and stores its close.
func (o *Output) Enter(pos, typ schema.Tag, n *tree.Node) stream.Event {
	return o.EnterValue(pos, typ, o.value(typ, n))
}

// EnterValue opens v at pos, keeping the value identity.
func (o *Output) EnterValue(pos, typ schema.Tag, v *stream.Value) stream.Event {
	o.push(pending{kind: pendingClose, close: stream.Close(pos, typ, v)})
	return stream.Open(pos, typ, v)
}

// EnterNode opens n using its own type.
func (o *Output) EnterNode(pos schema.Tag, n *tree.Node) stream.Event {
	return o.Enter(pos, o.typeOf(n), n)
}

// Tok builds a terminal.
func (o *Output) Tok(pos, typ schema.Tag, n *tree.Node) stream.Event {
	return stream.Terminal(pos, typ, o.value(typ, n))
}

// TokValue builds a terminal keeping the value identity.
func (o *Output) TokValue(pos, typ schema.Tag, v *stream.Value) stream.Event {
	return stream.Terminal(pos, typ, v)
}

// TokNode builds a terminal for n using its own type.
func (o *Output) TokNode(pos schema.Tag, n *tree.Node) stream.Event {
	return o.Tok(pos, o.typeOf(n), n)
}

func (o *Output) typeOf(n *tree.Node) schema.Tag {
	switch {
	case n.IsNull():
		return schema.NullTag
	case n.Kind == tree.Array:
		return schema.ArrayTag
	}

	t, _ := o.reg.Lookup(n.Type)

	return t
}

// Defer runs fn when Leave or a label flush reaches this point.
func (o *Output) Defer(fn func()) {
	o.push(pending{kind: pendingAction, run: fn})
}

// DeferSeq emits seq when Leave or a label flush reaches this point.
func (o *Output) DeferSeq(seq iter.Seq[stream.Event]) {
	o.push(pending{kind: pendingGen, gen: seq})
}

// Pending returns the number of stored entries.
func (o *Output) Pending() int {
	return len(o.stack)
}

// Leave emits the innermost stored close, running deferred entries stored
// after it. The returned sequence must be drained.
func (o *Output) Leave() iter.Seq[stream.Event] {
	return func(yield func(stream.Event) bool) {
		for len(o.stack) > 0 {
			p := o.pop()

			switch p.kind {
			case pendingAction, pendingVClose:
				if p.run != nil {
					p.run()
				}
			case pendingGen:
				for e := range p.gen {
					if !yield(e) {
						return
					}
				}
			case pendingTemplate:
				for e := range p.gen {
					if !yield(e) {
						return
					}
				}

				return
			case pendingClose:
				yield(p.close)
				return
			}
		}
	}
}

// Label remembers the current stack depth. The returned function flushes
// every entry stored since, closes included.
func (o *Output) Label() func() iter.Seq[stream.Event] {
	depth := len(o.stack)

	return func() iter.Seq[stream.Event] {
		return func(yield func(stream.Event) bool) {
			for len(o.stack) > depth {
				p := o.pop()

				switch p.kind {
				case pendingAction, pendingVClose:
					if p.run != nil {
						p.run()
					}
				case pendingGen, pendingTemplate:
					for e := range p.gen {
						if !yield(e) {
							return
						}
					}
				case pendingClose:
					if !yield(p.close) {
						return
					}
				}
			}
		}
	}
}
