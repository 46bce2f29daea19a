package kit

import (
	"iter"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Auto is the full stack: level tracking input, output with deferred
// closes, templates and peeling.
type Auto struct {
	*Level
	*Template
}

// NewAuto wraps seq.
func NewAuto(frags *Fragments, seq iter.Seq[stream.Event]) *Auto {
	return &Auto{Level: NewLevel(seq), Template: newTemplate(frags)}
}

// NewAutoSlice wraps stored events.
func NewAutoSlice(frags *Fragments, events []stream.Event) *Auto {
	return &Auto{Level: NewLevelSlice(events), Template: newTemplate(frags)}
}

func (a *Auto) closed() bool {
	p, ok := a.top()
	return ok && p.kind == pendingVClose
}

// Peel takes the next input event, which must enter a value, and re-opens
// it on the output. Leave later consumes the input's own close.
func (a *Auto) Peel() stream.Event {
	e, ok := a.Take()
	if !ok {
		estream.Raise(estream.Errorf(estream.StructuralError, estream.ErrNotOpen, "stream is exhausted"))
	}

	return a.PeelEvent(e)
}

// PeelEvent re-opens an already taken event.
func (a *Auto) PeelEvent(e stream.Event) stream.Event {
	if !e.Enter {
		estream.Raise(&estream.Error{
			Kind: estream.StructuralError,
			Err:  estream.ErrNotOpen,
			Msg:  "cannot peel a close",
			Pos:  a.reg.Name(e.Pos),
			Type: a.reg.Name(e.Type),
		})
	}

	res := a.EnterValue(e.Pos, e.Type, e.Value)

	if e.Leave {
		a.push(pending{kind: pendingVClose})
		return res
	}

	a.push(pending{kind: pendingAction, run: func() {
		c, ok := a.Level.Take()
		if !ok || !c.IsClose() || c.Value != e.Value {
			estream.Raise(&estream.Error{
				Kind: estream.StructuralError,
				Err:  estream.ErrDepthMismatch,
				Msg:  "peeled value left with unread children",
				Pos:  a.reg.Name(e.Pos),
				Type: a.reg.Name(e.Type),
				Node: e.Node(),
			})
		}
	}})

	return res
}

// PeelOpt peels the next event if it enters a value.
func (a *Auto) PeelOpt() (stream.Event, bool) {
	if _, ok := a.CurLev(); !ok {
		return stream.Event{}, false
	}

	return a.Peel(), true
}

// PeelTo emits sibling subtrees until the one at pos and peels it.
func (a *Auto) PeelTo(out *Sink, pos schema.Tag) (stream.Event, bool) {
	if a.closed() {
		estream.Raise(estream.Errorf(estream.StructuralError, estream.ErrNotOpen, "peeled value is a terminal"))
	}

	e, ok := a.Level.FindPos(out, pos)
	if !ok {
		return e, false
	}

	out.Emit(a.PeelEvent(e))

	return e, true
}

// One is Level.One, empty right after a terminal was peeled.
func (a *Auto) One() iter.Seq[stream.Event] {
	if a.closed() {
		return func(func(stream.Event) bool) {}
	}

	return a.Level.One()
}

// Sub is Level.Sub, empty right after a terminal was peeled.
func (a *Auto) Sub() iter.Seq[stream.Event] {
	if a.closed() {
		return func(func(stream.Event) bool) {}
	}

	return a.Level.Sub()
}

// FindPos is Level.FindPos, never finding anything inside a peeled terminal.
func (a *Auto) FindPos(out *Sink, pos schema.Tag) (stream.Event, bool) {
	if a.closed() {
		return stream.Event{}, false
	}

	return a.Level.FindPos(out, pos)
}

// UntilPos is Level.UntilPos, never finding anything inside a peeled terminal.
func (a *Auto) UntilPos(out *Sink, pos schema.Tag) (stream.Event, bool) {
	if a.closed() {
		return stream.Event{}, false
	}

	return a.Level.UntilPos(out, pos)
}

// Copy peels the next value and emits it unchanged with its subtree.
func (a *Auto) Copy(out *Sink) {
	out.Emit(a.Peel())
	out.EmitAll(a.Sub())
	out.EmitAll(a.Leave())
}

// Close releases the input.
func (a *Auto) Close() {
	a.Level.Close()
}
