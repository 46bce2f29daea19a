package kit

import (
	"iter"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Level tracks the nesting depth of consumed events.
type Level struct {
	*Lookahead
	level int
}

// NewLevel wraps seq with depth tracking.
func NewLevel(seq iter.Seq[stream.Event]) *Level {
	return &Level{Lookahead: NewLookahead(seq)}
}

// NewLevelSlice wraps stored events with depth tracking.
func NewLevelSlice(events []stream.Event) *Level {
	return &Level{Lookahead: FromSlice(events)}
}

// Take consumes the next event and updates the depth.
func (l *Level) Take() (stream.Event, bool) {
	e, ok := l.Lookahead.Take()
	if !ok {
		return e, false
	}

	if e.Enter {
		l.level++
	}

	if e.Leave {
		l.level--
	}

	return e, true
}

// Depth returns the number of opens not yet closed.
func (l *Level) Depth() int {
	return l.level
}

// All yields the rest of the stream.
func (l *Level) All() iter.Seq[stream.Event] {
	return drain(l)
}

// One yields the subtree starting at the next event, or nothing if the
// next event is a close.
func (l *Level) One() iter.Seq[stream.Event] {
	return func(yield func(stream.Event) bool) {
		c, ok := l.Cur()
		if !ok || !c.Enter {
			return
		}

		exit := l.level

		for {
			e, ok := l.Take()
			if !ok || !yield(e) {
				return
			}

			if l.level == exit {
				return
			}
		}
	}
}

// Sub yields whole subtrees until the current level is about to be exited.
// The close of the enclosing value is left in the stream.
func (l *Level) Sub() iter.Seq[stream.Event] {
	return func(yield func(stream.Event) bool) {
		for {
			c, ok := l.Cur()
			if !ok || !c.Enter {
				return
			}

			exit := l.level

			for {
				e, ok := l.Take()
				if !ok || !yield(e) {
					return
				}

				if l.level == exit {
					break
				}
			}
		}
	}
}

// CurLev returns the next event if it starts a value at the current level.
func (l *Level) CurLev() (stream.Event, bool) {
	c, ok := l.Cur()
	if !ok || !c.Enter {
		return stream.Event{}, false
	}

	return c, true
}

// UntilPos emits whole sibling subtrees until one at pos is next, and
// returns it without consuming it.
func (l *Level) UntilPos(out *Sink, pos schema.Tag) (stream.Event, bool) {
	for {
		e, ok := l.CurLev()
		if !ok {
			return stream.Event{}, false
		}

		if e.Pos == pos {
			return e, true
		}

		if !out.EmitAll(l.One()) {
			return stream.Event{}, false
		}
	}
}

// FindPos is UntilPos that also consumes the found event.
func (l *Level) FindPos(out *Sink, pos schema.Tag) (stream.Event, bool) {
	e, ok := l.UntilPos(out, pos)
	if ok {
		l.Take()
	}

	return e, ok
}

// ToPos is FindPos that also emits the found event. The position must exist.
func (l *Level) ToPos(out *Sink, pos schema.Tag) stream.Event {
	e, ok := l.FindPos(out, pos)
	if !ok {
		if out.Stopped() {
			return e
		}

		estream.Raise(estream.Errorf(estream.StructuralError, estream.ErrPositionNotFound, "tag %d", pos))
	}

	out.Emit(e)

	return e
}
