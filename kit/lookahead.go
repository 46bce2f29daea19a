package kit

import (
	"iter"

	"github.com/shibukawa/estream/stream"
)

// Cursor is a stream that can show its next event without consuming it.
type Cursor interface {
	Cur() (stream.Event, bool)
	Take() (stream.Event, bool)
}

// LevelCursor is a cursor that tracks nesting depth.
type LevelCursor interface {
	Cursor
	Depth() int
	One() iter.Seq[stream.Event]
	Sub() iter.Seq[stream.Event]
}

// Lookahead is a one-event lookahead over a sequence. Sequences are pulled,
// so Close must be called when a stream is abandoned before its end.
type Lookahead struct {
	next func() (stream.Event, bool)
	stop func()
	cur  stream.Event
	ok   bool
	// First is the first event of the stream.
	First stream.Event
}

// NewLookahead pulls from seq.
func NewLookahead(seq iter.Seq[stream.Event]) *Lookahead {
	next, stop := iter.Pull(seq)

	l := &Lookahead{next: next, stop: stop}
	l.cur, l.ok = next()
	l.First = l.cur

	return l
}

// FromSlice reads stored events.
func FromSlice(events []stream.Event) *Lookahead {
	i := 0
	next := func() (stream.Event, bool) {
		if i >= len(events) {
			return stream.Event{}, false
		}

		i++

		return events[i-1], true
	}

	l := &Lookahead{next: next, stop: func() {}}
	l.cur, l.ok = next()
	l.First = l.cur

	return l
}

// Cur returns the next event without consuming it.
func (l *Lookahead) Cur() (stream.Event, bool) {
	return l.cur, l.ok
}

// Take consumes the next event.
func (l *Lookahead) Take() (stream.Event, bool) {
	if !l.ok {
		return stream.Event{}, false
	}

	e := l.cur
	l.cur, l.ok = l.next()

	if !l.ok {
		l.stop()
	}

	return e, true
}

// All yields the rest of the stream.
func (l *Lookahead) All() iter.Seq[stream.Event] {
	return drain(l)
}

// Close releases the underlying sequence.
func (l *Lookahead) Close() {
	l.ok = false
	l.stop()
}

func drain(c Cursor) iter.Seq[stream.Event] {
	return func(yield func(stream.Event) bool) {
		for {
			e, ok := c.Take()
			if !ok || !yield(e) {
				return
			}
		}
	}
}
