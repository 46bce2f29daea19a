// Package kit layers capabilities over event streams: lookahead, nesting
// level tracking, output with deferred closes, peeling and templates.
//
// A pass usually wraps its input in an Auto stream and writes its output
// through a Sink:
//
//	return kit.Gen(func(out *kit.Sink) {
//		s := kit.NewAuto(frags, seq)
//		defer s.Close()
//		for e := range s.Sub() {
//			out.Emit(e)
//		}
//	})
package kit

import (
	"iter"

	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Sink forwards events to a consumer and remembers when it stopped.
// Emitting into a stopped sink is a no-op, so pass bodies only need to
// check the result where stopping early saves real work.
type Sink struct {
	yield   func(stream.Event) bool
	stopped bool
}

// Gen runs body lazily as an event sequence.
func Gen(body func(out *Sink)) iter.Seq[stream.Event] {
	return func(yield func(stream.Event) bool) {
		body(&Sink{yield: yield})
	}
}

// Discard returns a sink that drops everything.
func Discard() *Sink {
	return &Sink{yield: func(stream.Event) bool { return true }}
}

// Emit forwards e and reports whether the consumer wants more.
func (s *Sink) Emit(e stream.Event) bool {
	if s.stopped {
		return false
	}

	if !s.yield(e) {
		s.stopped = true
	}

	return !s.stopped
}

// EmitAll forwards every event of seq.
func (s *Sink) EmitAll(seq iter.Seq[stream.Event]) bool {
	if s.stopped {
		return false
	}

	for e := range seq {
		if !s.Emit(e) {
			return false
		}
	}

	return true
}

// Stopped reports whether the consumer quit.
func (s *Sink) Stopped() bool {
	return s.stopped
}

// Skip drains seq, running whatever side effects it has.
func Skip(seq iter.Seq[stream.Event]) {
	for range seq {
	}
}

// SetPos returns e moved to position pos.
func SetPos(e stream.Event, pos schema.Tag) stream.Event {
	e.Pos = pos
	return e
}

// SetType returns e with its type replaced.
func SetType(e stream.Event, typ schema.Tag) stream.Event {
	e.Type = typ
	return e
}
