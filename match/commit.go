package match

import (
	"iter"

	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Commit buffers the output of Inject, evaluates guards of matched
// attempts and turns their markers into MatchRoot and MatchPlaceholder
// brackets. Markers of failed and rejected attempts are dropped.
func (m *Matcher) Commit(seq iter.Seq[stream.Event]) iter.Seq[stream.Event] {
	return kit.Gen(func(out *kit.Sink) {
		var events []stream.Event

		for e := range seq {
			events = append(events, e)
		}

		for _, e := range events {
			mk, ok := markerOf(e)
			if !ok {
				continue
			}

			a := mk.attempt
			if a.State == Matched && mk.start && e.Type == schema.MatchRoot {
				if g := m.patterns[a.Pattern].guard; g != nil && !evalGuard(g, a.Captures) {
					a.State = Rejected
				}
			}
		}

		for _, e := range events {
			mk, ok := markerOf(e)
			if !ok {
				if !out.Emit(e) {
					return
				}

				continue
			}

			if mk.attempt.State != Matched {
				continue
			}

			res := stream.Close(mk.pos, e.Type, mk.value)
			if mk.start {
				res = stream.Open(mk.pos, e.Type, mk.value)
			}

			if !out.Emit(res) {
				return
			}
		}
	})
}

// Run is Inject followed by Commit.
func (m *Matcher) Run(seq iter.Seq[stream.Event]) iter.Seq[stream.Event] {
	return m.Commit(m.Inject(seq))
}

// Pass returns Run as a pipeline pass.
func (m *Matcher) Pass() stream.Pass {
	return m.Run
}

func markerOf(e stream.Event) (*marker, bool) {
	if e.Type != schema.MatchRoot && e.Type != schema.MatchPlaceholder {
		return nil, false
	}

	if e.Value == nil {
		return nil, false
	}

	mk, ok := e.Value.Ctrl.(*marker)

	return mk, ok
}
