package match

import (
	"iter"
	"slices"

	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/tree"
)

// step collects the control events one input event adds around itself.
type step struct {
	opens  []stream.Event
	closes []stream.Event
	ends   []stream.Event
}

// Inject yields the input unchanged, with terminal control markers around
// values where some pattern may match: MatchRoot markers around the root of
// an attempt and MatchPlaceholder markers around its captures. Every
// attempt is kept until it finishes or fails; there is no backtracking.
func (m *Matcher) Inject(seq iter.Seq[stream.Event]) iter.Seq[stream.Event] {
	return kit.Gen(func(out *kit.Sink) {
		var (
			live  []*Attempt
			count int
			depth int
		)

		for e := range seq {
			if m.reg.KindOf(e.Type) == schema.KindControl {
				if !out.Emit(e) {
					return
				}

				continue
			}

			before, after := depth, depth
			if e.IsOpen() {
				after++
			}

			if e.IsClose() {
				after--
			}

			var st step

			for _, a := range live {
				if a.skip >= 0 {
					if e.IsClose() && after == a.skip {
						st.closes = append(st.closes, a.capture.marker(false))
						a.skip = -1
						a.capture = nil
					}

					continue
				}

				m.advance(a, e, before, &st)
			}

			var starts []stream.Event

			if e.Enter {
				for i, p := range m.patterns {
					if p.start != e.Type {
						continue
					}

					a := &Attempt{Pattern: i, Index: count, Root: e.Value, Captures: map[string]*stream.Value{}, skip: -1}
					count++

					starts = append(starts, rootMarker(a, e.Pos))
					live = append(live, a)

					m.advance(a, e, before, &st)
				}
			}

			for _, a := range live {
				if a.State == Active && a.skip < 0 && a.cursor == len(m.patterns[a.Pattern].events) {
					a.State = Matched
					st.ends = append(st.ends, a.start.end())
				}
			}

			slices.Reverse(st.closes)
			slices.Reverse(st.ends)

			if !out.EmitAll(slices.Values(starts)) ||
				!out.EmitAll(slices.Values(st.opens)) ||
				!out.Emit(e) ||
				!out.EmitAll(slices.Values(st.closes)) ||
				!out.EmitAll(slices.Values(st.ends)) {
				return
			}

			live = slices.DeleteFunc(live, func(a *Attempt) bool {
				return a.State != Active
			})

			depth = after
		}

		for _, a := range live {
			a.State = Failed
		}
	})
}

// advance matches e against the next pattern event of a.
func (m *Matcher) advance(a *Attempt, e stream.Event, depth int, st *step) {
	pat := m.patterns[a.Pattern].events

	if name, n := m.placeholder(pat, a.cursor); name != "" {
		if !e.Enter {
			a.State = Failed
			return
		}

		if prev, ok := a.Captures[name]; ok && !tree.Equal(prev.Node, e.Node()) {
			a.State = Failed
			return
		}

		a.Captures[name] = e.Value
		a.cursor += n

		c := &Capture{Name: name, Attempt: a, value: &stream.Value{}, pos: e.Pos}
		c.value.Ctrl = c

		st.opens = append(st.opens, c.marker(true))

		if e.IsTerminal() {
			st.closes = append(st.closes, c.marker(false))
		} else {
			a.skip = depth
			a.capture = c
		}

		return
	}

	root := a.cursor == 0 || a.cursor == len(pat)-1
	if !m.same(pat[a.cursor], e, root) {
		a.State = Failed
		return
	}

	a.cursor++
}

// placeholder reports the capture starting at pattern index i and the
// number of pattern events it spans.
func (m *Matcher) placeholder(pat []stream.Event, i int) (string, int) {
	j := pat[i]
	if !j.Enter {
		return "", 0
	}

	if name := kit.PlaceholderName(m.reg, j); name != "" {
		return name, 1
	}

	wrapper := m.reg.Fragments().Wrapper
	if wrapper == schema.Invalid || j.Type != wrapper || !j.IsOpen() || i+2 >= len(pat) {
		return "", 0
	}

	if name := kit.PlaceholderName(m.reg, pat[i+1]); name != "" && pat[i+2].Value == j.Value {
		return name, 3
	}

	return "", 0
}

// same compares direction, position, type and atomic attributes. The
// position of the pattern root is not compared.
func (m *Matcher) same(p, e stream.Event, root bool) bool {
	if p.Enter != e.Enter || p.Leave != e.Leave || p.Type != e.Type {
		return false
	}

	if !root && p.Pos != e.Pos {
		return false
	}

	if !p.Enter || m.reg.KindOf(p.Type) != schema.KindType {
		return true
	}

	ti := m.reg.Type(p.Type)
	pn, en := p.Node(), e.Node()

	for _, name := range ti.Attrs {
		if !tree.AttrEqual(m.attr(p.Type, pn, name), m.attr(p.Type, en, name)) {
			return false
		}
	}

	return true
}

func (m *Matcher) attr(typ schema.Tag, n *tree.Node, name string) any {
	if n != nil {
		if v, ok := n.Fields[name]; ok && v != nil {
			return v
		}
	}

	pos, ok := m.reg.Lookup(name)
	if !ok {
		return nil
	}

	if f := m.reg.Field(typ, pos); f != nil {
		return f.Default
	}

	return nil
}

func rootMarker(a *Attempt, pos schema.Tag) stream.Event {
	mk := &marker{attempt: a, start: true, value: &stream.Value{Ctrl: a}, pos: pos}
	a.start = mk

	return stream.Terminal(pos, schema.MatchRoot, &stream.Value{Ctrl: mk})
}

// end returns the closing marker of a start marker.
func (mk *marker) end() stream.Event {
	return stream.Terminal(mk.pos, schema.MatchRoot, &stream.Value{Ctrl: &marker{attempt: mk.attempt, value: mk.value, pos: mk.pos}})
}

func (c *Capture) marker(start bool) stream.Event {
	mk := &marker{attempt: c.Attempt, start: start, value: c.value, pos: c.pos}

	return stream.Terminal(c.pos, schema.MatchPlaceholder, &stream.Value{Ctrl: mk})
}
