package kit

import (
	"strings"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Subst maps placeholder names (without the marker) to the symbols their
// identifiers are bound to.
type Subst map[string]*binding.Symbol

// Refocus point names, after the marker.
const (
	// FocusStatement replaces the whole statement wrapping it.
	FocusStatement = "$"
	// FocusExpression replaces the identifier.
	FocusExpression = "E"
	// FocusAny replaces the identifier at whatever position it sits.
	FocusAny = "_"
)

type templateState struct {
	events []stream.Event
}

// Template adds fragment templates to an Output.
type Template struct {
	*Output
	frags  *Fragments
	active []*templateState
}

func newTemplate(frags *Fragments) *Template {
	return &Template{Output: newOutput(frags.Registry()), frags: frags}
}

// NewOutput creates an output stream without input.
func NewOutput(frags *Fragments) *Template {
	return newTemplate(frags)
}

// Fragments returns the fragment cache.
func (t *Template) Fragments() *Fragments {
	return t.frags
}

// Toks emits the whole fragment src at pos with placeholders substituted.
func (t *Template) Toks(out *Sink, pos schema.Tag, src string, subst Subst) {
	for _, e := range t.instantiate(pos, src, subst) {
		if !out.Emit(e) {
			return
		}
	}
}

// Template starts emitting fragment src at pos and stops at its first
// refocus point, whose position is returned. The caller emits the value
// for that position, then calls Refocus for the next point or Leave to
// emit the rest of the template.
func (t *Template) Template(out *Sink, pos schema.Tag, src string, subst Subst) schema.Tag {
	st := &templateState{events: t.instantiate(pos, src, subst)}
	t.active = append(t.active, st)

	t.push(pending{kind: pendingTemplate, gen: func(yield func(stream.Event) bool) {
		t.active = t.active[:len(t.active)-1]

		rest := st.events
		st.events = nil

		for _, e := range rest {
			if !yield(e) {
				return
			}
		}
	}})

	return t.Refocus(out)
}

// Refocus continues the innermost template up to its next refocus point.
func (t *Template) Refocus(out *Sink) schema.Tag {
	if len(t.active) == 0 {
		estream.Raise(estream.Errorf(estream.PatternError, estream.ErrMissingPlaceholder, "no active template"))
	}

	st := t.active[len(t.active)-1]
	sc := t.reg.Scoping()
	wrapper := t.reg.Fragments().Wrapper

	for len(st.events) > 0 {
		f := st.events[0]
		st.events = st.events[1:]

		if f.Enter {
			if f.Type == wrapper && wrapper != schema.Invalid && len(st.events) > 0 {
				n := st.events[0]
				if n.Type == sc.Identifier && t.focusName(n) == FocusStatement {
					st.skipTo(f)
					return f.Pos
				}
			}

			if f.Type == sc.Identifier {
				switch t.focusName(f) {
				case FocusStatement, FocusExpression, FocusAny:
					if !f.Leave {
						st.skipTo(f)
					}

					return f.Pos
				}
			}
		}

		out.Emit(f)
	}

	estream.Raise(estream.Errorf(estream.PatternError, estream.ErrMissingPlaceholder, "template is exhausted"))

	return schema.Invalid
}

// skipTo drops events up to and including the close of open.
func (st *templateState) skipTo(open stream.Event) {
	for len(st.events) > 0 {
		e := st.events[0]
		st.events = st.events[1:]

		if e.Value == open.Value {
			return
		}
	}
}

// focusName returns the placeholder name of an identifier event without
// the marker, or "" for ordinary identifiers.
func (t *Template) focusName(e stream.Event) string {
	return placeholderName(t.reg, e)
}

// PlaceholderName returns the name after the marker of a placeholder
// identifier, or "" when e is not one.
func PlaceholderName(reg *schema.Registry, e stream.Event) string {
	return placeholderName(reg, e)
}

func placeholderName(reg *schema.Registry, e stream.Event) string {
	sc := reg.Scoping()
	if e.Type != sc.Identifier || e.Node() == nil {
		return ""
	}

	name := e.Node().Str(sc.Name)
	marker := reg.Fragments().Marker

	if len(name) <= len(marker) || !strings.HasPrefix(name, marker) {
		return ""
	}

	return name[len(marker):]
}

func (t *Template) instantiate(pos schema.Tag, src string, subst Subst) []stream.Event {
	events, err := t.frags.Events(pos, src)
	if err != nil {
		if e, ok := err.(*estream.Error); ok {
			estream.Raise(e)
		}

		estream.Raise(&estream.Error{Kind: estream.PatternError, Err: estream.ErrBadPattern, Msg: err.Error()})
	}

	name := t.reg.Scoping().Name

	for _, e := range events {
		if !e.Enter {
			continue
		}

		ph := t.focusName(e)

		switch ph {
		case "", FocusStatement, FocusExpression, FocusAny:
			continue
		}

		sym, ok := subst[ph]
		if !ok {
			estream.Raise(estream.Errorf(estream.PatternError, estream.ErrUnknownPlaceholder, "%s%s in %q", t.reg.Fragments().Marker, ph, src))
		}

		e.Value.Sym = sym
		e.Value.Node.Set(name, sym.Name)
	}

	return events
}
