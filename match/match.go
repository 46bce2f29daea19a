// Package match finds sub-trees of an event stream shaped like small source
// patterns. Inject brackets candidate matches with control events in one
// forward pass, Commit keeps the brackets of successful attempts only.
//
// Identifiers spelled with the fragment marker are captures: "$A" matches
// any single value and records it under "A". A pattern statement made of a
// capture alone, like "$S;", captures a whole statement.
package match

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Pattern is one pattern source with an optional CEL guard. The guard sees
// every capture as a variable holding its node as a map with a "type" key
// and the node's fields.
type Pattern struct {
	Source string
	Where  string
}

// State is the progress of an attempt.
type State int

const (
	// Active attempts are still consuming events.
	Active State = iota
	// Failed attempts met a mismatch or never finished.
	Failed
	// Matched attempts consumed the whole pattern.
	Matched
	// Rejected attempts matched but their guard said no.
	Rejected
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Failed:
		return "failed"
	case Matched:
		return "matched"
	case Rejected:
		return "rejected"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Attempt is one try of one pattern starting at one value. Bracket events
// of the attempt carry it in Value.Ctrl.
type Attempt struct {
	// Pattern is the index of the pattern in Compile's arguments.
	Pattern int
	// Index numbers attempts of one run in start order.
	Index int
	State State
	// Root is the value the attempt started at.
	Root     *stream.Value
	Captures map[string]*stream.Value

	start   *marker
	cursor  int
	capture *Capture
	// skip is the depth the captured subtree ends at, -1 when not capturing.
	skip int
}

// Capture brackets one captured value. Placeholder bracket events carry it
// in Value.Ctrl.
type Capture struct {
	Name    string
	Attempt *Attempt

	value *stream.Value
	pos   schema.Tag
}

// marker is the Ctrl of the terminal events Inject emits. Commit turns the
// markers of successful attempts into bracket opens and closes.
type marker struct {
	attempt *Attempt
	start   bool
	// value is shared by both markers of one bracket.
	value *stream.Value
	pos   schema.Tag
}

type compiled struct {
	source string
	events []stream.Event
	start  schema.Tag
	guard  cel.Program
	names  []string
}

// Matcher holds compiled patterns. It keeps no per-run state, so one
// matcher may serve any number of streams.
type Matcher struct {
	reg      *schema.Registry
	patterns []*compiled
}

// Compile parses patterns through frags. Sources use the fragment prefixes
// of kit.SplitMode, ">" for a declarator and "=" for an expression.
func Compile(frags *kit.Fragments, patterns ...Pattern) (*Matcher, error) {
	reg := frags.Registry()
	m := &Matcher{reg: reg}

	for _, p := range patterns {
		c, err := compile(frags, p)
		if err != nil {
			return nil, err
		}

		m.patterns = append(m.patterns, c)
	}

	return m, nil
}

// MustCompile is Compile that panics on errors.
func MustCompile(frags *kit.Fragments, patterns ...Pattern) *Matcher {
	m, err := Compile(frags, patterns...)
	if err != nil {
		panic(err)
	}

	return m
}

func compile(frags *kit.Fragments, p Pattern) (*compiled, error) {
	reg := frags.Registry()

	events, err := frags.Events(schema.Top, p.Source)
	if err != nil {
		return nil, err
	}

	if len(events) < 2 {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadPattern, "%q is a single event", p.Source)
	}

	if kit.PlaceholderName(reg, events[0]) != "" {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadPattern, "%q starts with a capture", p.Source)
	}

	c := &compiled{source: p.Source, events: events, start: events[0].Type}

	seen := map[string]bool{}

	for _, e := range events {
		if name := kit.PlaceholderName(reg, e); name != "" && e.Enter && !seen[name] {
			seen[name] = true
			c.names = append(c.names, name)
		}
	}

	if p.Where != "" {
		c.guard, err = compileGuard(c.names, p.Where)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Len returns the number of patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// Captures returns the capture names of pattern i in source order.
func (m *Matcher) Captures(i int) []string {
	return m.patterns[i].names
}
