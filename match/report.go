package match

import (
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Match is one committed match.
type Match struct {
	Pattern  int
	Index    int
	Root     *stream.Value
	Captures map[string]*stream.Value
}

// Matches lists the matches bracketed in committed events, in the order
// their roots appear.
func Matches(events []stream.Event) []Match {
	var res []Match

	for _, e := range events {
		if e.Type != schema.MatchRoot || !e.IsOpen() || e.Value == nil {
			continue
		}

		a, ok := e.Value.Ctrl.(*Attempt)
		if !ok {
			continue
		}

		res = append(res, Match{Pattern: a.Pattern, Index: a.Index, Root: a.Root, Captures: a.Captures})
	}

	return res
}

// Find runs m over seq and returns the matches.
func (m *Matcher) Find(seq []stream.Event) ([]Match, error) {
	events, err := stream.Collect(m.Run(stream.Slice(seq)))
	if err != nil {
		return nil, err
	}

	return Matches(events), nil
}
