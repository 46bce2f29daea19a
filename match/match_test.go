package match_test

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/estree"
	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/match"
	"github.com/shibukawa/estream/parser"
	"github.com/shibukawa/estream/printer"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/tree"
)

func setup(t *testing.T) (*schema.Registry, *kit.Fragments) {
	t.Helper()

	reg, err := estree.Default()
	require.NoError(t, err)

	return reg, kit.NewFragments(reg, parser.New())
}

func events(t *testing.T, reg *schema.Registry, src string) []stream.Event {
	t.Helper()

	root, err := parser.Parse(src)
	require.NoError(t, err)

	res, err := stream.Collect(stream.Produce(reg, root, schema.Top))
	require.NoError(t, err)

	return res
}

func find(t *testing.T, src string, patterns ...match.Pattern) []match.Match {
	t.Helper()

	reg, frags := setup(t)

	m, err := match.Compile(frags, patterns...)
	require.NoError(t, err)

	res, err := m.Find(events(t, reg, src))
	require.NoError(t, err)

	return res
}

// captured prints every capture of m.
func captured(m match.Match) map[string]string {
	res := map[string]string{}
	for name, v := range m.Captures {
		res[name] = printer.Print(v.Node)
	}

	return res
}

func TestFind(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		pattern  match.Pattern
		expected []map[string]string
	}{
		{
			name:     "declarator",
			src:      "let a = 1, b = a + 1;",
			pattern:  match.Pattern{Source: ">$A=$B+1"},
			expected: []map[string]string{{"A": "b", "B": "a"}},
		},
		{
			name:     "operator is compared",
			src:      "a - b; c + d;",
			pattern:  match.Pattern{Source: "=$X+$Y"},
			expected: []map[string]string{{"X": "c", "Y": "d"}},
		},
		{
			name:     "identifiers are compared by name",
			src:      "f(1); g(2); f(3);",
			pattern:  match.Pattern{Source: "=f($N)"},
			expected: []map[string]string{{"N": "1"}, {"N": "3"}},
		},
		{
			name:     "repeated captures must be equal",
			src:      "a + a; a + b; g(x) + g(x);",
			pattern:  match.Pattern{Source: "=$X+$X"},
			expected: []map[string]string{{"X": "a"}, {"X": "g(x)"}},
		},
		{
			name:     "captures take whole subtrees",
			src:      "x = f(a, b) + 1;",
			pattern:  match.Pattern{Source: "=$A+1"},
			expected: []map[string]string{{"A": "f(a,b)"}},
		},
		{
			name:     "nested roots",
			src:      "x + 1 + 1;",
			pattern:  match.Pattern{Source: "=$A+1"},
			expected: []map[string]string{{"A": "x+1"}, {"A": "x"}},
		},
		{
			name:     "statement captures",
			src:      "if (x) { f(); } if (y) g(); while (z) h();",
			pattern:  match.Pattern{Source: "if ($C) $S;"},
			expected: []map[string]string{{"C": "x", "S": "{f();}"}, {"C": "y", "S": "g();"}},
		},
		{
			name:     "guard accepts",
			src:      "let b = a + 1, c = b + 1;",
			pattern:  match.Pattern{Source: ">$A=$B+1", Where: `B.name == "b"`},
			expected: []map[string]string{{"A": "c", "B": "b"}},
		},
		{
			name:     "guard on types",
			src:      "f(1) + 1; x + 1;",
			pattern:  match.Pattern{Source: "=$A+1", Where: `A.type == "CallExpression" && A.arguments[0].value == 1.0`},
			expected: []map[string]string{{"A": "f(1)"}},
		},
		{
			name:    "guard rejects",
			src:     "let b = a + 1;",
			pattern: match.Pattern{Source: ">$A=$B+1", Where: `A.name == "c"`},
		},
		{
			name:    "guard errors count as false",
			src:     "let b = a + 1;",
			pattern: match.Pattern{Source: ">$A=$B+1", Where: `A.missing == 1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := find(t, tt.src, tt.pattern)

			var got []map[string]string
			for _, m := range res {
				got = append(got, captured(m))
			}

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSchemaDefaults(t *testing.T) {
	reg, frags := setup(t)

	// computed is left out; the schema default applies
	stmt := tree.New("ExpressionStatement").Set("expression", tree.New("MemberExpression").
		Set("object", tree.New("Identifier").Set("name", "o")).
		Set("property", tree.New("Identifier").Set("name", "p")))

	evs, err := stream.Collect(stream.Produce(reg, stmt, schema.Top))
	require.NoError(t, err)

	m := match.MustCompile(frags, match.Pattern{Source: "=$O.p"}, match.Pattern{Source: "=$O[p]"})

	res, err := m.Find(evs)
	assert.NoError(t, err)
	require.Equal(t, 1, len(res))
	assert.Equal(t, 0, res[0].Pattern)
}

func TestSeveralPatterns(t *testing.T) {
	res := find(t, "let a = b + 1; f(a);",
		match.Pattern{Source: "=$F($X)"},
		match.Pattern{Source: "=$L+$R"},
	)

	require.Equal(t, 2, len(res))

	assert.Equal(t, 1, res[0].Pattern)
	assert.Equal(t, 0, res[1].Pattern)
	assert.True(t, res[0].Index < res[1].Index)
	assert.Equal(t, map[string]string{"F": "f", "X": "a"}, captured(res[1]))
}

func TestRootValue(t *testing.T) {
	reg, frags := setup(t)
	evs := events(t, reg, "let b = a + 1;")

	m := match.MustCompile(frags, match.Pattern{Source: ">$A=$B+1"})

	res, err := m.Find(evs)
	require.NoError(t, err)
	require.Equal(t, 1, len(res))
	assert.Equal(t, "VariableDeclarator", res[0].Root.Node.Type)

	// the capture is the value of the input, not a copy
	var found bool

	for _, e := range evs {
		if e.Value == res[0].Captures["A"] {
			found = true
		}
	}

	assert.True(t, found)
}

func TestBrackets(t *testing.T) {
	reg, frags := setup(t)
	src := "x + 1 + 1; y;"

	m := match.MustCompile(frags, match.Pattern{Source: "=$A+1"})

	out, err := stream.Collect(m.Run(stream.Slice(events(t, reg, src))))
	require.NoError(t, err)

	var (
		roots, holes int
		stack        []stream.Event
	)

	for _, e := range out {
		if reg.KindOf(e.Type) != schema.KindControl {
			continue
		}

		assert.False(t, e.IsTerminal())

		if e.IsOpen() {
			stack = append(stack, e)

			if e.Type == schema.MatchRoot {
				roots++
			} else {
				holes++
			}

			continue
		}

		require.NotEmpty(t, stack)

		top := stack[len(stack)-1]
		assert.True(t, top.Value == e.Value)
		stack = stack[:len(stack)-1]
	}

	assert.Equal(t, 0, len(stack))
	assert.Equal(t, 2, roots)
	assert.Equal(t, 2, holes)

	// control events do not disturb consumers
	root, err := stream.Consume(reg, stream.Slice(out))
	assert.NoError(t, err)
	assert.Equal(t, []string{"x+1+1;", "y;"}, printer.Lines(root))
}

func TestFailedAttemptsLeaveNoMarkers(t *testing.T) {
	reg, frags := setup(t)
	evs := events(t, reg, "a + 2; b - 1;")

	m := match.MustCompile(frags, match.Pattern{Source: "=$A+1"})

	out, err := stream.Collect(m.Run(stream.Slice(evs)))
	assert.NoError(t, err)
	assert.Equal(t, len(evs), len(out))
}

func TestInjectStopsEarly(t *testing.T) {
	reg, frags := setup(t)
	m := match.MustCompile(frags, match.Pattern{Source: "=$A+1"})

	count := 0
	for range m.Inject(stream.Slice(events(t, reg, "a + 1; b + 1;"))) {
		count++
		if count == 5 {
			break
		}
	}

	assert.Equal(t, 5, count)
}

func TestMatcherInfo(t *testing.T) {
	_, frags := setup(t)

	m := match.MustCompile(frags,
		match.Pattern{Source: ">$A=$B+$A"},
		match.Pattern{Source: "f();"},
	)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"A", "B"}, m.Captures(0))
	assert.Equal(t, 0, len(m.Captures(1)))

	assert.Equal(t, "matched", match.Matched.String())
	assert.Equal(t, "rejected", match.Rejected.String())
	assert.Equal(t, "State(9)", match.State(9).String())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		pattern match.Pattern
		err     error
	}{
		{"single event", match.Pattern{Source: "=x"}, estream.ErrBadPattern},
		{"syntax", match.Pattern{Source: "=$A +"}, estream.ErrBadPattern},
		{"guard syntax", match.Pattern{Source: "=$A+1", Where: "A +"}, estream.ErrBadGuard},
		{"guard is not boolean", match.Pattern{Source: "=$A+1", Where: "1 + 2"}, estream.ErrBadGuard},
		{"guard with unknown name", match.Pattern{Source: "=$A+1", Where: "Z == 1"}, estream.ErrBadGuard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, frags := setup(t)

			_, err := match.Compile(frags, tt.pattern)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
			assert.True(t, estream.IsKind(err, estream.PatternError))
		})
	}

	_, frags := setup(t)
	assert.Panics(t, func() {
		match.MustCompile(frags, match.Pattern{Source: "=x"})
	})
}
