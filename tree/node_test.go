package tree

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func ident(name string) *Node {
	return New("Identifier").Set("name", name)
}

func TestSetAndAccessors(t *testing.T) {
	n := New("Literal").
		Set("value", decimal.NewFromInt(3)).
		Set("raw", "3").
		Set("regex", false).
		Set("callee", (*Node)(nil))

	d, ok := n.Num("value")
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "3", n.Str("raw"))
	assert.False(t, n.Bool("regex"))

	_, present := n.Fields["callee"]
	assert.False(t, present)

	var missing *Node
	assert.True(t, missing.Child("x") == nil)
	assert.Equal(t, "", missing.Str("x"))
	assert.True(t, missing.IsNull())
	assert.True(t, NewNull().IsNull())
	assert.Equal(t, "array", NewArray().Kind.String())
}

func TestCopies(t *testing.T) {
	call := New("CallExpression").
		Set("callee", ident("f")).
		Set("arguments", NewArray(ident("a"), NewNull()))

	shallow := call.ShallowCopy()
	shallow.Set("callee", ident("g"))
	assert.Equal(t, "f", call.Child("callee").Str("name"))
	assert.True(t, shallow.Child("arguments") == call.Child("arguments"))

	deep := call.DeepCopy()
	assert.True(t, Equal(call, deep))

	deep.Child("arguments").Elems[0].Set("name", "b")
	assert.Equal(t, "a", call.Child("arguments").Elems[0].Str("name"))
	assert.False(t, Equal(call, deep))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Node
		expected bool
	}{
		{"same identifier", ident("a"), ident("a"), true},
		{"different names", ident("a"), ident("b"), false},
		{"different types", ident("a"), New("ThisExpression"), false},
		{"numbers by value", New("Literal").Set("value", decimal.RequireFromString("1.0")), New("Literal").Set("value", decimal.NewFromInt(1)), true},
		{"number and string", New("Literal").Set("value", decimal.NewFromInt(1)), New("Literal").Set("value", "1"), false},
		{"nil attributes are absent", New("Literal").Set("value", nil), New("Literal"), true},
		{"null slots", NewArray(NewNull()), NewArray(nil), true},
		{"array lengths", NewArray(ident("a")), NewArray(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Equal(tt.a, tt.b))
		})
	}
}
