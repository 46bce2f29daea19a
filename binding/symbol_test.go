package binding

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTable(t *testing.T) {
	table := NewTable()

	a := table.New("a")
	anon := table.New("")

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, anon.ID)
	assert.True(t, a.Strict)
	assert.True(t, anon.Anonymous())
	assert.Equal(t, "a#1", a.String())
	assert.Equal(t, "_#2", anon.String())

	console := table.Global("console")
	assert.True(t, console == table.Global("console"))
	assert.Equal(t, "console(global)", console.String())

	table.Global("alert")

	var names []string
	for _, s := range table.Globals() {
		names = append(names, s.Name)
	}

	assert.Equal(t, []string{"alert", "console"}, names)
}

func TestBlocks(t *testing.T) {
	table := NewTable()
	fn := &Block{Func: true}
	inner := &Block{Parent: &Block{Parent: fn}}

	x := table.New("x")
	inner.Declare(x)
	inner.Declare(x)

	assert.Equal(t, []*Symbol{x}, inner.Decls)
	assert.True(t, inner.FuncScope() == fn)
	assert.True(t, (&Block{}).FuncScope() == nil)
}

func TestDomain(t *testing.T) {
	s := NewTable().New("a")

	assert.False(t, s.Reserved(1))
	s.Reserve(1)
	assert.True(t, s.Reserved(1))

	s.ResetDomain()
	assert.False(t, s.Reserved(1))

	var missing *Symbol
	assert.Equal(t, "<nil>", missing.String())
}
