package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/fatih/color"
)

func newContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()

	color.NoColor = true

	var buf bytes.Buffer

	return &Context{Config: filepath.Join(t.TempDir(), "missing.yaml"), Out: &buf}, &buf
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	return path
}

func TestEventsCmd(t *testing.T) {
	ctx, out := newContext(t)
	file := writeSource(t, "a.js", "x;")

	cmd := &EventsCmd{File: file, Format: "text"}
	assert.NoError(t, cmd.Run(ctx))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, ">top:File", lines[0])
	assert.Equal(t, "        -expression:Identifier name=x", lines[4])
	assert.Equal(t, "<top:File", lines[len(lines)-1])
}

func TestEventsCmdXMLRoundTrip(t *testing.T) {
	ctx, out := newContext(t)
	file := writeSource(t, "a.js", "let a = 1; f(a);")

	assert.NoError(t, (&EventsCmd{File: file, Format: "xml"}).Run(ctx))
	assert.Contains(t, out.String(), "<events>")

	doc := writeSource(t, "a.xml", out.String())

	ctx, out = newContext(t)
	assert.NoError(t, (&FormatCmd{}).formatFromReader(ctx, newFormatter(), strings.NewReader("let a = 1; f(a);"), out, "a.js"))
	want := out.String()

	ctx, out = newContext(t)
	assert.NoError(t, (&ResolveCmd{File: doc}).Run(ctx))
	assert.Equal(t, want, out.String())
}

func TestResolveCmd(t *testing.T) {
	ctx, out := newContext(t)
	file := writeSource(t, "a.js", "{ var x = 1; }\nconsole.log(x);")

	assert.NoError(t, (&ResolveCmd{File: file}).Run(ctx))
	assert.Equal(t, "{var x=1;}\nconsole.log(x);\n", out.String())
}

func TestResolveCmdDuplicate(t *testing.T) {
	ctx, _ := newContext(t)
	file := writeSource(t, "a.js", "let a; let a;")

	err := (&ResolveCmd{File: file, Check: true}).Run(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "binding error")
}

func TestMatchCmd(t *testing.T) {
	ctx, out := newContext(t)
	file := writeSource(t, "a.js", "let a = 1, b = a + 1;")

	assert.NoError(t, (&MatchCmd{File: file, Pattern: []string{">$A=$B+1"}}).Run(ctx))

	got := out.String()
	assert.Contains(t, got, "b=a+1")
	assert.Contains(t, got, "  A = b\n  B = a\n")
	assert.Contains(t, got, "1 match\n")
}

func TestMatchCmdBadPattern(t *testing.T) {
	ctx, _ := newContext(t)
	file := writeSource(t, "a.js", "x;")

	err := (&MatchCmd{File: file, Pattern: []string{"=$A+1"}, Where: "A +"}).Run(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pattern error")
}

func TestSchemaCmd(t *testing.T) {
	ctx, out := newContext(t)
	assert.NoError(t, (&SchemaCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "VariableDeclarator\n")

	ctx, out = newContext(t)
	assert.NoError(t, (&SchemaCmd{Type: "Program"}).Run(ctx))
	assert.Contains(t, out.String(), "Program\n")
	assert.Contains(t, out.String(), "string script|module")
	assert.Contains(t, out.String(), "(visited)")

	ctx, _ = newContext(t)
	err := (&SchemaCmd{Type: "Nope"}).Run(ctx)
	assert.True(t, errors.Is(err, ErrUnknownNodeType))
}

func TestTestCmd(t *testing.T) {
	ctx, out := newContext(t)

	cmd := &TestCmd{Path: filepath.Join("..", "..", "testrunner", "testdata", "cases"), Timeout: "1m"}
	assert.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), "All cases passed!")
}

func TestTestCmdFailure(t *testing.T) {
	ctx, _ := newContext(t)
	doc := writeSource(t, "bad.md", "## wrong\n\n```js\nf()\n```\n\n```yaml\noutput: g();\n```\n")

	err := (&TestCmd{Path: doc, Timeout: "1m"}).Run(ctx)
	assert.True(t, errors.Is(err, ErrCasesFailed))
}

func TestFormatCmd(t *testing.T) {
	t.Run("javascript in place", func(t *testing.T) {
		ctx, _ := newContext(t)
		file := writeSource(t, "a.js", "let a = 1;   f( a )")

		assert.NoError(t, (&FormatCmd{Input: file, Write: true}).Run(ctx))

		data, err := os.ReadFile(file)
		assert.NoError(t, err)
		assert.Equal(t, "let a=1;\nf(a);\n", string(data))
	})

	t.Run("check", func(t *testing.T) {
		ctx, _ := newContext(t)
		file := writeSource(t, "a.js", "f( a )")

		err := (&FormatCmd{Input: file, Check: true}).Run(ctx)
		assert.True(t, errors.Is(err, ErrFileNotFormatted))
	})

	t.Run("markdown diff", func(t *testing.T) {
		ctx, out := newContext(t)
		file := writeSource(t, "doc.md", "# T\n\n```js\nf( a )\n```\n")

		assert.NoError(t, (&FormatCmd{Input: file, Diff: true}).Run(ctx))
		assert.Contains(t, out.String(), "-f( a )\n+f(a);\n")
	})

	t.Run("directory", func(t *testing.T) {
		ctx, out := newContext(t)
		dir := t.TempDir()
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("f( a )"), 0o644))
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("f( a )"), 0o644))

		assert.NoError(t, (&FormatCmd{Input: dir, Write: true}).Run(ctx))
		assert.Contains(t, out.String(), "Formatted: ")
		assert.NotContains(t, out.String(), "b.txt")

		data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
		assert.NoError(t, err)
		assert.Equal(t, "f( a )", string(data))
	})
}
