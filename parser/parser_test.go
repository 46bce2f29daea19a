package parser

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	tok "github.com/shibukawa/estream/tokenizer"
	"github.com/shibukawa/estream/tree"
)

func body(t *testing.T, src string) []*tree.Node {
	t.Helper()

	file, err := Parse(src)
	assert.NoError(t, err)
	assert.Equal(t, "File", file.Type)

	prog := file.Child("program")
	assert.Equal(t, "Program", prog.Type)

	return prog.Child("body").Elems
}

func TestParseDeclaration(t *testing.T) {
	stmts := body(t, "let a = 1, b = a + 1;")
	assert.Equal(t, 1, len(stmts))

	decl := stmts[0]
	assert.Equal(t, "VariableDeclaration", decl.Type)
	assert.Equal(t, "let", decl.Str("kind"))

	decls := decl.Child("declarations").Elems
	assert.Equal(t, 2, len(decls))
	assert.Equal(t, "a", decls[0].Child("id").Str("name"))

	one, ok := decls[0].Child("init").Num("value")
	assert.True(t, ok)
	assert.True(t, one.Equal(decimal.NewFromInt(1)))

	init := decls[1].Child("init")
	assert.Equal(t, "BinaryExpression", init.Type)
	assert.Equal(t, "+", init.Str("operator"))
	assert.Equal(t, "a", init.Child("left").Str("name"))
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, n *tree.Node)
	}{
		{
			name:  "multiplication binds tighter",
			input: "1 + 2 * 3",
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "+", n.Str("operator"))
				assert.Equal(t, "*", n.Child("right").Str("operator"))
			},
		},
		{
			name:  "left associative",
			input: "a - b - c",
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "BinaryExpression", n.Child("left").Type)
				assert.Equal(t, "c", n.Child("right").Str("name"))
			},
		},
		{
			name:  "logical operators",
			input: "a || b && c",
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "LogicalExpression", n.Type)
				assert.Equal(t, "||", n.Str("operator"))
				assert.Equal(t, "&&", n.Child("right").Str("operator"))
			},
		},
		{
			name:  "assignment is right associative",
			input: "a = b = c",
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "AssignmentExpression", n.Type)
				assert.Equal(t, "AssignmentExpression", n.Child("right").Type)
			},
		},
		{
			name:  "postfix update",
			input: "i++",
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "UpdateExpression", n.Type)
				assert.False(t, n.Bool("prefix"))
			},
		},
		{
			name:  "arrow with expression body",
			input: "x => x + 1",
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "ArrowFunctionExpression", n.Type)
				assert.True(t, n.Bool("expression"))
				assert.Equal(t, 1, len(n.Child("params").Elems))
			},
		},
		{
			name:  "member chain and call",
			input: "a.b[c](d)",
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "CallExpression", n.Type)
				callee := n.Child("callee")
				assert.True(t, callee.Bool("computed"))
				assert.Equal(t, "b", callee.Child("object").Child("property").Str("name"))
			},
		},
		{
			name:  "string escapes",
			input: `'it\'s "ok"\n'`,
			check: func(t *testing.T, n *tree.Node) {
				assert.Equal(t, "it's \"ok\"\n", n.Str("value"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseExpression(tt.input)
			assert.NoError(t, err)
			tt.check(t, n)
		})
	}
}

func TestParseDestructuringAssignment(t *testing.T) {
	stmts := body(t, "[a, b] = [b, a];")

	assign := stmts[0].Child("expression")
	assert.Equal(t, "ArrayPattern", assign.Child("left").Type)
	assert.Equal(t, "ArrayExpression", assign.Child("right").Type)
}

func TestParsePatterns(t *testing.T) {
	stmts := body(t, "function f({a, b: [c] = d}, ...rest) {}")

	params := stmts[0].Child("params").Elems
	assert.Equal(t, 2, len(params))
	assert.Equal(t, "ObjectPattern", params[0].Type)
	assert.Equal(t, "RestElement", params[1].Type)

	props := params[0].Child("properties").Elems
	assert.True(t, props[0].Bool("shorthand"))
	assert.Equal(t, "AssignmentPattern", props[1].Child("value").Type)
}

func TestParseStatements(t *testing.T) {
	stmts := body(t, `
		var i = 0;
		for (let x of xs) { i += x }
		for (k in o) continue;
		for (;;) break;
		while (i) i--;
		if (a) b(); else c();
		try { f() } catch { g() } finally { h() }
		throw new Error("x");
	`)

	var types []string
	for _, s := range stmts {
		types = append(types, s.Type)
	}

	assert.Equal(t, []string{
		"VariableDeclaration", "ForOfStatement", "ForInStatement", "ForStatement",
		"WhileStatement", "IfStatement", "TryStatement", "ThrowStatement",
	}, types)

	assert.Equal(t, "VariableDeclaration", stmts[1].Child("left").Type)
	assert.Equal(t, "Identifier", stmts[2].Child("left").Type)
	assert.Zero(t, stmts[3].Child("init"))
	assert.Zero(t, stmts[6].Child("handler").Child("param"))
}

func TestParseFragments(t *testing.T) {
	p := New()

	file, err := p.Parse("function $_() { return $E }")
	assert.NoError(t, err)

	fn := file.Child("program").Child("body").Elems[0]
	assert.Equal(t, "$_", fn.Child("id").Str("name"))

	ret := fn.Child("body").Child("body").Elems[0]
	assert.Equal(t, "$E", ret.Child("argument").Str("name"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   error
	}{
		{name: "missing binding", input: "let = 1;", err: ErrSyntax},
		{name: "unclosed call", input: "f(", err: ErrSyntax},
		{name: "stray brace", input: "a; }", err: ErrSyntax},
		{name: "lexical error", input: "'abc", err: tok.ErrUnterminatedString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.err))
		})
	}
}
