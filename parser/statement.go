package parser

import (
	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/estream/tree"
)

var (
	statement parser
	program   parser
)

func init() {
	semi := pc.Optional(pc.Drop(punct(";")))
	kind := keyword("var", "let", "const")

	declarator := build(
		pc.Seq(pattern, slot(pc.Seq(pc.Drop(punct("=")), assignment))),
		func(tokens []token) *tree.Node {
			return tree.New("VariableDeclarator").
				Set("id", tokens[0].Val.Node).
				Set("init", tokens[1].Val.Node)
		},
	)

	declaration := build(
		pc.Seq(kind, declarator, pc.ZeroOrMore("declarator", pc.Seq(pc.Drop(punct(",")), declarator))),
		func(tokens []token) *tree.Node {
			return tree.New("VariableDeclaration").
				Set("kind", tokens[0].Val.Original.Value).
				Set("declarations", tree.NewArray(nodes(tokens[1:])...))
		},
	)

	// for (let x of xs): one declarator without initializer
	head := build(
		pc.Seq(kind, pattern),
		func(tokens []token) *tree.Node {
			return tree.New("VariableDeclaration").
				Set("kind", tokens[0].Val.Original.Value).
				Set("declarations", tree.NewArray(tree.New("VariableDeclarator").Set("id", tokens[1].Val.Node)))
		},
	)

	body := lazy(&statement)

	function := build(
		pc.Seq(pc.Drop(keyword("function")), identifier, params, block),
		func(tokens []token) *tree.Node {
			return tree.New("FunctionDeclaration").
				Set("id", tokens[0].Val.Node).
				Set("params", tokens[1].Val.Node).
				Set("body", tokens[2].Val.Node)
		},
	)

	ifStmt := build(
		pc.Seq(
			pc.Drop(keyword("if")), pc.Drop(punct("(")), expression, pc.Drop(punct(")")),
			body,
			slot(pc.Seq(pc.Drop(keyword("else")), body)),
		),
		func(tokens []token) *tree.Node {
			return tree.New("IfStatement").
				Set("test", tokens[0].Val.Node).
				Set("consequent", tokens[1].Val.Node).
				Set("alternate", tokens[2].Val.Node)
		},
	)

	whileStmt := build(
		pc.Seq(pc.Drop(keyword("while")), pc.Drop(punct("(")), expression, pc.Drop(punct(")")), body),
		func(tokens []token) *tree.Node {
			return tree.New("WhileStatement").
				Set("test", tokens[0].Val.Node).
				Set("body", tokens[1].Val.Node)
		},
	)

	forIn := build(
		pc.Seq(
			pc.Drop(keyword("for")), pc.Drop(punct("(")),
			pc.Or(head, call),
			pc.Or(keyword("in"), contextual("of")),
			expression, pc.Drop(punct(")")),
			body,
		),
		func(tokens []token) *tree.Node {
			typ := "ForInStatement"
			if tokens[1].Val.Original.Value == "of" {
				typ = "ForOfStatement"
			}

			left := tokens[0].Val.Node
			if left.Type != "VariableDeclaration" {
				left = toPattern(left)
			}

			return tree.New(typ).
				Set("left", left).
				Set("right", tokens[2].Val.Node).
				Set("body", tokens[3].Val.Node)
		},
	)

	forStmt := build(
		pc.Seq(
			pc.Drop(keyword("for")), pc.Drop(punct("(")),
			slot(pc.Or(declaration, expression)), pc.Drop(punct(";")),
			slot(expression), pc.Drop(punct(";")),
			slot(expression), pc.Drop(punct(")")),
			body,
		),
		func(tokens []token) *tree.Node {
			return tree.New("ForStatement").
				Set("init", tokens[0].Val.Node).
				Set("test", tokens[1].Val.Node).
				Set("update", tokens[2].Val.Node).
				Set("body", tokens[3].Val.Node)
		},
	)

	returnStmt := build(
		pc.Seq(pc.Drop(keyword("return")), slot(expression), semi),
		func(tokens []token) *tree.Node {
			return tree.New("ReturnStatement").Set("argument", tokens[0].Val.Node)
		},
	)

	throwStmt := build(
		pc.Seq(pc.Drop(keyword("throw")), expression, semi),
		func(tokens []token) *tree.Node {
			return tree.New("ThrowStatement").Set("argument", tokens[0].Val.Node)
		},
	)

	jump := build(
		pc.Seq(keyword("break", "continue"), semi),
		func(tokens []token) *tree.Node {
			if tokens[0].Val.Original.Value == "break" {
				return tree.New("BreakStatement")
			}

			return tree.New("ContinueStatement")
		},
	)

	catch := build(
		pc.Seq(
			pc.Drop(keyword("catch")),
			slot(pc.Seq(pc.Drop(punct("(")), pattern, pc.Drop(punct(")")))),
			block,
		),
		func(tokens []token) *tree.Node {
			return tree.New("CatchClause").
				Set("param", tokens[0].Val.Node).
				Set("body", tokens[1].Val.Node)
		},
	)

	tryStmt := build(
		pc.Seq(
			pc.Drop(keyword("try")), block,
			slot(catch),
			slot(pc.Seq(pc.Drop(keyword("finally")), block)),
		),
		func(tokens []token) *tree.Node {
			return tree.New("TryStatement").
				Set("block", tokens[0].Val.Node).
				Set("handler", tokens[1].Val.Node).
				Set("finalizer", tokens[2].Val.Node)
		},
	)

	empty := build(punct(";"), func(tokens []token) *tree.Node {
		return tree.New("EmptyStatement")
	})

	exprStmt := build(
		pc.Seq(expression, semi),
		func(tokens []token) *tree.Node {
			return tree.New("ExpressionStatement").Set("expression", tokens[0].Val.Node)
		},
	)

	statement = pc.Trace("statement", pc.Or(
		block,
		pc.Seq(declaration, semi),
		function,
		ifStmt,
		whileStmt,
		forIn,
		forStmt,
		returnStmt,
		throwStmt,
		jump,
		tryStmt,
		empty,
		exprStmt,
	))

	program = pc.ZeroOrMore("statement", statement)
}
