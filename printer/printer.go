// Package printer turns trees of the estree grammar back into compact
// JavaScript text.
package printer

import (
	"strconv"
	"strings"

	"github.com/shibukawa/estream/tree"
)

// operator binding strength, loosest first
const (
	precSequence = iota + 1
	precAssign
	precConditional
	precCoalesce
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precCall
	precPrimary
)

var binaryPrec = map[string]int{
	"??": precCoalesce,
	"||": precOr,
	"&&": precAnd,
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"in": precRelational, "instanceof": precRelational,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
}

// Printer writes nodes into an internal buffer.
type Printer struct {
	b    strings.Builder
	last byte
}

// NewPrinter creates a Printer
func NewPrinter() *Printer {
	return &Printer{}
}

// Print renders n as compact JavaScript.
func Print(n *tree.Node) string {
	p := NewPrinter()
	p.Node(n)

	return p.String()
}

// Lines renders each top level statement of a File, Program or statement
// list on its own line.
func Lines(n *tree.Node) []string {
	switch n.Type {
	case "File":
		return Lines(n.Child("program"))
	case "Program":
		return Lines(n.Child("body"))
	}

	if n.Kind != tree.Array {
		return []string{Print(n)}
	}

	res := make([]string, 0, len(n.Elems))
	for _, e := range n.Elems {
		res = append(res, Print(e))
	}

	return res
}

func (p *Printer) String() string {
	return p.b.String()
}

func (p *Printer) write(parts ...string) {
	for _, s := range parts {
		if s == "" {
			continue
		}

		if glued(p.last, s[0]) {
			p.b.WriteByte(' ')
		}

		p.b.WriteString(s)
		p.last = s[len(s)-1]
	}
}

// glued reports whether two tokens need a space to stay apart, as in
// "typeof x" or "a- -b".
func glued(last, first byte) bool {
	if last == 0 {
		return false
	}

	if isWord(last) && isWord(first) {
		return true
	}

	return (last == '+' || last == '-') && first == last
}

func isWord(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// Node prints any node: statements, expressions, patterns and arrays.
func (p *Printer) Node(n *tree.Node) {
	if n.IsNull() {
		return
	}

	if n.Kind == tree.Array {
		for _, e := range n.Elems {
			p.Node(e)
		}

		return
	}

	if p.statement(n) {
		return
	}

	p.expr(n, precSequence)
}

func (p *Printer) statement(n *tree.Node) bool {
	switch n.Type {
	case "File":
		p.Node(n.Child("program"))
	case "Program":
		p.Node(n.Child("body"))
	case "BlockStatement":
		p.write("{")
		p.Node(n.Child("body"))
		p.write("}")
	case "EmptyStatement":
		p.write(";")
	case "ExpressionStatement":
		e := n.Child("expression")
		if ambiguous(e) {
			p.write("(")
			p.expr(e, precSequence)
			p.write(")")
		} else {
			p.expr(e, precSequence)
		}

		p.write(";")
	case "VariableDeclaration":
		p.declaration(n)
		p.write(";")
	case "VariableDeclarator":
		p.declarator(n)
	case "FunctionDeclaration":
		p.function(n)
	case "ReturnStatement", "ThrowStatement":
		p.write(strings.ToLower(strings.TrimSuffix(n.Type, "Statement")))
		p.expr(n.Child("argument"), precSequence)
		p.write(";")
	case "BreakStatement":
		p.write("break;")
	case "ContinueStatement":
		p.write("continue;")
	case "IfStatement":
		p.write("if(")
		p.expr(n.Child("test"), precSequence)
		p.write(")")
		p.Node(n.Child("consequent"))

		if alt := n.Child("alternate"); alt != nil {
			p.write("else")
			p.Node(alt)
		}
	case "WhileStatement":
		p.write("while(")
		p.expr(n.Child("test"), precSequence)
		p.write(")")
		p.Node(n.Child("body"))
	case "ForStatement":
		p.write("for(")

		if init := n.Child("init"); init != nil {
			if init.Type == "VariableDeclaration" {
				p.declaration(init)
			} else {
				p.expr(init, precSequence)
			}
		}

		p.write(";")
		p.expr(n.Child("test"), precSequence)
		p.write(";")
		p.expr(n.Child("update"), precSequence)
		p.write(")")
		p.Node(n.Child("body"))
	case "ForInStatement", "ForOfStatement":
		p.write("for(")

		if left := n.Child("left"); left.Type == "VariableDeclaration" {
			p.declaration(left)
		} else {
			p.expr(left, precCall)
		}

		if n.Type == "ForInStatement" {
			p.write("in")
		} else {
			p.write("of")
		}

		p.expr(n.Child("right"), precSequence)
		p.write(")")
		p.Node(n.Child("body"))
	case "TryStatement":
		p.write("try")
		p.Node(n.Child("block"))

		if h := n.Child("handler"); h != nil {
			p.write("catch")

			if param := h.Child("param"); param != nil {
				p.write("(")
				p.expr(param, precAssign)
				p.write(")")
			}

			p.Node(h.Child("body"))
		}

		if f := n.Child("finalizer"); f != nil {
			p.write("finally")
			p.Node(f)
		}
	default:
		return false
	}

	return true
}

func (p *Printer) declaration(n *tree.Node) {
	p.write(n.Str("kind"))

	for i, d := range n.Child("declarations").Elems {
		if i > 0 {
			p.write(",")
		}

		p.declarator(d)
	}
}

func (p *Printer) declarator(d *tree.Node) {
	p.expr(d.Child("id"), precAssign)

	if init := d.Child("init"); init != nil {
		p.write("=")
		p.expr(init, precAssign)
	}
}

func (p *Printer) function(n *tree.Node) {
	p.write("function")

	if id := n.Child("id"); id != nil {
		p.write(id.Str("name"))
	}

	p.params(n.Child("params"))
	p.Node(n.Child("body"))
}

func (p *Printer) params(n *tree.Node) {
	p.write("(")
	p.list(n, precAssign)
	p.write(")")
}

func (p *Printer) list(n *tree.Node, prec int) {
	if n == nil {
		return
	}

	for i, e := range n.Elems {
		if i > 0 {
			p.write(",")
		}

		p.expr(e, prec)
	}
}

// ambiguous reports whether an expression statement would start with "{"
// or "function" and so needs parentheses.
func ambiguous(n *tree.Node) bool {
	for n != nil {
		switch n.Type {
		case "ObjectExpression", "ObjectPattern", "FunctionExpression":
			return true
		case "BinaryExpression", "LogicalExpression", "AssignmentExpression":
			n = n.Child("left")
		case "CallExpression":
			n = n.Child("callee")
		case "MemberExpression":
			n = n.Child("object")
		case "ConditionalExpression":
			n = n.Child("test")
		case "SequenceExpression":
			n = n.Child("expressions").Elems[0]
		case "UpdateExpression":
			if n.Bool("prefix") {
				return false
			}

			n = n.Child("argument")
		default:
			return false
		}
	}

	return false
}

func precOf(n *tree.Node) int {
	switch n.Type {
	case "SequenceExpression":
		return precSequence
	case "AssignmentExpression", "ArrowFunctionExpression":
		return precAssign
	case "ConditionalExpression":
		return precConditional
	case "BinaryExpression", "LogicalExpression":
		return binaryPrec[n.Str("operator")]
	case "UnaryExpression":
		return precUnary
	case "UpdateExpression":
		if n.Bool("prefix") {
			return precUnary
		}

		return precPostfix
	case "CallExpression", "MemberExpression", "NewExpression":
		return precCall
	}

	return precPrimary
}

// expr prints n, wrapping it in parentheses when it binds looser than least.
func (p *Printer) expr(n *tree.Node, least int) {
	if n.IsNull() {
		return
	}

	if precOf(n) < least {
		p.write("(")
		defer p.write(")")
	}

	switch n.Type {
	case "Identifier":
		p.write(n.Str("name"))
	case "NumericLiteral":
		d, _ := n.Num("value")
		p.write(d.String())
	case "StringLiteral":
		p.write(strconv.Quote(n.Str("value")))
	case "BooleanLiteral":
		p.write(strconv.FormatBool(n.Bool("value")))
	case "NullLiteral":
		p.write("null")
	case "ThisExpression":
		p.write("this")
	case "SequenceExpression":
		p.list(n.Child("expressions"), precAssign)
	case "AssignmentExpression":
		p.expr(n.Child("left"), precCall)
		p.write(n.Str("operator"))
		p.expr(n.Child("right"), precAssign)
	case "ConditionalExpression":
		p.expr(n.Child("test"), precCoalesce)
		p.write("?")
		p.expr(n.Child("consequent"), precAssign)
		p.write(":")
		p.expr(n.Child("alternate"), precAssign)
	case "BinaryExpression", "LogicalExpression":
		prec := binaryPrec[n.Str("operator")]
		p.expr(n.Child("left"), prec)
		p.write(n.Str("operator"))
		p.expr(n.Child("right"), prec+1)
	case "UnaryExpression":
		p.write(n.Str("operator"))
		p.expr(n.Child("argument"), precUnary)
	case "UpdateExpression":
		if n.Bool("prefix") {
			p.write(n.Str("operator"))
			p.expr(n.Child("argument"), precUnary)
		} else {
			p.expr(n.Child("argument"), precCall)
			p.write(n.Str("operator"))
		}
	case "CallExpression":
		p.expr(n.Child("callee"), precCall)
		p.write("(")
		p.list(n.Child("arguments"), precAssign)
		p.write(")")
	case "NewExpression":
		p.write("new")

		if callee := n.Child("callee"); callee.Type == "CallExpression" {
			p.write("(")
			p.expr(callee, precSequence)
			p.write(")")
		} else {
			p.expr(callee, precCall)
		}

		p.write("(")
		p.list(n.Child("arguments"), precAssign)
		p.write(")")
	case "MemberExpression":
		p.expr(n.Child("object"), precCall)

		if n.Bool("computed") {
			p.write("[")
			p.expr(n.Child("property"), precSequence)
			p.write("]")
		} else {
			p.write(".", n.Child("property").Str("name"))
		}
	case "FunctionExpression":
		p.function(n)
	case "ArrowFunctionExpression":
		p.arrow(n)
	case "ArrayExpression", "ArrayPattern":
		p.write("[")
		p.list(n.Child("elements"), precAssign)
		p.write("]")
	case "ObjectExpression", "ObjectPattern":
		p.write("{")

		for i, prop := range n.Child("properties").Elems {
			if i > 0 {
				p.write(",")
			}

			p.property(prop)
		}

		p.write("}")
	case "SpreadElement", "RestElement":
		p.write("...")
		p.expr(n.Child("argument"), precAssign)
	case "AssignmentPattern":
		p.expr(n.Child("left"), precCall)
		p.write("=")
		p.expr(n.Child("right"), precAssign)
	default:
		p.statement(n)
	}
}

func (p *Printer) arrow(n *tree.Node) {
	params := n.Child("params")
	if len(params.Elems) == 1 && params.Elems[0].Type == "Identifier" {
		p.write(params.Elems[0].Str("name"))
	} else {
		p.params(params)
	}

	p.write("=>")

	body := n.Child("body")

	switch body.Type {
	case "BlockStatement":
		p.Node(body)
	case "ObjectExpression":
		p.write("(")
		p.expr(body, precAssign)
		p.write(")")
	default:
		p.expr(body, precAssign)
	}
}

func (p *Printer) property(n *tree.Node) {
	if n.Type != "ObjectProperty" {
		p.expr(n, precAssign)
		return
	}

	value := n.Child("value")

	if n.Bool("shorthand") {
		p.expr(value, precAssign)
		return
	}

	if n.Bool("computed") {
		p.write("[")
		p.expr(n.Child("key"), precAssign)
		p.write("]")
	} else {
		p.expr(n.Child("key"), precPrimary)
	}

	p.write(":")
	p.expr(value, precAssign)
}
