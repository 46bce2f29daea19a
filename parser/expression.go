package parser

import (
	"fmt"
	"slices"

	pc "github.com/shibukawa/parsercombinator"
	"github.com/shopspring/decimal"

	tok "github.com/shibukawa/estream/tokenizer"
	"github.com/shibukawa/estream/tree"
)

var (
	expression     parser
	assignment     parser
	pattern        parser
	primary        parser
	call           parser
	identifier     parser
	identifierName parser
	arguments      parser
	params         parser
	block          parser
)

var (
	unaryOps  = []string{"!", "-", "+", "typeof", "void", "delete"}
	updateOps = []string{"++", "--"}
	assignOps = []string{"=", "+=", "-=", "*=", "/=", "%=", "||=", "&&=", "??="}

	// precedence of binary operators, loosest first
	precedence = map[string]int{
		"??": 1,
		"||": 2,
		"&&": 3,
		"==": 4, "!=": 4, "===": 4, "!==": 4,
		"<": 5, ">": 5, "<=": 5, ">=": 5, "instanceof": 5, "in": 5,
		"+": 6, "-": 6,
		"*": 7, "/": 7, "%": 7,
	}
	logical = []string{"??", "||", "&&"}
)

func lazy(p *parser) parser {
	return pc.Lazy(func() parser { return *p })
}

func name(tokens []token) *tree.Node {
	return tree.New("Identifier").Set("name", tokens[0].Val.Original.Value)
}

func init() {
	identifier = build(tokenType(tok.IDENTIFIER), name)
	identifierName = build(tokenType(tok.IDENTIFIER, tok.KEYWORD), name)

	number := pc.Trans(tokenType(tok.NUMBER), func(pctx *pc.ParseContext[Entity], tokens []token) ([]token, error) {
		t := tokens[0].Val.Original

		d, err := decimal.NewFromString(t.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q at line %d, column %d: %w", pc.ErrCritical, t.Value, t.Position.Line, t.Position.Column, err)
		}

		return one(tree.New("NumericLiteral").Set("value", d), tokens), nil
	})

	str := pc.Trans(tokenType(tok.STRING), func(pctx *pc.ParseContext[Entity], tokens []token) ([]token, error) {
		t := tokens[0].Val.Original

		s, err := unquote(t.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: string %s at line %d, column %d: %w", pc.ErrCritical, t.Value, t.Position.Line, t.Position.Column, err)
		}

		return one(tree.New("StringLiteral").Set("value", s), tokens), nil
	})

	literal := build(keyword("this", "null", "true", "false"), func(tokens []token) *tree.Node {
		switch v := tokens[0].Val.Original.Value; v {
		case "this":
			return tree.New("ThisExpression")
		case "null":
			return tree.New("NullLiteral")
		default:
			return tree.New("BooleanLiteral").Set("value", v == "true")
		}
	})

	paren := build(
		pc.Seq(pc.Drop(punct("(")), lazy(&expression), pc.Drop(punct(")"))),
		func(tokens []token) *tree.Node { return tokens[0].Val.Node },
	)

	spread := build(
		pc.Seq(pc.Drop(punct("...")), lazy(&assignment)),
		func(tokens []token) *tree.Node {
			return tree.New("SpreadElement").Set("argument", tokens[0].Val.Node)
		},
	)

	element := pc.Or(spread, lazy(&assignment))

	array := build(
		pc.Seq(pc.Drop(punct("[")), list(element), pc.Drop(punct("]"))),
		func(tokens []token) *tree.Node {
			return tree.New("ArrayExpression").Set("elements", tree.NewArray(nodes(tokens)...))
		},
	)

	key := pc.Or(identifierName, str, number)

	property := pc.Or(
		spread,
		build(
			pc.Seq(pc.Drop(punct("[")), lazy(&assignment), pc.Drop(punct("]")), pc.Drop(punct(":")), lazy(&assignment)),
			func(tokens []token) *tree.Node {
				return tree.New("ObjectProperty").
					Set("key", tokens[0].Val.Node).
					Set("value", tokens[1].Val.Node).
					Set("computed", true)
			},
		),
		build(
			pc.Seq(key, pc.Drop(punct(":")), lazy(&assignment)),
			func(tokens []token) *tree.Node {
				return tree.New("ObjectProperty").
					Set("key", tokens[0].Val.Node).
					Set("value", tokens[1].Val.Node)
			},
		),
		build(identifier, func(tokens []token) *tree.Node {
			id := tokens[0].Val.Node

			return tree.New("ObjectProperty").
				Set("key", id).
				Set("value", id.DeepCopy()).
				Set("shorthand", true)
		}),
	)

	object := build(
		pc.Seq(pc.Drop(punct("{")), list(property), pc.Drop(punct("}"))),
		func(tokens []token) *tree.Node {
			return tree.New("ObjectExpression").Set("properties", tree.NewArray(nodes(tokens)...))
		},
	)

	// patterns

	rest := build(
		pc.Seq(pc.Drop(punct("...")), lazy(&pattern)),
		func(tokens []token) *tree.Node {
			return tree.New("RestElement").Set("argument", tokens[0].Val.Node)
		},
	)

	binding := build(
		pc.Seq(lazy(&pattern), slot(pc.Seq(pc.Drop(punct("=")), lazy(&assignment)))),
		func(tokens []token) *tree.Node {
			return withDefault(tokens[0].Val.Node, tokens[1].Val.Node)
		},
	)

	patternProperty := pc.Or(
		rest,
		build(
			pc.Seq(key, pc.Drop(punct(":")), binding),
			func(tokens []token) *tree.Node {
				return tree.New("ObjectProperty").
					Set("key", tokens[0].Val.Node).
					Set("value", tokens[1].Val.Node)
			},
		),
		build(
			pc.Seq(identifier, slot(pc.Seq(pc.Drop(punct("=")), lazy(&assignment)))),
			func(tokens []token) *tree.Node {
				id := tokens[0].Val.Node

				return tree.New("ObjectProperty").
					Set("key", id).
					Set("value", withDefault(id.DeepCopy(), tokens[1].Val.Node)).
					Set("shorthand", true)
			},
		),
	)

	pattern = pc.Or(
		identifier,
		build(
			pc.Seq(pc.Drop(punct("[")), list(pc.Or(rest, binding)), pc.Drop(punct("]"))),
			func(tokens []token) *tree.Node {
				return tree.New("ArrayPattern").Set("elements", tree.NewArray(nodes(tokens)...))
			},
		),
		build(
			pc.Seq(pc.Drop(punct("{")), list(patternProperty), pc.Drop(punct("}"))),
			func(tokens []token) *tree.Node {
				return tree.New("ObjectPattern").Set("properties", tree.NewArray(nodes(tokens)...))
			},
		),
	)

	// functions

	params = build(
		pc.Seq(pc.Drop(punct("(")), list(pc.Or(rest, binding)), pc.Drop(punct(")"))),
		func(tokens []token) *tree.Node { return tree.NewArray(nodes(tokens)...) },
	)

	block = build(
		pc.Seq(pc.Drop(punct("{")), pc.ZeroOrMore("statement", lazy(&statement)), pc.Drop(punct("}"))),
		func(tokens []token) *tree.Node {
			return tree.New("BlockStatement").Set("body", tree.NewArray(nodes(tokens)...))
		},
	)

	function := build(
		pc.Seq(pc.Drop(keyword("function")), slot(identifier), params, block),
		func(tokens []token) *tree.Node {
			return tree.New("FunctionExpression").
				Set("id", tokens[0].Val.Node).
				Set("params", tokens[1].Val.Node).
				Set("body", tokens[2].Val.Node)
		},
	)

	arrow := build(
		pc.Seq(
			pc.Or(params, build(identifier, func(tokens []token) *tree.Node { return tree.NewArray(tokens[0].Val.Node) })),
			pc.Drop(punct("=>")),
			pc.Or(block, lazy(&assignment)),
		),
		func(tokens []token) *tree.Node {
			body := tokens[1].Val.Node
			res := tree.New("ArrowFunctionExpression").
				Set("params", tokens[0].Val.Node).
				Set("body", body)

			if body.Type != "BlockStatement" {
				res.Set("expression", true)
			}

			return res
		},
	)

	arguments = build(
		pc.Seq(pc.Drop(punct("(")), list(element), pc.Drop(punct(")"))),
		func(tokens []token) *tree.Node { return tree.NewArray(nodes(tokens)...) },
	)

	newExpr := build(
		pc.Seq(pc.Drop(keyword("new")), chain(false), slot(arguments)),
		func(tokens []token) *tree.Node {
			args := tokens[1].Val.Node
			if args == nil {
				args = tree.NewArray()
			}

			return tree.New("NewExpression").
				Set("callee", tokens[0].Val.Node).
				Set("arguments", args)
		},
	)

	primary = pc.Or(paren, function, newExpr, array, object, literal, number, str, identifier)
	call = chain(true)
	assignment = pc.Trace("assignment", pc.Or(arrow, assign))

	expression = build(
		pc.Seq(assignment, pc.ZeroOrMore("sequence", pc.Seq(pc.Drop(punct(",")), assignment))),
		func(tokens []token) *tree.Node {
			if len(tokens) == 1 {
				return tokens[0].Val.Node
			}

			return tree.New("SequenceExpression").Set("expressions", tree.NewArray(nodes(tokens)...))
		},
	)
}

func withDefault(target, def *tree.Node) *tree.Node {
	if def == nil {
		return target
	}

	return tree.New("AssignmentPattern").Set("left", target).Set("right", def)
}

// chain parses a primary expression followed by member accesses and, when
// calls is set, call arguments.
func chain(calls bool) parser {
	return func(pctx *pc.ParseContext[Entity], tokens []token) (int, []token, error) {
		n, out, err := primary(pctx, tokens)
		if err != nil {
			return 0, nil, err
		}

		node := out[0].Val.Node

		for {
			rest := tokens[n:]

			switch {
			case is(rest, "."):
				c, prop, err := identifierName(pctx, rest[1:])
				if err != nil {
					return 0, nil, err
				}

				node = tree.New("MemberExpression").
					Set("object", node).
					Set("property", prop[0].Val.Node)
				n += 1 + c

			case is(rest, "["):
				c, prop, err := expression(pctx, rest[1:])
				if err != nil {
					return 0, nil, err
				}

				if !is(rest[1+c:], "]") {
					return 0, nil, pc.ErrNotMatch
				}

				node = tree.New("MemberExpression").
					Set("object", node).
					Set("property", prop[0].Val.Node).
					Set("computed", true)
				n += 2 + c

			case calls && is(rest, "("):
				c, args, err := arguments(pctx, rest)
				if err != nil {
					return 0, nil, err
				}

				node = tree.New("CallExpression").
					Set("callee", node).
					Set("arguments", args[0].Val.Node)
				n += c

			default:
				return n, one(node, tokens), nil
			}
		}
	}
}

func unary(pctx *pc.ParseContext[Entity], tokens []token) (int, []token, error) {
	if is(tokens, unaryOps...) || is(tokens, updateOps...) {
		op := tokens[0].Val.Original.Value

		c, arg, err := unary(pctx, tokens[1:])
		if err != nil {
			return 0, nil, err
		}

		typ := "UnaryExpression"
		if slices.Contains(updateOps, op) {
			typ = "UpdateExpression"
		}

		node := tree.New(typ).
			Set("operator", op).
			Set("argument", arg[0].Val.Node).
			Set("prefix", true)

		return 1 + c, one(node, tokens), nil
	}

	n, out, err := call(pctx, tokens)
	if err != nil {
		return 0, nil, err
	}

	if is(tokens[n:], updateOps...) {
		node := tree.New("UpdateExpression").
			Set("operator", tokens[n].Val.Original.Value).
			Set("argument", out[0].Val.Node).
			Set("prefix", false)

		return n + 1, one(node, tokens), nil
	}

	return n, out, nil
}

// binary climbs operator precedence starting at least.
func binary(least int) parser {
	return func(pctx *pc.ParseContext[Entity], tokens []token) (int, []token, error) {
		n, out, err := unary(pctx, tokens)
		if err != nil {
			return 0, nil, err
		}

		left := out[0].Val.Node

		for {
			rest := tokens[n:]
			if len(rest) == 0 {
				break
			}

			op := rest[0].Val.Original.Value

			prec, ok := precedence[op]
			if !ok || !is(rest, op) || prec < least {
				break
			}

			c, right, err := binary(prec+1)(pctx, rest[1:])
			if err != nil {
				return 0, nil, err
			}

			typ := "BinaryExpression"
			if slices.Contains(logical, op) {
				typ = "LogicalExpression"
			}

			left = tree.New(typ).
				Set("operator", op).
				Set("left", left).
				Set("right", right[0].Val.Node)
			n += 1 + c
		}

		return n, one(left, tokens), nil
	}
}

func conditional(pctx *pc.ParseContext[Entity], tokens []token) (int, []token, error) {
	n, out, err := binary(1)(pctx, tokens)
	if err != nil {
		return 0, nil, err
	}

	if !is(tokens[n:], "?") {
		return n, out, nil
	}

	c1, cons, err := assignment(pctx, tokens[n+1:])
	if err != nil {
		return 0, nil, err
	}

	if !is(tokens[n+1+c1:], ":") {
		return 0, nil, pc.ErrNotMatch
	}

	c2, alt, err := assignment(pctx, tokens[n+2+c1:])
	if err != nil {
		return 0, nil, err
	}

	node := tree.New("ConditionalExpression").
		Set("test", out[0].Val.Node).
		Set("consequent", cons[0].Val.Node).
		Set("alternate", alt[0].Val.Node)

	return n + 2 + c1 + c2, one(node, tokens), nil
}

func assign(pctx *pc.ParseContext[Entity], tokens []token) (int, []token, error) {
	n, out, err := conditional(pctx, tokens)
	if err != nil {
		return 0, nil, err
	}

	if !is(tokens[n:], assignOps...) {
		return n, out, nil
	}

	op := tokens[n].Val.Original.Value

	left := out[0].Val.Node
	if op == "=" {
		left = toPattern(left)
	}

	c, right, err := assignment(pctx, tokens[n+1:])
	if err != nil {
		return 0, nil, err
	}

	node := tree.New("AssignmentExpression").
		Set("operator", op).
		Set("left", left).
		Set("right", right[0].Val.Node)

	return n + 1 + c, one(node, tokens), nil
}

// toPattern reinterprets an expression parsed on the left of "=" as the
// pattern it stands for.
func toPattern(n *tree.Node) *tree.Node {
	switch n.Type {
	case "ObjectExpression":
		var props []*tree.Node

		for _, p := range n.Child("properties").Elems {
			if p.Type == "SpreadElement" {
				props = append(props, tree.New("RestElement").Set("argument", toPattern(p.Child("argument"))))
				continue
			}

			c := p.ShallowCopy()
			c.Set("value", toPattern(p.Child("value")))
			props = append(props, c)
		}

		return tree.New("ObjectPattern").Set("properties", tree.NewArray(props...))

	case "ArrayExpression":
		var elems []*tree.Node

		for _, e := range n.Child("elements").Elems {
			if e.Type == "SpreadElement" {
				elems = append(elems, tree.New("RestElement").Set("argument", toPattern(e.Child("argument"))))
				continue
			}

			elems = append(elems, toPattern(e))
		}

		return tree.New("ArrayPattern").Set("elements", tree.NewArray(elems...))

	case "AssignmentExpression":
		if n.Str("operator") == "=" {
			return withDefault(n.Child("left"), n.Child("right"))
		}
	}

	return n
}
