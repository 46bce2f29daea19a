package parser

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	pc "github.com/shibukawa/parsercombinator"

	tok "github.com/shibukawa/estream/tokenizer"
	"github.com/shibukawa/estream/tree"
)

// Entity is the value flowing through the combinators. Raw tokens carry
// Original; built tokens carry Node.
type Entity struct {
	Original tok.Token
	Node     *tree.Node
}

type (
	parser = pc.Parser[Entity]
	token  = pc.Token[Entity]
)

// toParserToken wraps lexer tokens for the combinators. EOF is left out so
// EOS matches an empty remainder.
func toParserToken(tokens []tok.Token) []token {
	results := make([]token, 0, len(tokens))

	for _, t := range tokens {
		if t.Type == tok.EOF {
			continue
		}

		results = append(results, token{
			Type: "raw",
			Pos: &pc.Pos{
				Line:  t.Position.Line,
				Col:   t.Position.Column,
				Index: t.Position.Offset,
			},
			Val: Entity{Original: t},
			Raw: t.Value,
		})
	}

	return results
}

func one(node *tree.Node, tokens []token) []token {
	var pos *pc.Pos
	if len(tokens) > 0 {
		pos = tokens[0].Pos
	}

	return []token{{Type: "node", Pos: pos, Val: Entity{Node: node}}}
}

// build turns the matched tokens of p into a single node token.
func build(p parser, fn func(tokens []token) *tree.Node) parser {
	return pc.Trans(p, func(pctx *pc.ParseContext[Entity], tokens []token) ([]token, error) {
		return one(fn(tokens), tokens), nil
	})
}

func primitive(match func(t tok.Token) bool) parser {
	return func(pctx *pc.ParseContext[Entity], tokens []token) (int, []token, error) {
		if len(tokens) > 0 && tokens[0].Val.Node == nil && match(tokens[0].Val.Original) {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

func punct(values ...string) parser {
	return primitive(func(t tok.Token) bool {
		return t.Type == tok.PUNCTUATOR && slices.Contains(values, t.Value)
	})
}

func keyword(values ...string) parser {
	return primitive(func(t tok.Token) bool {
		return t.Type == tok.KEYWORD && slices.Contains(values, t.Value)
	})
}

// contextual matches an identifier used as a keyword in one position.
func contextual(value string) parser {
	return primitive(func(t tok.Token) bool {
		return t.Type == tok.IDENTIFIER && t.Value == value
	})
}

func tokenType(types ...tok.TokenType) parser {
	return primitive(func(t tok.Token) bool {
		return slices.Contains(types, t.Type)
	})
}

// slot always succeeds with exactly one token; its Node is nil when p did
// not match. It keeps token positions stable in Seq results.
func slot(p parser) parser {
	return func(pctx *pc.ParseContext[Entity], tokens []token) (int, []token, error) {
		n, out, err := p(pctx, tokens)
		if err != nil {
			if errors.Is(err, pc.ErrCritical) {
				return 0, nil, err
			}

			return 0, []token{{Type: "empty"}}, nil
		}

		return n, out, nil
	}
}

// list matches item ("," item)* with an optional trailing comma and
// yields the item tokens only.
func list(item parser) parser {
	return pc.Optional(pc.Seq(
		item,
		pc.ZeroOrMore("list item", pc.Seq(pc.Drop(punct(",")), item)),
		pc.Optional(pc.Drop(punct(","))),
	))
}

func nodes(tokens []token) []*tree.Node {
	res := make([]*tree.Node, 0, len(tokens))
	for _, t := range tokens {
		if t.Val.Node != nil {
			res = append(res, t.Val.Node)
		}
	}

	return res
}

func is(tokens []token, values ...string) bool {
	if len(tokens) == 0 || tokens[0].Val.Node != nil {
		return false
	}

	t := tokens[0].Val.Original

	return (t.Type == tok.PUNCTUATOR || t.Type == tok.KEYWORD) && slices.Contains(values, t.Value)
}

// unquote decodes a quoted string literal.
func unquote(raw string) (string, error) {
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder

	for len(body) > 0 {
		if body[0] == '\'' || body[0] == '"' {
			b.WriteByte(body[0])
			body = body[1:]

			continue
		}

		if strings.HasPrefix(body, `\'`) {
			b.WriteByte('\'')
			body = body[2:]

			continue
		}

		r, _, tail, err := strconv.UnquoteChar(body, '"')
		if err != nil {
			return "", err
		}

		b.WriteRune(r)
		body = tail
	}

	return b.String(), nil
}
