// Package parser reads the ECMAScript subset described by the estree
// grammar into tree nodes. It is the fragment parser behind templates and
// match patterns and the front end of the command line tool.
package parser

import (
	"errors"
	"fmt"

	pc "github.com/shibukawa/parsercombinator"

	tok "github.com/shibukawa/estream/tokenizer"
	"github.com/shibukawa/estream/tree"
)

// Sentinel errors
var (
	ErrSyntax        = errors.New("syntax error")
	ErrUnexpectedEnd = errors.New("unexpected end of input")
)

// Parser implements kit.FragmentParser.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse parses src into a File node.
func (p *Parser) Parse(src string) (*tree.Node, error) {
	return Parse(src)
}

// Parse parses a whole source text into a File node.
func Parse(src string) (*tree.Node, error) {
	body, err := parseStatements(src)
	if err != nil {
		return nil, err
	}

	prog := tree.New("Program").
		Set("body", tree.NewArray(body...)).
		Set("sourceType", "script")

	return tree.New("File").Set("program", prog), nil
}

// ParseExpression parses src as a single expression.
func ParseExpression(src string) (*tree.Node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	pctx := newContext()

	n, out, err := expression(pctx, tokens)
	if err != nil {
		return nil, syntaxError(tokens, 0, err)
	}

	if n != len(tokens) {
		return nil, syntaxError(tokens, n, nil)
	}

	return out[0].Val.Node, nil
}

func parseStatements(src string) ([]*tree.Node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	pctx := newContext()

	n, out, err := program(pctx, tokens)
	if err != nil && !errors.Is(err, pc.ErrNotMatch) {
		return nil, syntaxError(tokens, n, err)
	}

	if n != len(tokens) {
		return nil, syntaxError(tokens, n, nil)
	}

	return nodes(out), nil
}

func lex(src string) ([]token, error) {
	raw, err := tok.NewTokenizer(src, tok.TokenizerOptions{
		SkipWhitespace: true,
		SkipComments:   true,
	}).AllTokens()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	return toParserToken(raw), nil
}

func newContext() *pc.ParseContext[Entity] {
	pctx := pc.NewParseContext[Entity]()
	pctx.OrMode = pc.OrModeTryFast

	return pctx
}

func syntaxError(tokens []token, at int, cause error) error {
	if at >= len(tokens) {
		if cause != nil {
			return fmt.Errorf("%w: %w", ErrUnexpectedEnd, cause)
		}

		return ErrUnexpectedEnd
	}

	t := tokens[at].Val.Original
	if cause != nil {
		return fmt.Errorf("%w: unexpected %q at line %d, column %d: %w", ErrSyntax, t.Value, t.Position.Line, t.Position.Column, cause)
	}

	return fmt.Errorf("%w: unexpected %q at line %d, column %d", ErrSyntax, t.Value, t.Position.Line, t.Position.Column)
}
