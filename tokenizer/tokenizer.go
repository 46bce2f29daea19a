package tokenizer

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// Tokenizer is a tokenizer that returns an iterator
type Tokenizer struct {
	input   string
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	SkipComments   bool
}

// NewTokenizer creates a new Tokenizer
func NewTokenizer(input string, options ...TokenizerOptions) *Tokenizer {
	opts := TokenizerOptions{}
	if len(options) > 0 {
		opts = options[0]
	}

	return &Tokenizer{
		input:   input,
		options: opts,
	}
}

// Tokens returns an iterator of tokens. A lexical error is yielded once and
// ends the sequence.
func (t *Tokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		lex := &tokenizer{input: t.input, line: 1, column: 1}
		lex.readChar()

		for {
			token, err := lex.nextToken()
			if err != nil {
				yield(Token{}, err)
				return
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}

			if t.options.SkipComments && (token.Type == LINE_COMMENT || token.Type == BLOCK_COMMENT) {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice
func (t *Tokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 64)

	for token, err := range t.Tokens() {
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

// Internal tokenizer implementation
type tokenizer struct {
	input    string
	position int
	line     int
	column   int
	current  rune
}

// nextToken gets the next token
func (t *tokenizer) nextToken() (Token, error) {
	switch t.current {
	case 0:
		return Token{Type: EOF, Position: t.start()}, nil
	case ' ', '\t', '\r', '\n':
		return t.readWhitespace(), nil
	case '\'', '"':
		return t.readString(t.current)
	case '/':
		switch t.peekChar() {
		case '/':
			return t.readLineComment(), nil
		case '*':
			return t.readBlockComment()
		}
	}

	switch {
	case isIdentStart(t.current):
		return t.readWord(), nil
	case unicode.IsDigit(t.current):
		return t.readNumber()
	}

	return t.readPunctuator()
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// readChar reads the next character
func (t *tokenizer) readChar() {
	if t.position >= len(t.input) {
		t.current = 0
		t.position++

		return
	}

	t.current = rune(t.input[t.position])
	t.position++

	if t.current == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
}

// peekChar looks ahead at the next character
func (t *tokenizer) peekChar() rune {
	if t.position >= len(t.input) {
		return 0
	}

	return rune(t.input[t.position])
}

func (t *tokenizer) start() Position {
	return Position{Line: t.line, Column: t.column - 1, Offset: t.position - 1}
}

// since returns the source text from offset to the current character.
func (t *tokenizer) since(offset int) string {
	return t.input[offset : t.position-1]
}

func (t *tokenizer) skipWhile(pred func(rune) bool) {
	for t.current != 0 && pred(t.current) {
		t.readChar()
	}
}

func (t *tokenizer) readWhitespace() Token {
	pos := t.start()
	t.skipWhile(unicode.IsSpace)

	return Token{Type: WHITESPACE, Value: t.since(pos.Offset), Position: pos}
}

// readWord reads identifiers and keywords
func (t *tokenizer) readWord() Token {
	pos := t.start()
	t.skipWhile(isIdentPart)

	word := t.since(pos.Offset)

	kind := IDENTIFIER
	if keywords[word] {
		kind = KEYWORD
	}

	return Token{Type: kind, Value: word, Position: pos}
}

// readString keeps the quotes and escapes of the literal.
func (t *tokenizer) readString(delimiter rune) (Token, error) {
	pos := t.start()
	t.readChar()

	for t.current != 0 && t.current != delimiter && t.current != '\n' {
		if t.current == '\\' {
			t.readChar()
		}

		if t.current != 0 {
			t.readChar()
		}
	}

	if t.current != delimiter {
		return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedString, delimiter, pos.Line, pos.Column)
	}

	t.readChar()

	return Token{Type: STRING, Value: t.since(pos.Offset), Position: pos}, nil
}

// readNumber accepts digits with an optional fraction and exponent.
func (t *tokenizer) readNumber() (Token, error) {
	pos := t.start()
	t.skipWhile(unicode.IsDigit)

	if t.current == '.' && unicode.IsDigit(t.peekChar()) {
		t.readChar()
		t.skipWhile(unicode.IsDigit)
	}

	if t.current == 'e' || t.current == 'E' {
		t.readChar()

		if t.current == '+' || t.current == '-' {
			t.readChar()
		}

		if !unicode.IsDigit(t.current) {
			return Token{}, fmt.Errorf("%w: invalid exponent at line %d, column %d", ErrInvalidNumber, pos.Line, pos.Column)
		}

		t.skipWhile(unicode.IsDigit)
	}

	if isIdentStart(t.current) {
		return Token{}, fmt.Errorf("%w: %q follows a number at line %d, column %d", ErrInvalidNumber, t.current, pos.Line, pos.Column)
	}

	return Token{Type: NUMBER, Value: t.since(pos.Offset), Position: pos}, nil
}

func (t *tokenizer) readLineComment() Token {
	pos := t.start()
	t.skipWhile(func(r rune) bool { return r != '\n' })

	return Token{Type: LINE_COMMENT, Value: t.since(pos.Offset), Position: pos}
}

func (t *tokenizer) readBlockComment() (Token, error) {
	pos := t.start()

	end := strings.Index(t.input[pos.Offset+2:], "*/")
	if end < 0 {
		return Token{}, fmt.Errorf("%w at line %d, column %d", ErrUnterminatedComment, pos.Line, pos.Column)
	}

	for range end + 4 {
		t.readChar()
	}

	return Token{Type: BLOCK_COMMENT, Value: t.since(pos.Offset), Position: pos}, nil
}

// readPunctuator reads the longest operator or delimiter at the cursor
func (t *tokenizer) readPunctuator() (Token, error) {
	pos := t.start()
	rest := t.input[pos.Offset:]

	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			for range len(p) {
				t.readChar()
			}

			return Token{Type: PUNCTUATOR, Value: p, Position: pos}, nil
		}
	}

	return Token{}, fmt.Errorf("%w: %q at line %d, column %d", ErrUnexpectedCharacter, t.current, pos.Line, pos.Column)
}
