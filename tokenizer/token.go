package tokenizer

import "errors"

// Sentinel errors
var (
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedComment = errors.New("unterminated block comment")
	ErrInvalidNumber       = errors.New("invalid number format")
)

// TokenType represents the type of a token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	WHITESPACE
	IDENTIFIER  // names, including $ and _ prefixed ones
	KEYWORD     // reserved words
	STRING      // string literals ('text', "text")
	NUMBER      // numeric literals
	PUNCTUATOR  // operators and delimiters

	// Comments
	LINE_COMMENT  // // line comment
	BLOCK_COMMENT // /* block comment */
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case IDENTIFIER:
		return "IDENTIFIER"
	case KEYWORD:
		return "KEYWORD"
	case STRING:
		return "STRING"
	case NUMBER:
		return "NUMBER"
	case PUNCTUATOR:
		return "PUNCTUATOR"
	case LINE_COMMENT:
		return "LINE_COMMENT"
	case BLOCK_COMMENT:
		return "BLOCK_COMMENT"
	default:
		return "UNKNOWN"
	}
}

// keywords are the reserved words of the supported subset. Contextual words
// like "of" stay identifiers.
var keywords = map[string]bool{
	"break": true, "catch": true, "const": true, "continue": true,
	"delete": true, "else": true, "false": true, "finally": true,
	"for": true, "function": true, "if": true, "in": true,
	"instanceof": true, "let": true, "new": true, "null": true,
	"return": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true,
	"while": true,
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	return keywords[word]
}

// punctuators are ordered longest first for maximal munch.
var punctuators = []string{
	"===", "!==", "...", "||=", "&&=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "++", "--",
	"+=", "-=", "*=", "/=", "%=",
	"{", "}", "(", ")", "[", "]", ";", ",", ".", "<", ">",
	"+", "-", "*", "/", "%", "!", "=", "?", ":",
}

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// Is reports whether t is the punctuator or keyword value.
func (t Token) Is(value string) bool {
	return (t.Type == PUNCTUATOR || t.Type == KEYWORD) && t.Value == value
}
