package markdownparser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidErrorType is returned when an invalid error type is specified
var ErrInvalidErrorType = errors.New("invalid error type")

// ErrorType names the class of failure a case expects
type ErrorType string

const (
	ErrorTypeSchema     ErrorType = "schema error"
	ErrorTypeStructural ErrorType = "structural error"
	ErrorTypeBinding    ErrorType = "binding error"
	ErrorTypePattern    ErrorType = "pattern error"
	ErrorTypeSyntax     ErrorType = "syntax error"
)

var validErrorTypes = map[ErrorType]bool{
	ErrorTypeSchema:     true,
	ErrorTypeStructural: true,
	ErrorTypeBinding:    true,
	ErrorTypePattern:    true,
	ErrorTypeSyntax:     true,
}

// normalizeErrorType normalizes error type strings to a canonical form
// - Converts to lowercase: "Binding Error" → "binding error"
// - Converts underscores and hyphens to spaces: "binding_error" → "binding error"
// - Collapses multiple spaces
func normalizeErrorType(input string) string {
	normalized := strings.ToLower(input)

	normalized = strings.ReplaceAll(normalized, "_", " ")
	normalized = strings.ReplaceAll(normalized, "-", " ")

	for strings.Contains(normalized, "  ") {
		normalized = strings.ReplaceAll(normalized, "  ", " ")
	}

	return strings.TrimSpace(normalized)
}

// ParseExpectedError parses and validates an error type string from a case.
// The " error" suffix may be left out.
func ParseExpectedError(content string) (ErrorType, error) {
	errorType := ErrorType(normalizeErrorType(content))
	if !strings.HasSuffix(string(errorType), " error") {
		errorType += " error"
	}

	if !validErrorTypes[errorType] {
		return "", fmt.Errorf("%w: %s (original: %s)", ErrInvalidErrorType, errorType, content)
	}

	return errorType, nil
}
