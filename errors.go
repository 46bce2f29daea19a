package estream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shibukawa/estream/tree"
)

// Common errors used throughout the estream packages
var (
	// ErrKindMismatch is returned when a tag name is interned again with a different kind.
	// Schema errors
	ErrKindMismatch = errors.New("tag already registered with a different kind")
	// ErrUnsupportedValidator indicates a schema field whose validator shape is not understood.
	ErrUnsupportedValidator = errors.New("unsupported field validator")
	// ErrUnknownNodeType indicates a schema reference to a type or alias that is never declared.
	ErrUnknownNodeType = errors.New("unknown node type in schema")
	// ErrFrozen is returned when a new tag is requested from a built registry.
	ErrFrozen = errors.New("registry is frozen")
	// ErrInvalidSchema indicates the schema document itself is malformed.
	ErrInvalidSchema = errors.New("invalid schema document")

	// ErrUnbalanced indicates a close event without a matching open or an unterminated open.
	// Structural errors
	ErrUnbalanced = errors.New("unbalanced event stream")
	// ErrDepthMismatch indicates a close event carrying a value different from its open.
	ErrDepthMismatch = errors.New("close event does not match open event")
	// ErrUnknownType indicates an event or node whose type is not a registered node type.
	ErrUnknownType = errors.New("unknown node type")
	// ErrUnexpectedType indicates a child whose type the field does not permit.
	ErrUnexpectedType = errors.New("node type not permitted at position")
	// ErrNotOpen is returned when a layer operation requires an open event and got something else.
	ErrNotOpen = errors.New("expected an open event")
	// ErrPositionNotFound indicates a required child position is absent at the current level.
	ErrPositionNotFound = errors.New("position not found")

	// ErrDuplicateDeclaration indicates two strict declarations of one name in the same block.
	// Binding errors
	ErrDuplicateDeclaration = errors.New("identifier has already been declared")

	// ErrMissingPlaceholder indicates a template without the refocus point a caller asked for.
	// Pattern errors
	ErrMissingPlaceholder = errors.New("template has no more refocus points")
	// ErrUnknownPlaceholder indicates a template placeholder with no substitution supplied.
	ErrUnknownPlaceholder = errors.New("template placeholder has no substitution")
	// ErrBadPattern indicates a pattern that cannot be matched (too short, unparsable).
	ErrBadPattern = errors.New("invalid pattern")
	// ErrBadGuard indicates a pattern guard expression that does not compile to a boolean.
	ErrBadGuard = errors.New("invalid pattern guard")
	// ErrNoFragmentParser is returned when a fragment is requested and no parser was configured.
	ErrNoFragmentParser = errors.New("no fragment parser configured")
)

// ErrorKind classifies engine errors.
type ErrorKind int

const (
	SchemaError ErrorKind = iota
	StructuralError
	BindingError
	PatternError
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case SchemaError:
		return "schema error"
	case StructuralError:
		return "structural error"
	case BindingError:
		return "binding error"
	case PatternError:
		return "pattern error"
	default:
		return "unknown error"
	}
}

// Error is the error value raised by the engine. Err holds one of the
// sentinel errors above so callers can test it with errors.Is.
type Error struct {
	Kind ErrorKind
	Err  error
	Msg  string
	// Pos and Type name the event position and type involved, if any.
	Pos  string
	Type string
	Node *tree.Node
	// Related is a second node involved, like the earlier of two
	// conflicting declarations.
	Related *tree.Node
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}

	if e.Type != "" || e.Pos != "" {
		fmt.Fprintf(&b, " (type=%s pos=%s)", e.Type, e.Pos)
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, sentinel error, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: sentinel, Msg: fmt.Sprintf(format, args...)}
}

// Raise panics with an *Error. Lazy iterators use it to abort a pipeline;
// Recover turns the panic back into an error at the API boundary.
func Raise(e *Error) {
	panic(e)
}

// Recover is deferred by pipeline drivers. It stores a raised *Error into
// errp and lets every other panic continue.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}

	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}

	panic(r)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}

// AsError returns err as an *Error, wrapping foreign errors as structural
// errors so they can be raised.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{Kind: StructuralError, Err: err}
}
