// Package schema builds the type registry a tree grammar is described by:
// interned tags, per-type field descriptors and derived classifications.
package schema

import (
	"fmt"

	"github.com/shibukawa/estream"
)

// Tag is an interned name. Two tags from the same registry are equal iff
// they were interned from the same name.
type Tag uint32

// Kind classifies a tag.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindType is a concrete node type.
	KindType
	// KindPosition is a field position inside a parent node.
	KindPosition
	// KindArray is the container type of array values.
	KindArray
	// KindNull is the type of explicit null slots.
	KindNull
	// KindControl marks engine-internal events that carry no tree value.
	KindControl
	// KindAlias is a supertype name grouping node types.
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindPosition:
		return "position"
	case KindArray:
		return "array"
	case KindNull:
		return "null"
	case KindControl:
		return "control"
	case KindAlias:
		return "alias"
	default:
		return "invalid"
	}
}

// Builtin tags every registry starts with.
const (
	Invalid Tag = iota
	// Top is the position of a root value.
	Top
	// Push is the position of array elements.
	Push
	// ArrayTag is the type of array values.
	ArrayTag
	// NullTag is the type of null slots.
	NullTag
	// Subst brackets events that must be spliced into the enclosing position.
	Subst
	// MatchRoot marks where a pattern match starts and ends.
	MatchRoot
	// MatchPlaceholder brackets a pattern capture.
	MatchPlaceholder
)

var builtins = []struct {
	name string
	kind Kind
}{
	{"", KindInvalid},
	{"top", KindPosition},
	{"push", KindPosition},
	{"Array", KindArray},
	{"Null", KindNull},
	{"Subst", KindControl},
	{"Match", KindControl},
	{"Placeholder", KindControl},
}

type tagEntry struct {
	name string
	kind Kind
}

// arena owns interned tag names.
type arena struct {
	tags   []tagEntry
	byName map[string]Tag
	frozen bool
}

func newArena() arena {
	a := arena{byName: map[string]Tag{}}
	for _, b := range builtins {
		a.byName[b.name] = Tag(len(a.tags))
		a.tags = append(a.tags, tagEntry{name: b.name, kind: b.kind})
	}

	return a
}

func (a *arena) intern(name string, kind Kind) (Tag, error) {
	if t, ok := a.byName[name]; ok {
		if a.tags[t].kind != kind {
			return Invalid, &estream.Error{
				Kind: estream.SchemaError,
				Err:  estream.ErrKindMismatch,
				Msg:  fmt.Sprintf("%q is a %s, not a %s", name, a.tags[t].kind, kind),
			}
		}

		return t, nil
	}

	if a.frozen {
		return Invalid, estream.Errorf(estream.SchemaError, estream.ErrFrozen, "cannot intern %q", name)
	}

	t := Tag(len(a.tags))
	a.tags = append(a.tags, tagEntry{name: name, kind: kind})
	a.byName[name] = t

	return t, nil
}
