package schema

import (
	"github.com/shibukawa/estream/tree"
)

// Atomic attribute kinds.
const (
	AtomicString  = "string"
	AtomicBoolean = "boolean"
	AtomicNumber  = "number"
	AtomicAny     = "any"
)

// Field describes one position of a node type. Fields are built once by the
// registry and never change afterwards.
type Field struct {
	Name string
	Pos  Tag
	// Atomic is the attribute kind for non-node fields, empty otherwise.
	Atomic    string
	Enum      []string
	Default   any
	NodeTypes []Tag
	Nullable  bool
	// Elem describes the elements of an array field.
	Elem *Field

	IsArray        bool
	IsArrayElement bool
	IsExpr         bool
	IsStmt         bool
	IsBlock        bool
	IsKey          bool
	IsLval         bool
	IsDecl         bool
	// Binding marks declaration sites; Param marks function parameters.
	Binding bool
	Param   bool

	permits map[Tag]bool
}

// IsNode reports whether the field holds tree nodes.
func (f *Field) IsNode() bool {
	return f.Atomic == ""
}

// Permits reports whether a node of type typ may be stored here. Alias
// membership is followed.
func (f *Field) Permits(typ Tag) bool {
	if f.IsArray {
		return typ == ArrayTag
	}

	if typ == NullTag {
		return f.Nullable || f.IsArrayElement
	}

	return f.permits[typ]
}

// Class is the classification derived from a type's aliases.
type Class struct {
	IsExpr          bool
	IsStmt          bool
	IsBlock         bool
	IsDecl          bool
	IsFunction      bool
	IsLval          bool
	IsScopeBoundary bool
	IsFunctionScope bool
}

// TypeInfo is the registry entry of a node type.
type TypeInfo struct {
	Tag     Tag
	Name    string
	Visit   []Tag
	Builder []string
	Aliases []Tag
	Fields  map[Tag]*Field
	// Attrs lists atomic field names in declaration-independent sorted order.
	Attrs    []string
	Variants []*Variant
	Class    Class
}

// Variant overrides descriptors when the discriminant attribute matches.
type Variant struct {
	Field  string
	Equals any
	Fields map[Tag]*Field
}

func (v *Variant) selects(n *tree.Node) bool {
	if n == nil {
		return false
	}

	return tree.AttrEqual(n.Fields[v.Field], v.Equals)
}

// IsLeaf reports whether nodes of this type never have children.
func (t *TypeInfo) IsLeaf() bool {
	return len(t.Visit) == 0
}
