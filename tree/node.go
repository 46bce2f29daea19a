// Package tree holds the in-memory syntax tree values the engine produces
// events from and consumes events into.
package tree

import (
	"github.com/shopspring/decimal"
)

// Kind distinguishes the shapes a tree value can take.
type Kind uint8

const (
	// Object is a typed node with named fields.
	Object Kind = iota
	// Array is an ordered list of child nodes.
	Array
	// Null marks an explicitly empty slot inside an array.
	Null
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Array:
		return "array"
	case Null:
		return "null"
	default:
		return "unknown"
	}
}

// Node is one tree value. Object nodes keep children (*Node) and atomic
// attributes (string, bool, decimal.Decimal, nil) in Fields; arrays keep
// their elements in Elems.
type Node struct {
	Kind   Kind
	Type   string
	Fields map[string]any
	Elems  []*Node
}

// New creates an object node of the given type.
func New(typ string) *Node {
	return &Node{Kind: Object, Type: typ, Fields: map[string]any{}}
}

// NewArray creates an array node.
func NewArray(elems ...*Node) *Node {
	return &Node{Kind: Array, Elems: elems}
}

// NewNull creates a null slot.
func NewNull() *Node {
	return &Node{Kind: Null}
}

// Set assigns a field and returns the node for chaining.
func (n *Node) Set(name string, v any) *Node {
	if n.Fields == nil {
		n.Fields = map[string]any{}
	}

	if c, ok := v.(*Node); ok && c == nil {
		delete(n.Fields, name)
		return n
	}

	n.Fields[name] = v

	return n
}

// Child returns the child node stored at name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}

	c, _ := n.Fields[name].(*Node)

	return c
}

// Str returns a string attribute.
func (n *Node) Str(name string) string {
	if n == nil {
		return ""
	}

	s, _ := n.Fields[name].(string)

	return s
}

// Bool returns a boolean attribute.
func (n *Node) Bool(name string) bool {
	if n == nil {
		return false
	}

	b, _ := n.Fields[name].(bool)

	return b
}

// Num returns a numeric attribute.
func (n *Node) Num(name string) (decimal.Decimal, bool) {
	if n == nil {
		return decimal.Decimal{}, false
	}

	d, ok := n.Fields[name].(decimal.Decimal)

	return d, ok
}

// IsNull reports whether n is absent or an explicit null slot.
func (n *Node) IsNull() bool {
	return n == nil || n.Kind == Null
}

// ShallowCopy copies the node and its field map; children are shared.
func (n *Node) ShallowCopy() *Node {
	if n == nil {
		return nil
	}

	c := &Node{Kind: n.Kind, Type: n.Type}
	if n.Fields != nil {
		c.Fields = make(map[string]any, len(n.Fields))
		for k, v := range n.Fields {
			c.Fields[k] = v
		}
	}

	if n.Elems != nil {
		c.Elems = append([]*Node(nil), n.Elems...)
	}

	return c
}

// DeepCopy copies the whole subtree.
func (n *Node) DeepCopy() *Node {
	if n == nil {
		return nil
	}

	c := n.ShallowCopy()
	for k, v := range c.Fields {
		if ch, ok := v.(*Node); ok {
			c.Fields[k] = ch.DeepCopy()
		}
	}

	for i, e := range c.Elems {
		c.Elems[i] = e.DeepCopy()
	}

	return c
}
