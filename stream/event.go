// Package stream turns trees into flat open/close/terminal event sequences
// and back, and hosts the pass plumbing built on top of them.
package stream

import (
	"fmt"

	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/tree"
)

// Event is one step of a depth-first walk. Enter without Leave opens a
// subtree, Leave without Enter closes it, both together is a terminal.
type Event struct {
	Enter bool
	Leave bool
	Pos   schema.Tag
	Type  schema.Tag
	Value *Value
}

// DeclMode tells how an identifier occurrence relates to its symbol.
type DeclMode uint8

const (
	DeclNone DeclMode = iota
	// DeclBinding marks a declaring occurrence.
	DeclBinding
	// DeclRef marks a referencing occurrence.
	DeclRef
)

func (d DeclMode) String() string {
	switch d {
	case DeclBinding:
		return "decl"
	case DeclRef:
		return "ref"
	default:
		return "none"
	}
}

// Value is shared by an open event and its close. Passes may attach
// annotations to it; the tree node itself is the payload.
type Value struct {
	Node *tree.Node
	// Field is the descriptor of the position the value sits at.
	Field *schema.Field
	Sym   *binding.Symbol
	Decl  DeclMode
	// Block is the scope record of a scope boundary.
	Block *binding.Block
	// Ctrl carries the payload of control events.
	Ctrl any
	// Comments annotate the open of the value, EndComments its close.
	Comments    []Comment
	EndComments []Comment
}

// NewValue wraps a node.
func NewValue(n *tree.Node) *Value {
	return &Value{Node: n}
}

// Open builds an open event.
func Open(pos, typ schema.Tag, v *Value) Event {
	return Event{Enter: true, Pos: pos, Type: typ, Value: v}
}

// Close builds a close event.
func Close(pos, typ schema.Tag, v *Value) Event {
	return Event{Leave: true, Pos: pos, Type: typ, Value: v}
}

// Terminal builds a terminal event.
func Terminal(pos, typ schema.Tag, v *Value) Event {
	return Event{Enter: true, Leave: true, Pos: pos, Type: typ, Value: v}
}

// IsOpen reports whether e opens a subtree.
func (e Event) IsOpen() bool {
	return e.Enter && !e.Leave
}

// IsClose reports whether e closes a subtree.
func (e Event) IsClose() bool {
	return e.Leave && !e.Enter
}

// IsTerminal reports whether e is a whole subtree on its own.
func (e Event) IsTerminal() bool {
	return e.Enter && e.Leave
}

// Closing returns the close event matching open event e.
func (e Event) Closing() Event {
	return Close(e.Pos, e.Type, e.Value)
}

// Node returns the tree node carried by the event, if any.
func (e Event) Node() *tree.Node {
	if e.Value == nil {
		return nil
	}

	return e.Value.Node
}

// Format renders an event for traces and test failures.
func (e Event) Format(reg *schema.Registry) string {
	var dir string

	switch {
	case e.IsTerminal():
		dir = "-"
	case e.Enter:
		dir = ">"
	default:
		dir = "<"
	}

	s := fmt.Sprintf("%s%s:%s", dir, reg.Name(e.Pos), reg.Name(e.Type))

	if n := e.Node(); n != nil && e.Enter {
		for _, attr := range attrsOf(reg, n) {
			s += fmt.Sprintf(" %s=%v", attr, n.Fields[attr])
		}
	}

	if e.Value != nil && e.Value.Sym != nil {
		s += fmt.Sprintf(" sym=%s", e.Value.Sym)
	}

	if e.Value != nil {
		comments := e.Value.Comments
		if !e.Enter {
			comments = e.Value.EndComments
		}

		if len(comments) > 0 {
			s += " " + formatComments(comments)
		}
	}

	return s
}

func attrsOf(reg *schema.Registry, n *tree.Node) []string {
	ti := reg.TypeOf(n)
	if ti == nil {
		return nil
	}

	res := make([]string, 0, len(ti.Attrs))
	for _, a := range ti.Attrs {
		if v, ok := n.Fields[a]; ok && v != nil {
			res = append(res, a)
		}
	}

	return res
}
