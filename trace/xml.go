package trace

import (
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/tree"
)

// Engine attributes are prefixed so they never collide with node fields.
const (
	attrPos  = "_pos"
	attrSym  = "_sym"
	attrDecl = "_decl"
	attrCtrl = "_ctrl"
)

// Document builds an XML document from seq. Every event becomes an element
// named after its type; node attributes become XML attributes.
func Document(reg *schema.Registry, seq iter.Seq[stream.Event]) (doc *etree.Document, err error) {
	defer estream.Recover(&err)

	doc = etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	stack := []*etree.Element{doc.CreateElement("events")}

	for e := range seq {
		if e.IsClose() {
			if len(stack) == 1 {
				return nil, estream.Errorf(estream.StructuralError, estream.ErrUnbalanced, "close of %s without open", reg.Name(e.Type))
			}

			stack = stack[:len(stack)-1]

			continue
		}

		el := stack[len(stack)-1].CreateElement(reg.Name(e.Type))
		el.CreateAttr(attrPos, reg.Name(e.Pos))
		describe(reg, el, e)

		if e.IsOpen() {
			stack = append(stack, el)
		}
	}

	if len(stack) != 1 {
		return nil, estream.Errorf(estream.StructuralError, estream.ErrUnbalanced, "%d unterminated opens", len(stack)-1)
	}

	doc.Indent(2)

	return doc, nil
}

func describe(reg *schema.Registry, el *etree.Element, e stream.Event) {
	v := e.Value
	if v == nil {
		return
	}

	if n := v.Node; n != nil {
		if ti := reg.TypeOf(n); ti != nil {
			for _, a := range ti.Attrs {
				if x, ok := n.Fields[a]; ok && x != nil {
					el.CreateAttr(a, fmt.Sprint(x))
				}
			}
		}
	}

	if v.Sym != nil {
		el.CreateAttr(attrSym, v.Sym.String())
		el.CreateAttr(attrDecl, v.Decl.String())
	}

	if s, ok := v.Ctrl.(fmt.Stringer); ok {
		el.CreateAttr(attrCtrl, s.String())
	}
}

// WriteXML writes the XML document of seq to w.
func WriteXML(w io.Writer, reg *schema.Registry, seq iter.Seq[stream.Event]) error {
	doc, err := Document(reg, seq)
	if err != nil {
		return err
	}

	_, err = doc.WriteTo(w)

	return err
}

// ReadXML rebuilds the tree of a document written by WriteXML. Control
// elements and engine attributes are ignored.
func ReadXML(r io.Reader, reg *schema.Registry) (*tree.Node, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}

	events := doc.SelectElement("events")
	if events == nil {
		return nil, estream.Errorf(estream.StructuralError, estream.ErrUnknownType, "missing events element")
	}

	for _, el := range events.ChildElements() {
		if t, ok := reg.Lookup(el.Tag); ok && reg.KindOf(t) == schema.KindControl {
			continue
		}

		return readElement(reg, el)
	}

	return nil, estream.Errorf(estream.StructuralError, estream.ErrUnbalanced, "empty document")
}

func readElement(reg *schema.Registry, el *etree.Element) (*tree.Node, error) {
	t, ok := reg.Lookup(el.Tag)
	if !ok {
		return nil, estream.Errorf(estream.StructuralError, estream.ErrUnknownType, "%q", el.Tag)
	}

	var n *tree.Node

	switch reg.KindOf(t) {
	case schema.KindNull:
		return tree.NewNull(), nil
	case schema.KindArray:
		n = tree.NewArray()
	case schema.KindType:
		n = tree.New(el.Tag)
		if err := readAttrs(reg, t, n, el); err != nil {
			return nil, err
		}
	default:
		return nil, estream.Errorf(estream.StructuralError, estream.ErrUnknownType, "%q is a %s", el.Tag, reg.KindOf(t))
	}

	for _, c := range el.ChildElements() {
		if ct, ok := reg.Lookup(c.Tag); ok && reg.KindOf(ct) == schema.KindControl {
			// splice the children of control brackets
			for _, cc := range c.ChildElements() {
				if err := install(reg, n, cc); err != nil {
					return nil, err
				}
			}

			continue
		}

		if err := install(reg, n, c); err != nil {
			return nil, err
		}
	}

	return n, nil
}

func install(reg *schema.Registry, parent *tree.Node, el *etree.Element) error {
	child, err := readElement(reg, el)
	if err != nil {
		return err
	}

	pos := el.SelectAttrValue(attrPos, "")
	if parent.Kind == tree.Array || pos == reg.Name(schema.Push) {
		parent.Elems = append(parent.Elems, child)
		return nil
	}

	parent.Set(pos, child)

	return nil
}

func readAttrs(reg *schema.Registry, typ schema.Tag, n *tree.Node, el *etree.Element) error {
	for _, a := range el.Attr {
		if a.Space != "" || len(a.Key) > 0 && a.Key[0] == '_' {
			continue
		}

		pos, ok := reg.Lookup(a.Key)
		if !ok {
			return estream.Errorf(estream.StructuralError, estream.ErrPositionNotFound, "%s.%s", el.Tag, a.Key)
		}

		f := reg.Field(typ, pos)
		if f == nil {
			return estream.Errorf(estream.StructuralError, estream.ErrPositionNotFound, "%s.%s", el.Tag, a.Key)
		}

		switch f.Atomic {
		case schema.AtomicBoolean:
			b, err := strconv.ParseBool(a.Value)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", el.Tag, a.Key, err)
			}

			n.Set(a.Key, b)
		case schema.AtomicNumber:
			d, err := decimal.NewFromString(a.Value)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", el.Tag, a.Key, err)
			}

			n.Set(a.Key, d)
		default:
			n.Set(a.Key, a.Value)
		}
	}

	return nil
}
