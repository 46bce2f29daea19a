package schema

import (
	"fmt"
	"slices"

	"github.com/shibukawa/estream"
)

type builder struct {
	r          *Registry
	classes    *ClassSpec
	identifier string
}

func (b *builder) buildType(name string, spec TypeSpec) error {
	r := b.r
	ti := r.types[r.byName[name]]
	ti.Builder = spec.Builder

	for _, alias := range spec.Aliases {
		ti.Aliases = append(ti.Aliases, r.byName[alias])
	}

	for fname, fspec := range spec.Fields {
		f, err := b.buildField(name, fname, fspec)
		if err != nil {
			return err
		}

		ti.Fields[f.Pos] = f

		if !f.IsNode() {
			ti.Attrs = append(ti.Attrs, fname)
		}
	}

	slices.Sort(ti.Attrs)

	for _, v := range spec.Visit {
		pos, ok := r.byName[v]
		if !ok || ti.Fields[pos] == nil {
			return estream.Errorf(estream.SchemaError, estream.ErrInvalidSchema, "%s visits undeclared field %q", name, v)
		}

		if !ti.Fields[pos].IsNode() {
			return estream.Errorf(estream.SchemaError, estream.ErrInvalidSchema, "%s visits atomic field %q", name, v)
		}

		ti.Visit = append(ti.Visit, pos)
	}

	for _, vs := range spec.Variants {
		if vs.When.Field == "" {
			return estream.Errorf(estream.SchemaError, estream.ErrInvalidSchema, "%s variant without discriminant", name)
		}

		v := &Variant{Field: vs.When.Field, Equals: vs.When.Equals, Fields: map[Tag]*Field{}}

		for fname, fspec := range vs.Fields {
			f, err := b.buildField(name, fname, fspec)
			if err != nil {
				return err
			}

			if base := ti.Fields[f.Pos]; base == nil || base.IsNode() != f.IsNode() {
				return estream.Errorf(estream.SchemaError, estream.ErrInvalidSchema, "%s variant changes the shape of %q", name, fname)
			}

			v.Fields[f.Pos] = f
		}

		ti.Variants = append(ti.Variants, v)
	}

	return nil
}

func (b *builder) buildField(owner, name string, spec FieldSpec) (*Field, error) {
	pos, err := b.r.intern(name, KindPosition)
	if err != nil {
		return nil, err
	}

	f := &Field{
		Name:     name,
		Pos:      pos,
		Nullable: spec.Optional,
		Default:  spec.Default,
		Binding:  spec.Binding,
		Param:    spec.Param,
	}

	shapes := 0
	for _, set := range []bool{spec.Type != "", len(spec.Enum) > 0, len(spec.Nodes) > 0, spec.Array != nil} {
		if set {
			shapes++
		}
	}

	if shapes != 1 {
		return nil, &estream.Error{
			Kind: estream.SchemaError,
			Err:  estream.ErrUnsupportedValidator,
			Msg:  fmt.Sprintf("%s.%s must use exactly one of type, enum, nodes, array", owner, name),
		}
	}

	switch {
	case spec.Type != "":
		switch spec.Type {
		case AtomicString, AtomicBoolean, AtomicNumber, AtomicAny:
			f.Atomic = spec.Type
		default:
			return nil, estream.Errorf(estream.SchemaError, estream.ErrUnsupportedValidator, "%s.%s has type %q", owner, name, spec.Type)
		}

	case len(spec.Enum) > 0:
		f.Atomic = AtomicString
		f.Enum = spec.Enum

	case len(spec.Nodes) > 0:
		for _, n := range spec.Nodes {
			t, ok := b.r.byName[n]
			if !ok || (b.r.tags[t].kind != KindType && b.r.tags[t].kind != KindAlias) {
				return nil, estream.Errorf(estream.SchemaError, estream.ErrUnknownNodeType, "%s.%s refers to %q", owner, name, n)
			}

			f.NodeTypes = append(f.NodeTypes, t)
		}

	case spec.Array != nil:
		elemSpec := *spec.Array
		elemSpec.Binding = elemSpec.Binding || spec.Binding
		elemSpec.Param = elemSpec.Param || spec.Param

		elem, err := b.buildField(owner, name, elemSpec)
		if err != nil {
			return nil, err
		}

		if !elem.IsNode() {
			return nil, estream.Errorf(estream.SchemaError, estream.ErrUnsupportedValidator, "%s.%s is an array of atomic values", owner, name)
		}

		elem.Pos = Push
		elem.IsArrayElement = true
		f.IsArray = true
		f.Elem = elem
	}

	return f, nil
}

func (b *builder) has(tags []Tag, name string) bool {
	if name == "" {
		return false
	}

	t, ok := b.r.byName[name]

	return ok && slices.Contains(tags, t)
}

func (b *builder) hasAny(tags []Tag, names []string) bool {
	for _, n := range names {
		if b.has(tags, n) {
			return true
		}
	}

	return false
}

func (b *builder) classify(ti *TypeInfo) Class {
	c := b.classes
	cl := Class{
		IsExpr:          b.has(ti.Aliases, c.Expression),
		IsStmt:          b.has(ti.Aliases, c.Statement),
		IsBlock:         b.has(ti.Aliases, c.Block),
		IsDecl:          b.has(ti.Aliases, c.Declaration),
		IsFunction:      b.has(ti.Aliases, c.Function),
		IsLval:          b.hasAny(ti.Aliases, c.LVal),
		IsFunctionScope: b.has(ti.Aliases, c.FunctionScope),
	}
	cl.IsScopeBoundary = cl.IsFunctionScope || b.has(ti.Aliases, c.BlockScope)

	return cl
}

// flag derives the descriptor flags and the permitted-type set. It runs
// after every type has been classified.
func (b *builder) flag(f *Field) {
	if f.Elem != nil {
		b.flag(f.Elem)

		e := f.Elem
		f.IsExpr, f.IsStmt, f.IsBlock, f.IsKey, f.IsLval, f.IsDecl = e.IsExpr, e.IsStmt, e.IsBlock, e.IsKey, e.IsLval, e.IsDecl

		return
	}

	if !f.IsNode() {
		return
	}

	c := b.classes
	nt := f.NodeTypes

	f.IsExpr = b.has(nt, c.Expression)
	f.IsStmt = b.has(nt, c.Statement) || b.has(nt, c.BlockType)
	f.IsBlock = b.has(nt, c.BlockType) && !b.has(nt, c.Statement)
	f.IsLval = b.hasAny(nt, c.LVal)
	f.IsKey = b.has(nt, b.identifier) && !f.IsExpr && !f.IsLval

	f.IsDecl = b.has(nt, c.Declaration)
	for _, t := range nt {
		if ti := b.r.types[t]; ti != nil && ti.Class.IsDecl {
			f.IsDecl = true
		}
	}

	f.permits = map[Tag]bool{}
	for _, t := range nt {
		f.permits[t] = true
	}

	for t, ti := range b.r.types {
		for _, a := range ti.Aliases {
			if f.permits[a] {
				f.permits[t] = true
			}
		}
	}
}
