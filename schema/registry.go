package schema

import (
	"fmt"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/tree"
)

// Registry maps tags to their kinds, type descriptors and classifications.
// It is built once and read-only afterwards, so one registry may be shared
// by any number of concurrent pipelines.
type Registry struct {
	arena
	types     map[Tag]*TypeInfo
	scoping   Scoping
	fragments Fragments
}

// Scoping is the resolved form of ScopingSpec.
type Scoping struct {
	Identifier Tag
	Name       string
	unordered  map[Tag][]UnorderedRule
	outer      map[Tag]bool
}

// Fragments is the resolved form of FragmentSpec.
type Fragments struct {
	Body       []string
	Wrapper    Tag
	Expression string
	Declarator DeclaratorSpec
	// Block and BlockBody are the block statement type and the position of
	// its statement list. Both are zero when the grammar has no blocks.
	Block     Tag
	BlockBody Tag
	Marker    string
}

// NewRegistry creates an empty registry holding only the builtin tags.
func NewRegistry() *Registry {
	return &Registry{arena: newArena(), types: map[Tag]*TypeInfo{}}
}

// Load parses a YAML grammar document and builds a frozen registry.
func Load(data []byte) (*Registry, error) {
	var doc Document

	err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", estream.ErrInvalidSchema, err)
	}

	return Build(&doc)
}

// Build builds a frozen registry from a parsed document.
func Build(doc *Document) (*Registry, error) {
	r := NewRegistry()

	names := make([]string, 0, len(doc.Types))
	for name := range doc.Types {
		names = append(names, name)
	}

	slices.Sort(names)

	// types first so aliases that collide with them are reported
	for _, name := range names {
		t, err := r.RegisterType(name)
		if err != nil {
			return nil, err
		}

		r.types[t] = &TypeInfo{Tag: t, Name: name, Fields: map[Tag]*Field{}}
	}

	for _, name := range names {
		for _, alias := range doc.Types[name].Aliases {
			if _, err := r.intern(alias, KindAlias); err != nil {
				return nil, err
			}
		}
	}

	for _, c := range doc.Controls {
		if _, err := r.intern(c, KindControl); err != nil {
			return nil, err
		}
	}

	b := builder{r: r, classes: &doc.Classes, identifier: doc.Scoping.Identifier}

	for _, name := range names {
		if err := b.buildType(name, doc.Types[name]); err != nil {
			return nil, err
		}
	}

	// classification needs every type's aliases, field flags need the classes
	for _, ti := range r.types {
		ti.Class = b.classify(ti)
	}

	for _, ti := range r.types {
		for _, f := range ti.Fields {
			b.flag(f)
		}

		for _, v := range ti.Variants {
			for _, f := range v.Fields {
				b.flag(f)
			}
		}
	}

	if err := r.resolveScoping(&doc.Scoping); err != nil {
		return nil, err
	}

	if err := r.resolveFragments(&doc.Fragments); err != nil {
		return nil, err
	}

	r.frozen = true

	return r, nil
}

// Intern returns the tag for name, registering it with kind if new.
func (r *Registry) Intern(name string, kind Kind) (Tag, error) {
	return r.intern(name, kind)
}

// RegisterType interns a node type name.
func (r *Registry) RegisterType(name string) (Tag, error) {
	return r.intern(name, KindType)
}

// Lookup returns the tag registered for name.
func (r *Registry) Lookup(name string) (Tag, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// MustTag returns the tag registered for name and panics when there is none.
func (r *Registry) MustTag(name string) Tag {
	t, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown tag %q", name))
	}

	return t
}

// Name returns the name a tag was interned from.
func (r *Registry) Name(t Tag) string {
	if int(t) >= len(r.tags) {
		return fmt.Sprintf("<tag %d>", t)
	}

	return r.tags[t].name
}

// KindOf returns the kind of a tag.
func (r *Registry) KindOf(t Tag) Kind {
	if int(t) >= len(r.tags) {
		return KindInvalid
	}

	return r.tags[t].kind
}

// Type returns the descriptor of a node type, or nil.
func (r *Registry) Type(t Tag) *TypeInfo {
	return r.types[t]
}

// TypeOf returns the descriptor for a node's type name.
func (r *Registry) TypeOf(n *tree.Node) *TypeInfo {
	if n == nil {
		return nil
	}

	t, ok := r.byName[n.Type]
	if !ok {
		return nil
	}

	return r.types[t]
}

// Types returns every node type tag in interning order.
func (r *Registry) Types() []Tag {
	res := make([]Tag, 0, len(r.types))
	for t := range r.types {
		res = append(res, t)
	}

	slices.Sort(res)

	return res
}

// Field returns the base descriptor of position pos in type typ.
func (r *Registry) Field(typ, pos Tag) *Field {
	ti := r.types[typ]
	if ti == nil {
		return nil
	}

	return ti.Fields[pos]
}

// FieldOf returns the descriptor of position pos in node n, taking the
// variant selected by n's discriminant attributes into account.
func (r *Registry) FieldOf(n *tree.Node, pos Tag) *Field {
	ti := r.TypeOf(n)
	if ti == nil {
		return nil
	}

	for _, v := range ti.Variants {
		if !v.selects(n) {
			continue
		}

		if f, ok := v.Fields[pos]; ok {
			return f
		}
	}

	return ti.Fields[pos]
}

// Classify returns the derived classification of a type tag.
func (r *Registry) Classify(typ Tag) Class {
	ti := r.types[typ]
	if ti == nil {
		return Class{}
	}

	return ti.Class
}

// Scoping returns the binding conventions of the grammar.
func (r *Registry) Scoping() *Scoping {
	return &r.scoping
}

// Fragments returns the fragment conventions of the grammar.
func (r *Registry) Fragments() *Fragments {
	return &r.fragments
}

// IsUnordered reports whether declarations under node n (of type typ) are
// hoisted to the nearest function scope.
func (s *Scoping) IsUnordered(typ Tag, n *tree.Node) bool {
	rules, ok := s.unordered[typ]
	if !ok {
		return false
	}

	for _, rule := range rules {
		if rule.Field == "" {
			return true
		}

		if slices.Contains(rule.Values, n.Str(rule.Field)) {
			return true
		}
	}

	return false
}

// IsOuterName reports whether a node of type typ binds its own name in the
// enclosing scope.
func (s *Scoping) IsOuterName(typ Tag) bool {
	return s.outer[typ]
}

func (r *Registry) resolveScoping(spec *ScopingSpec) error {
	r.scoping = Scoping{
		Name:      spec.Name,
		unordered: map[Tag][]UnorderedRule{},
		outer:     map[Tag]bool{},
	}

	if spec.Identifier != "" {
		t, err := r.typeTag(spec.Identifier)
		if err != nil {
			return err
		}

		r.scoping.Identifier = t
	}

	for _, rule := range spec.Unordered {
		t, err := r.typeTag(rule.Type)
		if err != nil {
			return err
		}

		r.scoping.unordered[t] = append(r.scoping.unordered[t], rule)
	}

	for _, name := range spec.OuterName {
		t, err := r.typeTag(name)
		if err != nil {
			return err
		}

		r.scoping.outer[t] = true
	}

	return nil
}

func (r *Registry) resolveFragments(spec *FragmentSpec) error {
	r.fragments = Fragments{
		Body:       spec.Body,
		Expression: spec.Expression,
		Declarator: spec.Declarator,
		Marker:     spec.Marker,
	}

	if r.fragments.Marker == "" {
		r.fragments.Marker = "$"
	}

	if spec.Wrapper != "" {
		t, err := r.typeTag(spec.Wrapper)
		if err != nil {
			return err
		}

		r.fragments.Wrapper = t
	}

	if spec.Block.Type != "" {
		t, err := r.typeTag(spec.Block.Type)
		if err != nil {
			return err
		}

		f := r.Field(t, r.byName[spec.Block.Field])
		if f == nil || !f.IsArray {
			return estream.Errorf(estream.SchemaError, estream.ErrInvalidSchema, "block field %s.%s is not a statement list", spec.Block.Type, spec.Block.Field)
		}

		r.fragments.Block = t
		r.fragments.BlockBody = f.Pos
	}

	return nil
}

func (r *Registry) typeTag(name string) (Tag, error) {
	t, ok := r.byName[name]
	if !ok || r.tags[t].kind != KindType {
		return Invalid, estream.Errorf(estream.SchemaError, estream.ErrUnknownNodeType, "%q", name)
	}

	return t, nil
}
