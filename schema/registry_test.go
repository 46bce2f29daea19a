package schema_test

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/estree"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/tree"
)

func TestBuiltinTags(t *testing.T) {
	reg := schema.NewRegistry()

	tests := []struct {
		tag  schema.Tag
		name string
		kind schema.Kind
	}{
		{schema.Top, "top", schema.KindPosition},
		{schema.Push, "push", schema.KindPosition},
		{schema.ArrayTag, "Array", schema.KindArray},
		{schema.NullTag, "Null", schema.KindNull},
		{schema.Subst, "Subst", schema.KindControl},
		{schema.MatchRoot, "Match", schema.KindControl},
		{schema.MatchPlaceholder, "Placeholder", schema.KindControl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, reg.Name(tt.tag))
			assert.Equal(t, tt.kind, reg.KindOf(tt.tag))

			tag, ok := reg.Lookup(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.tag, tag)
		})
	}
}

func TestIntern(t *testing.T) {
	reg := schema.NewRegistry()

	a, err := reg.RegisterType("Foo")
	assert.NoError(t, err)

	b, err := reg.RegisterType("Foo")
	assert.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = reg.Intern("Foo", schema.KindPosition)
	assert.True(t, errors.Is(err, estream.ErrKindMismatch))
	assert.True(t, estream.IsKind(err, estream.SchemaError))

	assert.Equal(t, schema.KindInvalid, reg.KindOf(schema.Tag(9999)))
}

func TestFrozenRegistry(t *testing.T) {
	reg, err := estree.Load()
	require.NoError(t, err)

	_, err = reg.RegisterType("Brand_New")
	assert.True(t, errors.Is(err, estream.ErrFrozen))

	// existing names can still be looked up through Intern
	tag, err := reg.Intern("Identifier", schema.KindType)
	assert.NoError(t, err)
	assert.Equal(t, reg.MustTag("Identifier"), tag)
}

func TestFieldDescriptors(t *testing.T) {
	reg, err := estree.Default()
	require.NoError(t, err)

	declarator := reg.MustTag("VariableDeclarator")
	id := reg.Field(declarator, reg.MustTag("id"))
	require.NotNil(t, id)
	assert.True(t, id.IsLval)
	assert.True(t, id.Binding)
	assert.True(t, id.Permits(reg.MustTag("Identifier")))
	assert.True(t, id.Permits(reg.MustTag("ObjectPattern")))
	assert.False(t, id.Permits(reg.MustTag("NumericLiteral")))

	init := reg.Field(declarator, reg.MustTag("init"))
	assert.True(t, init.IsExpr)
	assert.True(t, init.Permits(schema.NullTag))

	body := reg.Field(reg.MustTag("Program"), reg.MustTag("body"))
	assert.True(t, body.IsArray)
	assert.True(t, body.IsStmt)
	assert.True(t, body.Permits(schema.ArrayTag))
	assert.True(t, body.Elem.IsArrayElement)
	assert.True(t, body.Elem.Permits(reg.MustTag("FunctionDeclaration")))

	property := reg.Field(reg.MustTag("MemberExpression"), reg.MustTag("property"))
	assert.True(t, property.IsKey)
	assert.False(t, property.IsExpr)
}

func TestFieldVariants(t *testing.T) {
	reg, err := estree.Default()
	require.NoError(t, err)

	pos := reg.MustTag("property")
	member := func(computed bool) *tree.Node {
		return tree.New("MemberExpression").Set("computed", computed)
	}

	plain := reg.FieldOf(member(false), pos)
	assert.True(t, plain.IsKey)

	computed := reg.FieldOf(member(true), pos)
	assert.True(t, computed.IsExpr)
	assert.False(t, computed.IsKey)
	assert.True(t, computed.Permits(reg.MustTag("BinaryExpression")))
}

func TestClassify(t *testing.T) {
	reg, err := estree.Default()
	require.NoError(t, err)

	tests := []struct {
		typ      string
		expected schema.Class
	}{
		{"Program", schema.Class{IsBlock: true, IsScopeBoundary: true, IsFunctionScope: true}},
		{"BlockStatement", schema.Class{IsStmt: true, IsBlock: true, IsScopeBoundary: true}},
		{"Identifier", schema.Class{IsExpr: true, IsLval: true}},
		{"BinaryExpression", schema.Class{IsExpr: true}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.expected, reg.Classify(reg.MustTag(tt.typ)))
		})
	}

	fn := reg.Classify(reg.MustTag("FunctionDeclaration"))
	assert.True(t, fn.IsFunction)
	assert.True(t, fn.IsFunctionScope)
	assert.True(t, fn.IsStmt)
	assert.True(t, fn.IsDecl)
}

func TestScoping(t *testing.T) {
	reg, err := estree.Default()
	require.NoError(t, err)

	sc := reg.Scoping()
	assert.Equal(t, reg.MustTag("Identifier"), sc.Identifier)
	assert.Equal(t, "name", sc.Name)

	decl := reg.MustTag("VariableDeclaration")
	assert.True(t, sc.IsUnordered(decl, tree.New("VariableDeclaration").Set("kind", "var")))
	assert.False(t, sc.IsUnordered(decl, tree.New("VariableDeclaration").Set("kind", "let")))
	assert.True(t, sc.IsUnordered(reg.MustTag("FunctionDeclaration"), tree.New("FunctionDeclaration")))
	assert.True(t, sc.IsOuterName(reg.MustTag("FunctionDeclaration")))
	assert.False(t, sc.IsOuterName(reg.MustTag("FunctionExpression")))

	frags := reg.Fragments()
	assert.Equal(t, "$", frags.Marker)
	assert.Equal(t, reg.MustTag("ExpressionStatement"), frags.Wrapper)
	assert.Equal(t, reg.MustTag("BlockStatement"), frags.Block)
	assert.Equal(t, reg.MustTag("body"), frags.BlockBody)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  error
	}{
		{
			name: "unknown top level key",
			doc:  "typez: {}\n",
			err:  estream.ErrInvalidSchema,
		},
		{
			name: "two validator shapes",
			doc:  "types:\n  A:\n    fields:\n      x: {type: string, enum: [a]}\n",
			err:  estream.ErrUnsupportedValidator,
		},
		{
			name: "unknown atomic type",
			doc:  "types:\n  A:\n    fields:\n      x: {type: date}\n",
			err:  estream.ErrUnsupportedValidator,
		},
		{
			name: "unknown node type",
			doc:  "types:\n  A:\n    fields:\n      x: {nodes: [B]}\n",
			err:  estream.ErrUnknownNodeType,
		},
		{
			name: "visit of atomic field",
			doc:  "types:\n  A:\n    visit: [x]\n    fields:\n      x: {type: string}\n",
			err:  estream.ErrInvalidSchema,
		},
		{
			name: "alias colliding with type",
			doc:  "types:\n  A:\n    aliases: [B]\n  B: {}\n",
			err:  estream.ErrKindMismatch,
		},
		{
			name: "unknown scoping identifier",
			doc:  "scoping:\n  identifier: Ident\ntypes:\n  A: {}\n",
			err:  estream.ErrUnknownNodeType,
		},
		{
			name: "block field is not a list",
			doc:  "fragments:\n  block: {type: A, field: x}\ntypes:\n  A:\n    fields:\n      x: {type: string}\n",
			err:  estream.ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Load([]byte(tt.doc))
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestTypesOrder(t *testing.T) {
	reg, err := schema.Load([]byte("types:\n  B: {}\n  A: {}\n  C: {}\n"))
	require.NoError(t, err)

	var names []string
	for _, tag := range reg.Types() {
		names = append(names, reg.Name(tag))
	}

	assert.Equal(t, []string{"A", "B", "C"}, names)
}
