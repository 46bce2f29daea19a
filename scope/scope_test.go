package scope_test

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/estree"
	"github.com/shibukawa/estream/parser"
	"github.com/shibukawa/estream/printer"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/scope"
	"github.com/shibukawa/estream/stream"
)

func registry(t *testing.T) *schema.Registry {
	t.Helper()

	reg, err := estree.Default()
	require.NoError(t, err)

	return reg
}

func prepare(t *testing.T, reg *schema.Registry, src string) []stream.Event {
	t.Helper()

	root, err := parser.Parse(src)
	require.NoError(t, err)

	events, err := scope.Prepare(reg, binding.NewTable(), stream.Produce(reg, root, schema.Top), scope.DefaultOptions())
	require.NoError(t, err)

	return events
}

func resolve(t *testing.T, src string, opts scope.Options) ([]string, error) {
	t.Helper()

	reg := registry(t)

	root, err := parser.Parse(src)
	require.NoError(t, err)

	events, err := scope.Resolve(reg, binding.NewTable(), stream.Produce(reg, root, schema.Top), opts)
	if err != nil {
		return nil, err
	}

	res, err := stream.Consume(reg, stream.Slice(events))
	require.NoError(t, err)

	return printer.Lines(res), nil
}

// idents returns the identifier values named name, in stream order.
func idents(reg *schema.Registry, events []stream.Event, name string) []*stream.Value {
	var res []*stream.Value

	for _, e := range events {
		if e.Enter && e.Type == reg.Scoping().Identifier && e.Node().Str("name") == name {
			res = append(res, e.Value)
		}
	}

	return res
}

// finish runs the walks that follow Prepare.
func finish(reg *schema.Registry, table *binding.Table, events []stream.Event, opts scope.Options) []string {
	scope.BlockRefs(events)
	scope.RefScopes(events)
	scope.Solve(reg, table, events, opts)

	root, err := stream.Consume(reg, stream.Slice(events))
	if err != nil {
		panic(err)
	}

	return printer.Lines(root)
}

func TestHoistedVar(t *testing.T) {
	reg := registry(t)
	events := prepare(t, reg, "{ var x = 1; } console.log(x);")

	xs := idents(reg, events, "x")
	require.Equal(t, 2, len(xs))
	assert.Equal(t, stream.DeclBinding, xs[0].Decl)
	assert.Equal(t, stream.DeclRef, xs[1].Decl)
	assert.True(t, xs[0].Sym == xs[1].Sym)
	assert.True(t, xs[0].Sym.Unordered)
	assert.False(t, xs[0].Sym.Global)

	console := idents(reg, events, "console")
	require.Equal(t, 1, len(console))
	assert.True(t, console[0].Sym.Global)

	// property keys are not references
	log := idents(reg, events, "log")
	require.Equal(t, 1, len(log))
	assert.Equal(t, stream.DeclNone, log[0].Decl)
	assert.True(t, log[0].Sym == nil)
}

func TestBlockScopedLet(t *testing.T) {
	reg := registry(t)
	events := prepare(t, reg, "{ let y = 1; } console.log(y);")

	ys := idents(reg, events, "y")
	require.Equal(t, 2, len(ys))
	assert.False(t, ys[0].Sym == ys[1].Sym)
	assert.False(t, ys[0].Sym.Global)
	assert.True(t, ys[1].Sym.Global)
}

func TestLetIsNotVisibleBeforeDeclaration(t *testing.T) {
	reg := registry(t)
	events := prepare(t, reg, "z; let z = 1; z;")

	zs := idents(reg, events, "z")
	require.Equal(t, 3, len(zs))
	assert.True(t, zs[0].Sym.Global)
	assert.True(t, zs[1].Sym == zs[2].Sym)
}

func TestFunctionDeclarationsHoist(t *testing.T) {
	reg := registry(t)
	events := prepare(t, reg, "f(); function f() { return g; } let g = 1;")

	fs := idents(reg, events, "f")
	require.Equal(t, 2, len(fs))
	assert.True(t, fs[0].Sym == fs[1].Sym)
	assert.True(t, fs[1].Sym.FuncID)

	// function bodies see the whole enclosing block
	gs := idents(reg, events, "g")
	require.Equal(t, 2, len(gs))
	assert.True(t, gs[0].Sym == gs[1].Sym)
}

func TestParamsAndBlocks(t *testing.T) {
	reg := registry(t)
	events := prepare(t, reg, "function f(p) { let q = p; }")

	ps := idents(reg, events, "p")
	require.Equal(t, 2, len(ps))
	assert.True(t, ps[0].Sym.Param)
	assert.True(t, ps[0].Sym == ps[1].Sym)

	qs := idents(reg, events, "q")
	require.Equal(t, 1, len(qs))

	// the body shares the record of the function
	assert.True(t, ps[0].Sym.Block == qs[0].Sym.Block)
	assert.True(t, qs[0].Sym.Scope.Func)
}

func TestParamsStayInsideFunction(t *testing.T) {
	reg := registry(t)
	events := prepare(t, reg, "function f(x) { return 1; } x;")

	xs := idents(reg, events, "x")
	require.Equal(t, 2, len(xs))
	assert.True(t, xs[0].Sym.Param)
	assert.False(t, xs[0].Sym.Unordered)
	assert.False(t, xs[0].Sym.FuncID)
	assert.True(t, xs[1].Sym.Global)

	f := idents(reg, events, "f")[0].Sym
	assert.True(t, f.FuncID)
	assert.False(t, xs[0].Sym.Block == f.Block)

	lines, err := resolve(t, "function f(x) { return x; } let x = 2; x;", scope.DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, []string{"function f(x){return x;}", "let x=2;", "x;"}, lines)
}

func TestRedeclarationsShareSymbol(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		ident    string
		expected []string
	}{
		{
			name:     "var in a nested statement",
			src:      "var x = 1; if (c) var x = 2; g(x);",
			ident:    "x",
			expected: []string{"var x=1;", "if(c)var x=2;", "g(x);"},
		},
		{
			name:     "var after function",
			src:      "function g() {} var g; g();",
			ident:    "g",
			expected: []string{"function g(){}", "var g;", "g();"},
		},
		{
			name:     "function twice",
			src:      "function g() {} function g() {} g();",
			ident:    "g",
			expected: []string{"function g(){}", "function g(){}", "g();"},
		},
		{
			name:     "var over a parameter",
			src:      "function f(x) { var x; return x; }",
			ident:    "x",
			expected: []string{"function f(x){var x;return x;}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry(t)
			events := prepare(t, reg, tt.src)

			vs := idents(reg, events, tt.ident)
			require.NotEmpty(t, vs)

			for _, v := range vs {
				assert.True(t, v.Sym == vs[0].Sym, "%s bound to %s and %s", tt.ident, vs[0].Sym, v.Sym)
			}

			lines, err := resolve(t, tt.src, scope.DefaultOptions())
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, lines)
		})
	}

	// a parameter keeps its kind when a var joins it
	reg := registry(t)
	x := idents(reg, prepare(t, reg, "function f(x) { var x; }"), "x")[0].Sym
	assert.True(t, x.Param)
}

func TestFramesHaveDistinctNames(t *testing.T) {
	reg := registry(t)
	table := binding.NewTable()
	opts := scope.DefaultOptions()

	src := "let a = 1, b = 2; function f(c, d) { let e = c + d; { let g = e + a; h(g); } return b; } { let i = f(1, 2); i; }"

	root, err := parser.Parse(src)
	require.NoError(t, err)

	events, err := scope.Prepare(reg, table, stream.Produce(reg, root, schema.Top), opts)
	require.NoError(t, err)

	// every local symbol collides with every other
	locals := map[*binding.Symbol]bool{}

	for _, e := range events {
		if e.Value != nil && e.Value.Sym != nil && !e.Value.Sym.Global {
			e.Value.Sym.Name = "v"
			locals[e.Value.Sym] = true
		}
	}

	require.Equal(t, 8, len(locals))

	finish(reg, table, events, opts)

	frames := 0

	for _, e := range events {
		if !e.IsOpen() || e.Value == nil || e.Value.Block == nil {
			continue
		}

		frames++

		names := map[string]*binding.Symbol{}
		for _, sym := range e.Value.Block.Refs {
			prev, ok := names[sym.Name]
			assert.False(t, ok && prev != sym, "%s and %s share a frame", prev, sym)
			names[sym.Name] = sym
		}
	}

	assert.True(t, frames >= 4)

	// identifier nodes carry the final names
	for _, e := range events {
		if e.Enter && e.Value != nil && e.Value.Sym != nil {
			assert.Equal(t, e.Value.Sym.Name, e.Node().Str("name"))
		}
	}
}

func TestRefScopes(t *testing.T) {
	reg := registry(t)
	table := binding.NewTable()

	root, err := parser.Parse("let a = 1, b = 2; function f() { return a; }")
	require.NoError(t, err)

	events, err := scope.Resolve(reg, table, stream.Produce(reg, root, schema.Top), scope.DefaultOptions())
	require.NoError(t, err)

	a := idents(reg, events, "a")[0].Sym
	b := idents(reg, events, "b")[0].Sym

	require.Equal(t, 1, len(a.RefScopes))
	assert.True(t, a.RefScopes[0] != a.Scope)
	assert.Equal(t, 0, len(b.RefScopes))
}

func TestShadowingKeepsNames(t *testing.T) {
	src := "let a = 1; function f(a) { let b = a; { let a = b; } return a; }"

	lines, err := resolve(t, src, scope.DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, []string{"let a=1;", "function f(a){let b=a;{let a=b;}return a;}"}, lines)
}

// rebind simulates tree surgery that reuses a name: the binding of from is
// renamed to to although its symbol stays distinct.
func rebind(t *testing.T, reg *schema.Registry, events []stream.Event, from, to string) *binding.Symbol {
	t.Helper()

	for _, v := range idents(reg, events, from) {
		if v.Decl == stream.DeclBinding {
			v.Sym.Name = to
			return v.Sym
		}
	}

	t.Fatalf("no binding of %s", from)

	return nil
}

func TestRenameCollision(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		style    scope.NameStyle
		reuse    string
		expected []string
	}{
		{
			name:     "numeric",
			src:      "let a = 1; function f() { let b = 2; return a + b; }",
			style:    scope.NumericNames,
			reuse:    "a",
			expected: []string{"let a=1;", "function f(){let a1=2;return a+a1;}"},
		},
		{
			name:     "underscore",
			src:      "let a = 1; function f() { let b = 2; return a + b; }",
			style:    scope.UnderscoreNames,
			reuse:    "a",
			expected: []string{"let a=1;", "function f(){let _a=2;return a+_a;}"},
		},
		{
			name:     "skips names held elsewhere",
			src:      "let a = 1, a1 = 0; function f() { let b = 2; return a + b; }",
			style:    scope.NumericNames,
			reuse:    "a",
			expected: []string{"let a=1,a1=0;", "function f(){let a2=2;return a+a2;}"},
		},
		{
			name:     "globals keep their name",
			src:      "function f() { let b = 2; return console + b; }",
			style:    scope.NumericNames,
			reuse:    "console",
			expected: []string{"function f(){let console1=2;return console+console1;}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry(t)
			table := binding.NewTable()

			root, err := parser.Parse(tt.src)
			require.NoError(t, err)

			opts := scope.Options{NameStyle: tt.style}

			events, err := scope.Prepare(reg, table, stream.Produce(reg, root, schema.Top), opts)
			require.NoError(t, err)

			rebind(t, reg, events, "b", tt.reuse)

			assert.Equal(t, tt.expected, finish(reg, table, events, opts))
		})
	}
}

func TestRenameIsStable(t *testing.T) {
	reg := registry(t)
	table := binding.NewTable()
	opts := scope.DefaultOptions()

	root, err := parser.Parse("let a = 1; function f() { let b = 2; let c = 3; return a + b + c; }")
	require.NoError(t, err)

	events, err := scope.Prepare(reg, table, stream.Produce(reg, root, schema.Top), opts)
	require.NoError(t, err)

	rebind(t, reg, events, "b", "a")
	rebind(t, reg, events, "c", "a")

	first := finish(reg, table, events, opts)
	assert.Equal(t, []string{"let a=1;", "function f(){let a1=2;let a2=3;return a+a1+a2;}"}, first)

	// solving again on the same symbols changes nothing
	assert.Equal(t, first, finish(reg, table, events, opts))

	// and neither does a fresh resolve of the printed result
	lines, err := resolve(t, first[0]+first[1], opts)
	assert.NoError(t, err)
	assert.Equal(t, first, lines)
}

func TestAnonymousSymbols(t *testing.T) {
	reg := registry(t)
	table := binding.NewTable()
	opts := scope.DefaultOptions()

	root, err := parser.Parse("let a = 1; function f() { let t = 2; return a + t; }")
	require.NoError(t, err)

	events, err := scope.Prepare(reg, table, stream.Produce(reg, root, schema.Top), opts)
	require.NoError(t, err)

	sym := rebind(t, reg, events, "t", "")
	assert.True(t, sym.Anonymous())

	assert.Equal(t, []string{"let a=1;", "function f(){let b=2;return a+b;}"}, finish(reg, table, events, opts))
	assert.Equal(t, "b", sym.Name)
}

func TestDuplicateDeclaration(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check bool
		err   bool
	}{
		{"let twice", "let a; let a;", true, true},
		{"let and const in a block", "{ let a; const a = 1; }", true, true},
		{"unchecked", "let a; let a;", false, false},
		{"var twice", "var a; var a;", true, false},
		{"different blocks", "let a; { let a; }", true, false},
		{"param and body", "function f(a) { var a; }", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(t, tt.src, scope.Options{CheckCollisions: tt.check})
			if !tt.err {
				assert.NoError(t, err)
				return
			}

			assert.True(t, errors.Is(err, estream.ErrDuplicateDeclaration), "got %v", err)
			assert.True(t, estream.IsKind(err, estream.BindingError))

			// both declaration sites are reported
			var e *estream.Error
			require.True(t, errors.As(err, &e))
			assert.True(t, e.Node != nil)
			assert.True(t, e.Related != nil)
			assert.True(t, e.Node != e.Related)
			assert.Equal(t, "a", e.Related.Str("name"))
		})
	}
}

func TestResolvePass(t *testing.T) {
	reg := registry(t)

	core, logs := observer.New(zapcore.DebugLevel)
	opts := scope.DefaultOptions()
	opts.Logger = zap.New(core)

	root, err := parser.Parse("let a; let a;")
	require.NoError(t, err)

	_, err = stream.Run(stream.Produce(reg, root, schema.Top), scope.ResolvePass(reg, binding.NewTable(), opts))
	assert.True(t, estream.IsKind(err, estream.BindingError))

	root, err = parser.Parse("let a; { let a; a; }")
	require.NoError(t, err)

	p := stream.NewPipeline(reg, stream.WithVerify()).
		Add("prepare", scope.PreparePass(reg, binding.NewTable(), opts))

	res, err := p.Run(root)
	assert.NoError(t, err)
	assert.Equal(t, []string{"let a;", "{let a;a;}"}, printer.Lines(res))

	root, err = parser.Parse("x;")
	require.NoError(t, err)

	_, err = stream.Run(stream.Produce(reg, root, schema.Top), scope.ResolvePass(reg, binding.NewTable(), opts))
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("resolved scopes").Len())
}

func TestOptions(t *testing.T) {
	style, err := scope.ParseNameStyle("Underscore")
	assert.NoError(t, err)
	assert.Equal(t, scope.UnderscoreNames, style)
	assert.Equal(t, "underscore", style.String())

	style, err = scope.ParseNameStyle("")
	assert.NoError(t, err)
	assert.Equal(t, "numeric", style.String())

	_, err = scope.ParseNameStyle("roman")
	assert.True(t, errors.Is(err, estream.ErrConfigValidation))

	cfg := estream.DefaultConfig()
	cfg.Resolve.NameStyle = "underscore"
	cfg.Resolve.CheckCollisions = false

	opts, err := scope.OptionsFromConfig(cfg, nil)
	assert.NoError(t, err)
	assert.Equal(t, scope.UnderscoreNames, opts.NameStyle)
	assert.False(t, opts.CheckCollisions)

	cfg.Resolve.NameStyle = "roman"
	_, err = scope.OptionsFromConfig(cfg, nil)
	assert.Error(t, err)
}
