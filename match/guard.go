package match

import (
	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/tree"
)

func compileGuard(names []string, where string) (cel.Program, error) {
	opts := []cel.EnvOption{
		cel.HomogeneousAggregateLiterals(),
		cel.EagerlyValidateDeclarations(true),
	}

	for _, name := range names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadGuard, "%v", err)
	}

	ast, issues := env.Compile(where)
	if issues != nil && issues.Err() != nil {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadGuard, "%q: %v", where, issues.Err())
	}

	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadGuard, "%q evaluates to %s", where, out)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadGuard, "%q: %v", where, err)
	}

	return prg, nil
}

// evalGuard reports whether the guard holds. Evaluation errors, like
// selecting a field a capture does not have, count as false.
func evalGuard(prg cel.Program, captures map[string]*stream.Value) bool {
	vars := make(map[string]any, len(captures))
	for name, v := range captures {
		vars[name] = celValue(v.Node)
	}

	res, _, err := prg.Eval(vars)
	if err != nil {
		return false
	}

	b, ok := res.Value().(bool)

	return ok && b
}

// celValue converts a node into the plain values CEL understands.
func celValue(n *tree.Node) any {
	if n.IsNull() {
		return nil
	}

	if n.Kind == tree.Array {
		res := make([]any, len(n.Elems))
		for i, e := range n.Elems {
			res[i] = celValue(e)
		}

		return res
	}

	res := map[string]any{"type": n.Type}

	for k, v := range n.Fields {
		switch x := v.(type) {
		case *tree.Node:
			res[k] = celValue(x)
		case decimal.Decimal:
			res[k] = x.InexactFloat64()
		default:
			res[k] = x
		}
	}

	return res
}
