package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/shibukawa/estream/schema"
)

// SchemaCmd represents the schema command
type SchemaCmd struct {
	Type string `arg:"" optional:"" help:"Node type to describe (default: list all types)"`
}

// Run executes the schema command
func (cmd *SchemaCmd) Run(ctx *Context) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	if cmd.Type == "" {
		for _, t := range a.reg.Types() {
			fmt.Fprintln(ctx.Out, a.reg.Name(t))
		}

		return nil
	}

	tag, ok := a.reg.Lookup(cmd.Type)
	if !ok || a.reg.Type(tag) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, cmd.Type)
	}

	describeType(ctx.Out, a.reg, a.reg.Type(tag))

	return nil
}

func describeType(w io.Writer, reg *schema.Registry, ti *schema.TypeInfo) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintln(w, bold(ti.Name))

	if len(ti.Aliases) > 0 {
		fmt.Fprintf(w, "  aliases: %s\n", strings.Join(names(reg, ti.Aliases), ", "))
	}

	if flags := classFlags(ti.Class); len(flags) > 0 {
		fmt.Fprintf(w, "  class:   %s\n", strings.Join(flags, ", "))
	}

	positions := make([]schema.Tag, 0, len(ti.Fields))
	for pos := range ti.Fields {
		positions = append(positions, pos)
	}

	slices.SortFunc(positions, func(a, b schema.Tag) int {
		return strings.Compare(reg.Name(a), reg.Name(b))
	})

	for _, pos := range positions {
		f := ti.Fields[pos]
		fmt.Fprintf(w, "  %-16s %s", f.Name, fieldShape(reg, f))

		if slices.Contains(ti.Visit, pos) {
			fmt.Fprint(w, dim(" (visited)"))
		}

		fmt.Fprintln(w)
	}
}

func fieldShape(reg *schema.Registry, f *schema.Field) string {
	switch {
	case f.Atomic != "" && len(f.Enum) > 0:
		return f.Atomic + " " + strings.Join(f.Enum, "|")
	case f.Atomic != "":
		return f.Atomic
	case f.IsArray && f.Elem != nil:
		return "[]" + fieldShape(reg, f.Elem)
	}

	shape := strings.Join(names(reg, f.NodeTypes), "|")
	if f.Nullable {
		shape += "?"
	}

	return shape
}

func classFlags(c schema.Class) []string {
	var res []string

	for _, flag := range []struct {
		set  bool
		name string
	}{
		{c.IsExpr, "expression"},
		{c.IsStmt, "statement"},
		{c.IsBlock, "block"},
		{c.IsDecl, "declaration"},
		{c.IsFunction, "function"},
		{c.IsLval, "lval"},
		{c.IsScopeBoundary, "scope"},
		{c.IsFunctionScope, "function scope"},
	} {
		if flag.set {
			res = append(res, flag.name)
		}
	}

	return res
}

func names(reg *schema.Registry, tags []schema.Tag) []string {
	res := make([]string, len(tags))
	for i, t := range tags {
		res[i] = reg.Name(t)
	}

	return res
}
