package main

import (
	"fmt"
	"slices"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/match"
	"github.com/shibukawa/estream/parser"
	"github.com/shibukawa/estream/printer"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// MatchCmd represents the match command
type MatchCmd struct {
	File    string   `arg:"" help:"Source file (- for stdin)" default:"-"`
	Pattern []string `short:"p" help:"Pattern; a leading > matches declarators, = expressions" required:""`
	Where   string   `short:"w" help:"CEL guard over the captures, applied to every pattern"`
}

// Run executes the match command
func (cmd *MatchCmd) Run(ctx *Context) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	patterns := make([]match.Pattern, len(cmd.Pattern))
	for i, src := range cmd.Pattern {
		patterns[i] = match.Pattern{Source: src, Where: cmd.Where}
	}

	m, err := match.Compile(kit.NewFragments(a.reg, parser.New()), patterns...)
	if err != nil {
		return err
	}

	root, err := parseFile(a.reg, cmd.File)
	if err != nil {
		return err
	}

	events, err := stream.Collect(stream.Produce(a.reg, root, schema.Top))
	if err != nil {
		return err
	}

	found, err := m.Find(events)
	if err != nil {
		return err
	}

	a.logger.Debug("matched", zap.Int("events", len(events)), zap.Int("matches", len(found)))

	head := color.New(color.FgCyan, color.Bold).SprintFunc()

	for _, f := range found {
		fmt.Fprintf(ctx.Out, "%s %s\n", head(fmt.Sprintf("#%d", f.Index)), printer.Print(f.Root.Node))

		names := make([]string, 0, len(f.Captures))
		for name := range f.Captures {
			names = append(names, name)
		}

		slices.Sort(names)

		for _, name := range names {
			fmt.Fprintf(ctx.Out, "  %s = %s\n", name, printer.Print(f.Captures[name].Node))
		}
	}

	if !ctx.Quiet {
		fmt.Fprintf(ctx.Out, "%d %s\n", len(found), plural(len(found), "match", "matches"))
	}

	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}

	return many
}
