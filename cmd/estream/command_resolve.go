package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/printer"
	"github.com/shibukawa/estream/scope"
	"github.com/shibukawa/estream/stream"
)

// ResolveCmd represents the resolve command
type ResolveCmd struct {
	File  string `arg:"" help:"Source file (- for stdin)" default:"-"`
	Check bool   `help:"Report duplicate declarations even when the config does not"`
	Style string `help:"Name style overriding the config" enum:",numeric,underscore" default:""`
}

// Run executes the resolve command
func (cmd *ResolveCmd) Run(ctx *Context) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	opts, err := cmd.options(a)
	if err != nil {
		return err
	}

	root, err := parseFile(a.reg, cmd.File)
	if err != nil {
		return err
	}

	pipeline := stream.NewPipeline(a.reg, stream.WithLogger(a.logger), stream.WithVerify()).
		Add("resolve", scope.ResolvePass(a.reg, binding.NewTable(), opts))

	res, err := pipeline.Run(root)
	if err != nil {
		return err
	}

	for _, line := range printer.Lines(res) {
		fmt.Fprintln(ctx.Out, line)
	}

	if ctx.Verbose && !ctx.Quiet {
		color.New(color.FgGreen).Fprintf(ctx.Out, "// resolved with %s names\n", opts.NameStyle)
	}

	return nil
}

func (cmd *ResolveCmd) options(a *app) (scope.Options, error) {
	opts, err := scope.OptionsFromConfig(a.config, a.logger)
	if err != nil {
		return scope.Options{}, err
	}

	if cmd.Check {
		opts.CheckCollisions = true
	}

	if cmd.Style != "" {
		opts.NameStyle, err = scope.ParseNameStyle(cmd.Style)
		if err != nil {
			return scope.Options{}, err
		}
	}

	return opts, nil
}
