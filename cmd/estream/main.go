package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
	Out     io.Writer
}

// CLI represents the command-line interface
var CLI struct {
	Config  string     `help:"Configuration file path" default:"estream.yaml"`
	Verbose bool       `help:"Enable verbose output" short:"v"`
	Quiet   bool       `help:"Suppress output" short:"q"`
	NoColor bool       `help:"Disable colored output" name:"no-color"`
	Events  EventsCmd  `cmd:"" help:"Print the event stream of a source file"`
	Resolve ResolveCmd `cmd:"" help:"Resolve scopes and print the renamed source"`
	Match   MatchCmd   `cmd:"" help:"Find pattern matches in a source file"`
	Schema  SchemaCmd  `cmd:"" help:"Show the node types of the grammar"`
	Test    TestCmd    `cmd:"" help:"Run golden case documents"`
	Format  FormatCmd  `cmd:"" help:"Format JavaScript blocks of markdown files"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Out, "estream v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("estream"),
		kong.Description("Event stream tooling for ECMAScript syntax trees"))

	if CLI.NoColor {
		color.NoColor = true
	}

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Out:     os.Stdout,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
