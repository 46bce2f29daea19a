package main

import (
	"fmt"
	"iter"

	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/scope"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/trace"
)

// EventsCmd represents the events command
type EventsCmd struct {
	File    string `arg:"" help:"Source file (- for stdin, .xml for event documents)" default:"-"`
	Format  string `help:"Output format" enum:"text,xml" default:"text"`
	Resolve bool   `help:"Attach symbols before printing"`
}

// Run executes the events command
func (cmd *EventsCmd) Run(ctx *Context) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	root, err := parseFile(a.reg, cmd.File)
	if err != nil {
		return err
	}

	var seq iter.Seq[stream.Event] = stream.Produce(a.reg, root, schema.Top)

	if cmd.Resolve {
		opts, err := scope.OptionsFromConfig(a.config, a.logger)
		if err != nil {
			return err
		}

		events, err := scope.Resolve(a.reg, binding.NewTable(), seq, opts)
		if err != nil {
			return err
		}

		seq = stream.Slice(events)
	}

	seq = trace.Log(a.reg, a.logger)(seq)

	switch cmd.Format {
	case "text":
		return trace.Write(ctx.Out, a.reg, seq)
	case "xml":
		return trace.WriteXML(ctx.Out, a.reg, seq)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, cmd.Format)
	}
}
