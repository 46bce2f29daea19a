// Package trace renders event streams for humans: indented colored text,
// debug log records and XML documents.
package trace

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

var (
	openFmt     = color.New(color.FgGreen).SprintFunc()
	closeFmt    = color.New(color.FgRed).SprintFunc()
	terminalFmt = color.New(color.FgBlue).SprintFunc()
	controlFmt  = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

// Text renders one event at the given depth without colors.
func Text(reg *schema.Registry, e stream.Event, depth int) string {
	return strings.Repeat("  ", depth) + e.Format(reg)
}

// Lines renders stored events without colors, indented by depth.
func Lines(reg *schema.Registry, events []stream.Event) []string {
	res := make([]string, 0, len(events))
	depth := 0

	for _, e := range events {
		if e.IsClose() {
			depth--
		}

		res = append(res, Text(reg, e, depth))

		if e.IsOpen() {
			depth++
		}
	}

	return res
}

// Line renders one event at the given depth.
func Line(reg *schema.Registry, e stream.Event, depth int) string {
	s := e.Format(reg)

	switch {
	case reg.KindOf(e.Type) == schema.KindControl:
		s = controlFmt(s)
	case e.IsTerminal():
		s = terminalFmt(s)
	case e.IsOpen():
		s = openFmt(s)
	default:
		s = closeFmt(s)
	}

	return strings.Repeat("  ", depth) + s
}

// Pass writes every event passing through to w, one line each.
func Pass(reg *schema.Registry, w io.Writer) stream.Pass {
	return func(seq iter.Seq[stream.Event]) iter.Seq[stream.Event] {
		return func(yield func(stream.Event) bool) {
			depth := 0

			for e := range seq {
				if e.IsClose() {
					depth--
				}

				fmt.Fprintln(w, Line(reg, e, depth))

				if e.IsOpen() {
					depth++
				}

				if !yield(e) {
					return
				}
			}
		}
	}
}

// Write drains seq into w.
func Write(w io.Writer, reg *schema.Registry, seq iter.Seq[stream.Event]) error {
	_, err := stream.Collect(Pass(reg, w)(seq))

	return err
}

// Log logs every event passing through at debug level.
func Log(reg *schema.Registry, logger *zap.Logger) stream.Pass {
	return func(seq iter.Seq[stream.Event]) iter.Seq[stream.Event] {
		return func(yield func(stream.Event) bool) {
			if !logger.Core().Enabled(zap.DebugLevel) {
				for e := range seq {
					if !yield(e) {
						return
					}
				}

				return
			}

			depth := 0

			for e := range seq {
				if e.IsClose() {
					depth--
				}

				logger.Debug("event",
					zap.Int("depth", depth),
					zap.String("pos", reg.Name(e.Pos)),
					zap.String("type", reg.Name(e.Type)),
					zap.String("event", e.Format(reg)))

				if e.IsOpen() {
					depth++
				}

				if !yield(e) {
					return
				}
			}
		}
	}
}
