package scope

import (
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// Prepare annotates field descriptors, collects declarations and binds
// references. The returned events are ready for passes that read symbols.
func Prepare(reg *schema.Registry, table *binding.Table, seq iter.Seq[stream.Event], opts Options) ([]stream.Event, error) {
	events, err := stream.Run(seq, stream.AnnotateFields(reg))
	if err != nil {
		return nil, err
	}

	if err := Collect(reg, table, events, opts); err != nil {
		return nil, err
	}

	if err := Assign(reg, table, events); err != nil {
		return nil, err
	}

	return events, nil
}

// Resolve is Prepare followed by frame computation and name solving.
func Resolve(reg *schema.Registry, table *binding.Table, seq iter.Seq[stream.Event], opts Options) ([]stream.Event, error) {
	start := time.Now()

	events, err := Prepare(reg, table, seq, opts)
	if err != nil {
		return nil, err
	}

	BlockRefs(events)
	RefScopes(events)
	Solve(reg, table, events, opts)

	opts.logger().Debug("resolved scopes",
		zap.Int("events", len(events)),
		zap.Duration("elapsed", time.Since(start)))

	return events, nil
}

// PreparePass is Prepare as a pipeline pass. Errors are raised.
func PreparePass(reg *schema.Registry, table *binding.Table, opts Options) stream.Pass {
	return materialize(func(seq iter.Seq[stream.Event]) ([]stream.Event, error) {
		return Prepare(reg, table, seq, opts)
	})
}

// ResolvePass is Resolve as a pipeline pass. Errors are raised.
func ResolvePass(reg *schema.Registry, table *binding.Table, opts Options) stream.Pass {
	return materialize(func(seq iter.Seq[stream.Event]) ([]stream.Event, error) {
		return Resolve(reg, table, seq, opts)
	})
}

func materialize(run func(iter.Seq[stream.Event]) ([]stream.Event, error)) stream.Pass {
	return func(seq iter.Seq[stream.Event]) iter.Seq[stream.Event] {
		return func(yield func(stream.Event) bool) {
			events, err := run(seq)
			if err != nil {
				estream.Raise(estream.AsError(err))
			}

			for _, e := range events {
				if !yield(e) {
					return
				}
			}
		}
	}
}
