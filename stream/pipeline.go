package stream

import (
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/tree"
)

type namedPass struct {
	name string
	pass Pass
}

// Pipeline runs named passes over a tree and logs each of them.
type Pipeline struct {
	reg    *schema.Registry
	passes []namedPass
	logger *zap.Logger
	verify bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger passes report to.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithVerify checks structural balance after every pass.
func WithVerify() Option {
	return func(p *Pipeline) {
		p.verify = true
	}
}

// NewPipeline creates an empty pipeline.
func NewPipeline(reg *schema.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{reg: reg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Add appends a pass.
func (p *Pipeline) Add(name string, pass Pass) *Pipeline {
	p.passes = append(p.passes, namedPass{name: name, pass: pass})
	return p
}

// Len returns the number of passes.
func (p *Pipeline) Len() int {
	return len(p.passes)
}

// Events applies every pass to seq lazily.
func (p *Pipeline) Events(seq iter.Seq[Event]) iter.Seq[Event] {
	for _, np := range p.passes {
		seq = p.observe(np.name, np.pass(seq))
		if p.verify {
			seq = Verify(p.reg)(seq)
		}
	}

	return seq
}

// Run transforms root through every pass.
func (p *Pipeline) Run(root *tree.Node) (res *tree.Node, err error) {
	defer estream.Recover(&err)

	p.logger.Debug("pipeline started", zap.Int("passes", len(p.passes)))

	res, err = Consume(p.reg, p.Events(Produce(p.reg, root, schema.Top)))
	if err != nil {
		p.logger.Error("pipeline failed", zap.Error(err))
		return nil, err
	}

	return res, nil
}

// RunEvents applies every pass to seq and collects the result.
func (p *Pipeline) RunEvents(seq iter.Seq[Event]) ([]Event, error) {
	events, err := Collect(p.Events(seq))
	if err != nil {
		p.logger.Error("pipeline failed", zap.Error(err))
	}

	return events, err
}

func (p *Pipeline) observe(name string, seq iter.Seq[Event]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		start := time.Now()
		count := 0

		defer func() {
			p.logger.Debug("pass finished",
				zap.String("pass", name),
				zap.Int("events", count),
				zap.Duration("elapsed", time.Since(start)))
		}()

		for e := range seq {
			count++

			if !yield(e) {
				return
			}
		}
	}
}
