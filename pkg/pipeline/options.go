package pipeline

import (
	"github.com/EvgenyM/audiveris/pkg/pipeline/drawer"
	"github.com/EvgenyM/audiveris/pkg/pipeline/measure"
)

type Option func(p *Pipeline)

// WithWorkers bounds the number of regions processed concurrently during
// one step pass. Values below 1 keep the default (number of CPUs).
func WithWorkers(workers int) Option {
	return func(p *Pipeline) {
		if workers > 0 {
			p.workers = workers
		}
	}
}

// WithBestEffort makes a pass attempt every region before reporting,
// instead of cancelling the pass on the first region failure. The sheet
// marker never advances past a failed step under either policy.
func WithBestEffort() Option {
	return func(p *Pipeline) {
		p.bestEffort = true
	}
}

// WithMeasure collects per-step timings into the given measure.
func WithMeasure(m measure.Measure) Option {
	return func(p *Pipeline) {
		p.measure = m
	}
}

// WithDrawer renders the step sequence when Finish is called.
func WithDrawer(d drawer.Drawer) Option {
	return func(p *Pipeline) {
		p.drawer = d
	}
}

// WithLogger replaces the no-op logger.
func WithLogger(log Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}
