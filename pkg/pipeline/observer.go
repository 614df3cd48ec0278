package pipeline

import (
	"sync"

	"github.com/EvgenyM/audiveris/pkg/sheet"
)

// StepAdvancedFunc is notified when a sheet's marker passes a step.
type StepAdvancedFunc func(sh *sheet.Sheet, step Step)

// GraphChangedFunc is notified when a region's graph was mutated by a
// pass or an applied transaction.
type GraphChangedFunc func(region *sheet.Region)

// observers is a per-pipeline registry; it dies with its pipeline, there
// is no process-wide listener state.
type observers struct {
	mu           sync.Mutex
	nextID       int
	stepAdvanced []observerEntry[StepAdvancedFunc]
	graphChanged []observerEntry[GraphChangedFunc]
}

type observerEntry[F any] struct {
	id int
	fn F
}

// OnStepAdvanced registers an observer and returns its unsubscribe func.
func (p *Pipeline) OnStepAdvanced(fn StepAdvancedFunc) func() {
	p.obs.mu.Lock()
	defer p.obs.mu.Unlock()

	p.obs.nextID++
	id := p.obs.nextID
	p.obs.stepAdvanced = append(p.obs.stepAdvanced, observerEntry[StepAdvancedFunc]{id: id, fn: fn})

	return func() {
		p.obs.mu.Lock()
		defer p.obs.mu.Unlock()
		for i, e := range p.obs.stepAdvanced {
			if e.id == id {
				p.obs.stepAdvanced = append(p.obs.stepAdvanced[:i], p.obs.stepAdvanced[i+1:]...)
				return
			}
		}
	}
}

// OnGraphChanged registers an observer and returns its unsubscribe func.
func (p *Pipeline) OnGraphChanged(fn GraphChangedFunc) func() {
	p.obs.mu.Lock()
	defer p.obs.mu.Unlock()

	p.obs.nextID++
	id := p.obs.nextID
	p.obs.graphChanged = append(p.obs.graphChanged, observerEntry[GraphChangedFunc]{id: id, fn: fn})

	return func() {
		p.obs.mu.Lock()
		defer p.obs.mu.Unlock()
		for i, e := range p.obs.graphChanged {
			if e.id == id {
				p.obs.graphChanged = append(p.obs.graphChanged[:i], p.obs.graphChanged[i+1:]...)
				return
			}
		}
	}
}

func (p *Pipeline) notifyStepAdvanced(sh *sheet.Sheet, step Step) {
	p.obs.mu.Lock()
	entries := make([]observerEntry[StepAdvancedFunc], len(p.obs.stepAdvanced))
	copy(entries, p.obs.stepAdvanced)
	p.obs.mu.Unlock()

	for _, e := range entries {
		e.fn(sh, step)
	}
}

func (p *Pipeline) notifyGraphChanged(region *sheet.Region) {
	p.obs.mu.Lock()
	entries := make([]observerEntry[GraphChangedFunc], len(p.obs.graphChanged))
	copy(entries, p.obs.graphChanged)
	p.obs.mu.Unlock()

	for _, e := range entries {
		e.fn(region)
	}
}
