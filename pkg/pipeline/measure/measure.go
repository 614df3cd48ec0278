// Package measure collects per-step timing for pipeline passes: the
// average region duration for a step and the wall time of whole passes.
package measure

import (
	"sync"
)

type DefaultMeasure struct {
	mu    sync.Mutex
	Steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(stepName string, workers int) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt := &DefaultMetric{
		mu:         &sync.Mutex{},
		allRegions: make(map[string]*RegionInfo),
		workers:    workers,
	}
	m.Steps[stepName] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(stepName string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps[stepName]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps
}

var _ Measure = (*DefaultMeasure)(nil)
