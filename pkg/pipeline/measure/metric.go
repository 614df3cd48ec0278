package measure

import (
	"sync"
	"time"
)

type RegionInfo struct {
	Elapsed time.Duration
	total   int64
}

type DefaultMetric struct {
	allRegions   map[string]*RegionInfo
	mu           *sync.Mutex
	PassDuration time.Duration
	stepElapsed  time.Duration
	total        int64
	workers      int
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) SetPassDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.PassDuration = elapsed
}

func (mt *DefaultMetric) GetPassDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.PassDuration
}

func (mt *DefaultMetric) AddRegionDuration(regionName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.allRegions[regionName] == nil {
		mt.allRegions[regionName] = &RegionInfo{}
	}
	ch := mt.allRegions[regionName]
	ch.Elapsed += elapsed
	ch.total++
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

func (mt *DefaultMetric) AVGRegionDuration() map[string]*RegionInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for name, ch := range mt.allRegions {
		if ch.Elapsed == 0 || ch.total == 0 {
			continue
		}
		mt.allRegions[name].Elapsed = round(time.Duration(float64(ch.Elapsed) / float64(ch.total)))
	}

	return mt.allRegions
}

func (mt *DefaultMetric) AllRegions() map[string]*RegionInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.allRegions
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	case d > time.Minute:
		d = d.Round(time.Minute)
	case d > time.Hour:
		d = d.Round(time.Hour)
	}

	return d
}
