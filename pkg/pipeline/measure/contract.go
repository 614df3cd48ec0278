package measure

import "time"

type Measure interface {
	AddMetric(stepName string, workers int) Metric
	GetMetric(stepName string) Metric
	AllMetrics() map[string]Metric
}

type Metric interface {
	AddDuration(elapsed time.Duration)
	AddRegionDuration(regionName string, elapsed time.Duration)
	AVGDuration() time.Duration
	AVGRegionDuration() map[string]*RegionInfo
	SetPassDuration(elapsed time.Duration)
	GetPassDuration() time.Duration
	AllRegions() map[string]*RegionInfo
}
