package measure

import (
	"time"

	"github.com/askiada/go-curate/pkg/curate/model"
)

// Measure collects one Metric per stage of a run.
type Measure interface {
	AddMetric(key string, concurrent int) Metric
	GetMetric(key string) Metric
	AllMetrics() map[string]Metric
}

// Metric holds the timings and counters of a stage.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	Calls() int64
	Concurrent() int
	SetStats(stats model.StepStats)
	Stats() model.StepStats
	SetTotalDuration(total time.Duration)
	GetTotalDuration() time.Duration
}
