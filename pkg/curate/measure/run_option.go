package measure

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate/model"
)

type runMeasure struct {
	Measure
}

func (rm *runMeasure) New() error {
	return nil
}

func (rm *runMeasure) PrepareStep(step *model.StepInfo) error {
	rm.AddMetric(stageKey(step), step.Concurrent)

	return nil
}

func (rm *runMeasure) OnRecord(step *model.StepInfo, computation time.Duration) error {
	mt := rm.GetMetric(stageKey(step))
	if mt == nil {
		return errors.Errorf("no metric for stage %d (%s)", step.Index, step.Name)
	}
	mt.AddDuration(computation)

	return nil
}

func (rm *runMeasure) AfterStep(step *model.StepInfo, stats model.StepStats) error {
	mt := rm.GetMetric(stageKey(step))
	if mt == nil {
		return errors.Errorf("no metric for stage %d (%s)", step.Index, step.Name)
	}
	mt.SetStats(stats)
	mt.SetTotalDuration(stats.Elapsed)

	return nil
}

func (rm *runMeasure) Finish() error {
	return nil
}

// RunMeasure records the timings and counters of every stage in measure.
func RunMeasure(measure Measure) model.RunOption {
	return &runMeasure{measure}
}
