package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate/measure"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// PassedStep is the last vertex of a drawing. It receives the records that
// passed every stage.
const PassedStep = "Passed"

type runDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
	prev      string
	remaining int
}

func (rd *runDrawer) New() error {
	rd.Reset()
	rd.startTime = time.Now()
	rd.prev = ""
	rd.remaining = 0

	return nil
}

func (rd *runDrawer) PrepareStep(step *model.StepInfo) error {
	name := measure.StageKey(step.Index, step.Name)

	err := rd.AddStep(name)
	if err != nil {
		return err
	}

	if rd.prev != "" {
		err = rd.AddLink(rd.prev, name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (rd *runDrawer) OnRecord(_ *model.StepInfo, _ time.Duration) error {
	return nil
}

func (rd *runDrawer) AfterStep(step *model.StepInfo, stats model.StepStats) error {
	name := measure.StageKey(step.Index, step.Name)

	err := rd.AddStats(rd.prev, name, stats)
	if err != nil {
		return errors.Wrapf(err, "unable to add stats of %s", name)
	}

	rd.prev = name
	rd.remaining = stats.Remaining

	return nil
}

func (rd *runDrawer) Finish() error {
	err := rd.AddStep(PassedStep)
	if err != nil {
		return errors.Wrap(err, "unable to add passed step to drawer")
	}

	if rd.prev != "" {
		err = rd.AddLink(rd.prev, PassedStep)
		if err != nil {
			return err
		}

		err = rd.AddStats(rd.prev, PassedStep, model.StepStats{Name: PassedStep, Input: rd.remaining, Remaining: rd.remaining})
		if err != nil {
			return err
		}
	}

	if rd.m != nil {
		err = rd.AddMeasure(rd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = rd.SetTotalTime(PassedStep, rd.startTime)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	err = rd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw workflow run")
	}

	return nil
}

// RunDrawer draws each run as a chain of stages from Load to PassedStep. Every
// run starts a fresh drawing, so the file holds the latest run; runs sharing
// the option must not overlap. When msr is set it must also be passed to the
// workflow, before this option, so its timings are complete when the drawing
// is written.
func RunDrawer(drawer Drawer, msr measure.Measure) model.RunOption {
	return &runDrawer{Drawer: drawer, m: msr}
}
