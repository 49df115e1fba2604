package drawer

import (
	"time"

	"github.com/askiada/go-curate/pkg/curate/measure"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// Drawer is an interface that defines the methods for drawing a workflow run.
type Drawer interface {
	// Reset drops everything drawn so far.
	Reset()
	// AddStep adds a stage to the drawing.
	AddStep(name string) error
	// AddLink adds a link between two consecutive stages.
	AddLink(parentName, childName string) error
	// AddStats labels the link into name with the records it received and
	// colours name by the share of records it rejected.
	AddStats(parentName, name string, stats model.StepStats) error
	// SetTotalTime sets the total time on a stage.
	SetTotalTime(name string, startTime time.Time) error
	// AddMeasure adds per-stage timings to the drawing.
	AddMeasure(msr measure.Measure) error
	// Draw writes the drawing.
	Draw() error
}
