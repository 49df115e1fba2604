package measure

import (
	"fmt"
	"sync"

	"github.com/askiada/go-curate/pkg/curate/model"
)

// StageKey names a stage uniquely within a run. The same step may appear
// twice in a workflow, so the stage index is part of the key.
func StageKey(index int, name string) string {
	return fmt.Sprintf("%d %s", index, name)
}

func stageKey(step *model.StepInfo) string {
	return StageKey(step.Index, step.Name)
}

type DefaultMeasure struct {
	mu    sync.RWMutex
	Steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(key string, concurrent int) Metric {
	mt := &DefaultMetric{
		mu:         &sync.Mutex{},
		concurrent: concurrent,
	}
	m.mu.Lock()
	m.Steps[key] = mt
	m.mu.Unlock()

	return mt
}

func (m *DefaultMeasure) GetMetric(key string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Steps[key]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Metric, len(m.Steps))
	for k, v := range m.Steps {
		out[k] = v
	}

	return out
}

var _ Measure = (*DefaultMeasure)(nil)
