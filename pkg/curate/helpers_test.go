package curate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-curate/pkg/chem"
	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

// maxAtoms rejects structures above a heavy atom count and records what it saw.
type maxAtoms struct {
	curate.FilterBase
	limit int
	mu    sync.Mutex
	seen  []string
}

func newMaxAtoms(rank model.Rank, limit int) *maxAtoms {
	return &maxAtoms{
		FilterBase: curate.FilterBase{
			Meta:  curate.Meta{StepName: "MaxAtoms", StepRank: rank, Args: model.Params{"limit": limit}},
			Issue: "too many atoms",
		},
		limit: limit,
	}
}

func (s *maxAtoms) Filter(_ context.Context, sub curate.Subject) bool {
	s.mu.Lock()
	s.seen = append(s.seen, sub.Structure.String())
	s.mu.Unlock()
	return sub.Structure.NumHeavyAtoms() <= s.limit
}

func (s *maxAtoms) Seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

// brokenUpdate declares no issue but fails on every structure with oxygen.
type brokenUpdate struct {
	curate.UpdateBase
}

func newBrokenUpdate() *brokenUpdate {
	return &brokenUpdate{curate.UpdateBase{
		Meta: curate.Meta{StepName: "Broken", StepRank: model.RankStandardize},
		Note: "never fails",
	}}
}

func (s *brokenUpdate) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	return sub, !sub.Structure.HasElement("O")
}

// nilUpdate claims success without a structure.
type nilUpdate struct {
	curate.UpdateBase
}

func (s *nilUpdate) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	return curate.Subject{Label: sub.Label}, true
}

// shortBatch returns one verdict too few.
type shortBatch struct {
	curate.FilterBase
}

func (s *shortBatch) FilterBatch(_ context.Context, subjects []curate.Subject) []bool {
	if len(subjects) == 0 {
		return nil
	}
	return make([]bool, len(subjects)-1)
}

// noCapability is a filter with no Filter method.
type noCapability struct {
	curate.FilterBase
}

// slowFilter waits for the context on every record.
type slowFilter struct {
	curate.FilterBase
}

func (s *slowFilter) Filter(ctx context.Context, _ curate.Subject) bool {
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
	}
	return true
}

// testCatalog holds the built-in steps plus the test-only ones above.
func testCatalog() *curate.Catalog {
	c := curate.NewCatalog()
	for _, name := range steps.Default.Names() {
		src, _ := steps.Default.Source(name)
		name := name
		var factory curate.Factory
		if steps.Default.Loadable(name) {
			factory = func(p model.Params) (curate.Step, error) {
				return steps.Default.Build(name, p)
			}
		}
		c.MustRegister(name, src, factory)
	}
	for _, name := range []string{"MaxAtoms", "Broken", "Nil", "Short", "NoCapability", "Slow"} {
		c.MustRegister(name, []byte("test step "+name), nil)
	}
	return c
}

// recorder is a run option keeping every hook call.
type recorder struct {
	mu       sync.Mutex
	calls    []string
	records  int
	stats    []model.StepStats
	finished bool
}

func (r *recorder) New() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "new")
	return nil
}

func (r *recorder) PrepareStep(step *model.StepInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "prepare "+step.Name)
	return nil
}

func (r *recorder) OnRecord(_ *model.StepInfo, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records++
	return nil
}

func (r *recorder) AfterStep(step *model.StepInfo, stats model.StepStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "after "+step.Name)
	r.stats = append(r.stats, stats)
	return nil
}

func (r *recorder) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
	return nil
}

func mustMW(t *testing.T, min, max float64) curate.Step {
	t.Helper()
	s, err := steps.FilterMW(min, max)
	require.NoError(t, err)
	return s
}

func mustAdd3DSeconds(t *testing.T, seconds int) curate.Step {
	t.Helper()
	s, err := steps.Add3D(time.Duration(seconds) * time.Second)
	require.NoError(t, err)
	return s
}

func canon(smiles ...string) []string {
	out := make([]string, len(smiles))
	for i, smi := range smiles {
		out[i] = chem.MustParse(smi).String()
	}
	return out
}
