package curate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

func TestOrder(t *testing.T) {
	t.Parallel()

	dedupe := steps.RemoveDuplicates()
	numeric := steps.NumericLabel()
	stereoA := steps.RemoveStereochem()
	neutral := steps.Neutralize()
	stereoB := steps.RemoveStereochem()
	demix := steps.DemixLargestFragment()

	tcs := map[string]struct {
		in   []curate.Step
		want []curate.Step
	}{
		"empty":         {in: nil, want: []curate.Step{}},
		"already sorted": {in: []curate.Step{demix, stereoA, numeric}, want: []curate.Step{demix, stereoA, numeric}},
		"reversed":      {in: []curate.Step{dedupe, numeric, demix}, want: []curate.Step{demix, numeric, dedupe}},
		"stable ties":   {in: []curate.Step{stereoB, dedupe, neutral, stereoA}, want: []curate.Step{stereoB, neutral, stereoA, dedupe}},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := curate.Order(tc.in)
			assert.Len(t, got, len(tc.want))
			for i := range tc.want {
				assert.Same(t, tc.want[i], got[i])
			}
			again := curate.Order(got)
			for i := range got {
				assert.Same(t, got[i], again[i])
			}
		})
	}
}

func TestOrderLeavesInput(t *testing.T) {
	t.Parallel()

	in := []curate.Step{steps.RemoveDuplicates(), steps.DemixLargestFragment()}
	_ = curate.Order(in)
	assert.Equal(t, model.RankDeduplicate, in[0].Rank())
}
