package drawer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/drawer"
	"github.com/askiada/go-curate/pkg/curate/measure"
	"github.com/askiada/go-curate/pkg/curate/model"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

func TestRunDrawer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.dot")
	msr := measure.NewDefaultMeasure()
	w, err := curate.New(steps.Default, []curate.Step{steps.FlagBoron(), steps.RemoveStereochem()},
		curate.WithRunOptions(measure.RunMeasure(msr), drawer.RunDrawer(drawer.NewDOTDrawer(path), msr)))
	require.NoError(t, err)

	_, err = w.CurateSmiles(context.Background(), []string{"CCO", "OB(O)O", "C[C@H](O)N", "C("})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "strict digraph {"))
	load := strings.Index(out, `"0 Load" [`)
	stereo := strings.Index(out, `"1 RemoveStereochem" [`)
	boron := strings.Index(out, `"2 FlagBoron" [`)
	passed := strings.Index(out, `"Passed" [`)
	require.True(t, load >= 0 && stereo >= 0 && boron >= 0 && passed >= 0, out)
	assert.Less(t, load, stereo)
	assert.Less(t, stereo, boron)
	assert.Less(t, boron, passed)

	assert.Contains(t, out, `"0 Load" -> "1 RemoveStereochem" [ fontcolor="blue", label="3 records",`)
	assert.Contains(t, out, `"1 RemoveStereochem" -> "2 FlagBoron" [ fontcolor="blue", label="3 records",`)
	assert.Contains(t, out, `"2 FlagBoron" -> "Passed" [ fontcolor="blue", label="2 records",`)
	assert.Contains(t, out, "total: ")
	assert.Contains(t, out, "avg: ")
}

func TestRunDrawerRepeatedRuns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.dot")
	w, err := curate.New(steps.Default, []curate.Step{steps.FlagBoron()},
		curate.WithRunOptions(drawer.RunDrawer(drawer.NewDOTDrawer(path), nil)))
	require.NoError(t, err)

	_, err = w.CurateSmiles(context.Background(), []string{"CCO", "OB(O)O"})
	require.NoError(t, err)
	_, err = w.CurateSmiles(context.Background(), []string{"CCO", "CCN", "CCC"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Equal(t, 1, strings.Count(out, `"0 Load" [`))
	assert.Equal(t, 1, strings.Count(out, `"Passed" [`))
	assert.Contains(t, out, `"1 FlagBoron" -> "Passed" [ fontcolor="blue", label="3 records",`)
	assert.NotContains(t, out, `label="1 records"`)
}

func TestDOTDrawerReset(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "x.dot"))
	require.NoError(t, d.AddStep("a"))
	d.Reset()
	require.NoError(t, d.AddStep("a"))

	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf))
	assert.Equal(t, 1, strings.Count(buf.String(), `"a" [`))
}

func TestRejectionColour(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		stats model.StepStats
		want  string
	}{
		"nothing rejected": {stats: model.StepStats{Input: 4}, want: `color="#0000f0"`},
		"all rejected":     {stats: model.StepStats{Input: 4, Issues: 4}, want: `color="#f00000"`},
		"half rejected":    {stats: model.StepStats{Input: 4, Issues: 2}, want: `color="#780078"`},
		"empty sub-batch":  {stats: model.StepStats{}, want: `color="#0000f0"`},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			d := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "x.dot"))
			require.NoError(t, d.AddStep("a"))
			require.NoError(t, d.AddStep("b"))
			require.NoError(t, d.AddLink("a", "b"))
			require.NoError(t, d.AddStats("a", "b", tc.stats))

			var buf bytes.Buffer
			require.NoError(t, d.Render(&buf))
			assert.Contains(t, buf.String(), tc.want)
		})
	}
}

func TestDrawerErrors(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "x.dot"))
	require.NoError(t, d.AddStep("a"))
	assert.Error(t, d.AddStep("a"))
	assert.Error(t, d.AddLink("a", "missing"))
	assert.Error(t, d.AddStats("", "missing", model.StepStats{}))

	bad := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "no", "such", "dir", "x.dot"))
	require.NoError(t, bad.AddStep("a"))
	assert.Error(t, bad.Draw())
}
