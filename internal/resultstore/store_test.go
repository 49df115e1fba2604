package resultstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-curate/internal/resultstore"
	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

func curated(t *testing.T) *curate.ResultSet {
	t.Helper()
	w, err := curate.New(steps.Default, []curate.Step{steps.FlagBoron(), steps.RemoveDuplicates(), steps.NumericLabel()},
		curate.WithName("store"), curate.SuppressWarnings())
	require.NoError(t, err)
	res, err := w.Curate(context.Background(), []curate.Input{
		{ID: "a", Smiles: "CCO", Label: model.TextLabel("1")},
		{ID: "b", Smiles: "OCC", Label: model.TextLabel("2")},
		{ID: "c", Smiles: "OB(O)O", Label: model.TextLabel("3")},
		{ID: "d", Smiles: "c1ccccc1", Label: model.TextLabel("4.5")},
	})
	require.NoError(t, err)
	return res
}

func openStore(t *testing.T) *resultstore.Store {
	t.Helper()
	s, err := resultstore.Open(filepath.Join(t.TempDir(), "nested", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)
	res := curated(t)
	require.NoError(t, s.SaveRun(ctx, res))

	run, err := s.Run(ctx, res.RunID())
	require.NoError(t, err)
	assert.Equal(t, "store", run.Name)
	assert.Equal(t, res.Workflow().String(), run.Workflow)
	assert.Equal(t, res.Workflow().WorkflowHash(), run.WorkflowHash)
	assert.Equal(t, res.Workflow().SourceHash(), run.SourceHash)
	assert.Equal(t, "trusted", run.Trust)
	assert.Equal(t, 4, run.NumRecords)
	assert.Equal(t, 2, run.NumPassed)
	assert.Equal(t, res.Elapsed(), run.Elapsed)
	assert.False(t, run.CreatedAt.IsZero())

	stages, err := s.Stages(ctx, res.RunID())
	require.NoError(t, err)
	want := res.Stats()
	require.Len(t, stages, len(want))
	for i := range want {
		assert.Equal(t, want[i], stages[i])
	}

	records, err := s.Records(ctx, res.RunID(), false)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "1", records[0].Label)
	assert.True(t, records[0].Passed)
	assert.Len(t, records[0].Notes, 1)
	assert.Empty(t, records[0].Issues)
	assert.False(t, records[1].Passed)
	assert.Equal(t, []model.Annotation{{Index: 3, Step: steps.NameRemoveDuplicates, Text: "compound is duplicate"}}, records[1].Issues)

	passed, err := s.Records(ctx, res.RunID(), true)
	require.NoError(t, err)
	require.Len(t, passed, 2)
	assert.Equal(t, []string{"a", "d"}, []string{passed[0].ID, passed[1].ID})
}

func TestRunsAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t)
	first, second := curated(t), curated(t)
	require.NoError(t, s.SaveRun(ctx, first))
	require.NoError(t, s.SaveRun(ctx, second))
	assert.Error(t, s.SaveRun(ctx, first))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.RunID(), runs[0].RunID)

	require.NoError(t, s.DeleteRun(ctx, first.RunID()))
	_, err = s.Run(ctx, first.RunID())
	assert.True(t, errors.Is(err, resultstore.ErrRunNotFound))
	records, err := s.Records(ctx, first.RunID(), false)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, errors.Is(s.DeleteRun(ctx, first.RunID()), resultstore.ErrRunNotFound))
}

func TestReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := resultstore.Open(path)
	require.NoError(t, err)
	res := curated(t)
	require.NoError(t, s.SaveRun(ctx, res))
	require.NoError(t, s.Close())

	s, err = resultstore.Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
	run, err := s.Run(ctx, res.RunID())
	require.NoError(t, err)
	assert.Equal(t, res.NumPassed(), run.NumPassed)
}
