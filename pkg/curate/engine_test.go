package curate_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-curate/pkg/chem"
	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

func TestDeadRecordsSkipLaterSteps(t *testing.T) {
	t.Parallel()

	early := newMaxAtoms(model.RankExclude, 4)
	late := newMaxAtoms(model.RankDeduplicate, 100)
	w, err := curate.New(testCatalog(), []curate.Step{late, early, steps.RemoveStereochem()}, curate.SuppressWarnings())
	require.NoError(t, err)

	res, err := w.CurateSmiles(context.Background(), []string{"CCCC", "CCCCCC", "C1CC", "CCO"})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, false, true}, res.PassingMask())
	assert.ElementsMatch(t, canon("CCCC", "CCO"), late.Seen())
	assert.ElementsMatch(t, canon("CCCC", "CCCCCC", "CCO"), early.Seen())

	tooBig := res.Record(1)
	assert.Equal(t, []model.Annotation{{Index: 2, Step: "MaxAtoms", Text: "too many atoms"}}, tooBig.Issues())
	unparsed := res.Record(2)
	assert.Equal(t, []model.Annotation{{Index: 0, Step: model.LoadStage, Text: curate.LoadIssue}}, unparsed.Issues())
	assert.Nil(t, unparsed.Structure())
	assert.Empty(t, unparsed.Notes())

	assert.Equal(t, []int{1, 0, 1, 0}, res.IssueCounts())
	assert.Equal(t, []int{0, 3, 0, 0}, res.NoteCounts())
	last, ok := res.StatsAt(3)
	require.True(t, ok)
	assert.Equal(t, 2, last.Input)
	assert.Equal(t, 2, last.Remaining)
	_, ok = res.StatsAt(4)
	assert.False(t, ok)
	assert.Len(t, res.StatsFor("MaxAtoms"), 2)
}

func TestAllDeadStillRunsEverything(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	w, err := curate.New(testCatalog(), []curate.Step{steps.FlagBoron(), steps.RemoveDuplicates()}, curate.WithRunOptions(rec))
	require.NoError(t, err)
	res, err := w.CurateSmiles(context.Background(), []string{"B(O)(O)O", "not a smiles"})
	require.NoError(t, err)

	assert.Empty(t, res.Passing())
	assert.Len(t, res.Failed(), 2)
	require.Len(t, res.Stats(), 3)
	assert.Equal(t, 0, res.Stats()[2].Input)
	assert.Equal(t, []string{
		"new",
		"prepare Load", "after Load",
		"prepare FlagBoron", "after FlagBoron",
		"prepare RemoveDuplicates", "after RemoveDuplicates",
	}, rec.calls)
	assert.True(t, rec.finished)
	assert.Equal(t, 4, rec.records)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	updates := []curate.Step{steps.DemixLargestFragment(), steps.RemoveStereochem(), steps.Neutralize()}
	input := "C[C@@H](N)C(=O)[O-].[Na+]"

	off, err := curate.New(testCatalog(), updates)
	require.NoError(t, err)
	res, err := off.CurateSmiles(context.Background(), []string{input})
	require.NoError(t, err)
	assert.Empty(t, res.Record(0).History())
	assert.Len(t, res.Record(0).Notes(), 3)

	on, err := curate.New(testCatalog(), updates, curate.WithHistory(true))
	require.NoError(t, err)
	res, err = on.CurateSmiles(context.Background(), []string{input})
	require.NoError(t, err)

	history := res.Record(0).History()
	require.Len(t, history, 3)
	want := []string{
		chem.MustParse(input).String(),
		chem.MustParse("C[C@@H](N)C(=O)[O-]").String(),
		chem.MustParse("CC(N)C(=O)[O-]").String(),
	}
	for i, snap := range history {
		assert.Equal(t, want[i], snap.Structure.String())
		assert.Equal(t, i+1, snap.Index)
	}
	assert.Equal(t, chem.MustParse("CC(N)C(=O)O").String(), res.Record(0).Smiles())
}

func TestHistorySkipsFilters(t *testing.T) {
	t.Parallel()

	w, err := curate.New(testCatalog(), []curate.Step{steps.FlagBoron(), steps.RemoveStereochem(), mustMW(t, 1, 500)},
		curate.WithHistory(true), curate.SuppressWarnings())
	require.NoError(t, err)
	res, err := w.CurateSmiles(context.Background(), []string{"CCO"})
	require.NoError(t, err)
	assert.Len(t, res.Record(0).History(), 1)
}

func TestContractViolation(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		step   curate.Step
		record string
	}{
		"update fails without issue": {step: newBrokenUpdate(), record: "1"},
		"update returns no structure": {step: &nilUpdate{curate.UpdateBase{
			Meta: curate.Meta{StepName: "Nil", StepRank: model.RankStandardize},
			Note: "nothing",
		}}, record: "0"},
		"batch returns too few verdicts": {step: &shortBatch{curate.FilterBase{
			Meta:  curate.Meta{StepName: "Short", StepRank: model.RankDeduplicate},
			Issue: "short",
		}}, record: "*"},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			w, err := curate.New(testCatalog(), []curate.Step{tc.step})
			require.NoError(t, err)
			res, err := w.CurateSmiles(context.Background(), []string{"CC", "CCO", "CCC"})
			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, curate.ErrContractViolation))
			var cerr *curate.ContractError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.step.Name(), cerr.Step)
			assert.Equal(t, tc.record, cerr.Record)
			assert.Equal(t, 1, cerr.Index)
		})
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	slow := &slowFilter{curate.FilterBase{Meta: curate.Meta{StepName: "Slow", StepRank: model.RankExclude}, Issue: "slow"}}
	w, err := curate.New(testCatalog(), []curate.Step{slow}, curate.WithWorkers(2))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := w.CurateSmiles(ctx, []string{"C", "CC", "CCC", "CCCC"})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	_, err = w.CurateSmiles(ctx, []string{"C"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	pool := []string{"CCO", "OCC", "C[C@@H](O)N", "CC(=O)[O-].[Na+]", "OB(O)c1ccccc1", "xx", "CCCCCCCCCCCCCCCC", "c1ccncc1"}
	inputs := make([]curate.Input, 200)
	for i := range inputs {
		inputs[i] = curate.Input{ID: "id-" + strconv.Itoa(i), Smiles: pool[i%len(pool)], Label: model.TextLabel(strconv.Itoa(i % 7))}
	}
	build := func(workers int) *curate.ResultSet {
		w, err := curate.New(testCatalog(), []curate.Step{
			steps.RemoveDuplicates(), steps.NumericLabel(), mustMW(t, 20, 200), steps.FlagBoron(),
			steps.Neutralize(), steps.DemixLargestFragment(), steps.RemoveStereochem(),
		}, curate.WithWorkers(workers), curate.SuppressWarnings())
		require.NoError(t, err)
		res, err := w.Curate(context.Background(), inputs)
		require.NoError(t, err)
		return res
	}

	seq, par := build(1), build(8)
	assert.Equal(t, seq.PassingMask(), par.PassingMask())
	assert.Equal(t, seq.Report(), par.Report())
	assert.Equal(t, 4, seq.NumPassed())
	assert.ElementsMatch(t, canon("CCO", "CC(O)N", "CC(=O)O", "c1ccncc1"), seq.PassingSmiles())
}

func TestCurateMols(t *testing.T) {
	t.Parallel()

	w, err := curate.New(testCatalog(), []curate.Step{steps.RemoveStereochem()})
	require.NoError(t, err)
	mol := chem.MustParse("C[C@@H](O)N")
	res, err := w.CurateMols(context.Background(), []*chem.Mol{mol})
	require.NoError(t, err)
	assert.True(t, mol.HasStereo())
	assert.False(t, res.Record(0).Structure().HasStereo())
	assert.Equal(t, "0", res.Record(0).ID())
}

func TestRecordIsolation(t *testing.T) {
	t.Parallel()

	w, err := curate.New(testCatalog(), []curate.Step{steps.RemoveStereochem()}, curate.WithHistory(true))
	require.NoError(t, err)
	res, err := w.CurateSmiles(context.Background(), []string{"C[C@@H](O)N"})
	require.NoError(t, err)

	rec := res.Record(0)
	notes := rec.Notes()
	notes[0].Text = "changed"
	assert.Equal(t, "stereochemistry removed", rec.Notes()[0].Text)

	snap := rec.History()[0].Structure
	flat := snap.WithoutStereo()
	assert.NotEqual(t, flat.String(), rec.History()[0].Structure.String())
}
