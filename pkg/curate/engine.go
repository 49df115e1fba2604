package curate

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-curate/internal/autoscaler"
	"github.com/askiada/go-curate/pkg/chem"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// LoadIssue is raised against inputs whose structure cannot be parsed.
const LoadIssue = "failed to parse structure"

// CurateSmiles runs the workflow over smiles. Record ids are input positions.
func (w *Workflow) CurateSmiles(ctx context.Context, smiles []string) (*ResultSet, error) {
	inputs := make([]Input, len(smiles))
	for i, smi := range smiles {
		inputs[i] = Input{ID: strconv.Itoa(i), Smiles: smi}
	}
	return w.Curate(ctx, inputs)
}

// CurateMols runs the workflow over structures that are already parsed.
func (w *Workflow) CurateMols(ctx context.Context, mols []*chem.Mol) (*ResultSet, error) {
	inputs := make([]Input, len(mols))
	for i, m := range mols {
		inputs[i] = Input{ID: strconv.Itoa(i), Smiles: m.String(), Structure: m}
	}
	return w.Curate(ctx, inputs)
}

// Curate runs every step, in order, over the records still alive. It fails
// when a step breaks its contract, when a run option fails or when ctx ends;
// no result set is returned in that case.
func (w *Workflow) Curate(ctx context.Context, inputs []Input) (*ResultSet, error) {
	start := time.Now()
	for _, opt := range w.runOptions {
		if err := opt.New(); err != nil {
			return nil, errors.Wrap(err, "unable to initialise run option")
		}
	}

	records := make([]*Record, len(inputs))
	stats := make([]model.StepStats, 0, len(w.steps)+1)
	loadStats, err := w.load(ctx, inputs, records)
	if err != nil {
		return nil, err
	}
	stats = append(stats, loadStats)

	for i, step := range w.steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "curation interrupted")
		}
		stepStats, err := w.runStep(ctx, i+1, step, records)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stepStats)
	}

	for _, opt := range w.runOptions {
		if err := opt.Finish(); err != nil {
			return nil, errors.Wrap(err, "unable to finish run option")
		}
	}

	res := newResultSet(w, records, stats, time.Since(start))
	w.logger.Info("curation finished",
		slog.String("run_id", res.RunID()),
		slog.Int("records", len(records)),
		slog.Int("passed", res.NumPassed()),
		slog.Duration("elapsed", res.Elapsed()),
	)
	return res, nil
}

func (w *Workflow) prepare(info *model.StepInfo) error {
	for _, opt := range w.runOptions {
		if err := opt.PrepareStep(info); err != nil {
			return errors.Wrapf(err, "unable to prepare %s", info.Name)
		}
	}
	return nil
}

func (w *Workflow) after(info *model.StepInfo, stats model.StepStats) error {
	for _, opt := range w.runOptions {
		if err := opt.AfterStep(info, stats); err != nil {
			return errors.Wrapf(err, "unable to close %s", info.Name)
		}
	}
	return nil
}

func (w *Workflow) onRecord(info *model.StepInfo) func(time.Duration) error {
	return func(elapsed time.Duration) error {
		for _, opt := range w.runOptions {
			if err := opt.OnRecord(info, elapsed); err != nil {
				return errors.Wrapf(err, "run option failed on %s", info.Name)
			}
		}
		return nil
	}
}

// load is stage 0: raw text becomes a structure, or the record dies.
func (w *Workflow) load(ctx context.Context, inputs []Input, records []*Record) (model.StepStats, error) {
	info := &model.StepInfo{
		Index:      0,
		Name:       model.LoadStage,
		Rank:       model.RankMaterialize,
		Kind:       model.KindFilter,
		Concurrent: autoscaler.New(w.workers).Workers(len(inputs)),
	}
	if err := w.prepare(info); err != nil {
		return model.StepStats{}, err
	}
	start := time.Now()
	parsed, err := dispatch(ctx, info.Concurrent, len(inputs), func(_ context.Context, k int) *chem.Mol {
		if inputs[k].Structure != nil {
			return inputs[k].Structure.Clone()
		}
		m, err := chem.Parse(inputs[k].Smiles)
		if err != nil {
			return nil
		}
		return m
	}, w.onRecord(info))
	if err != nil {
		return model.StepStats{}, errors.Wrap(err, "curation interrupted while loading")
	}

	stats := model.StepStats{Index: 0, Name: model.LoadStage, Input: len(inputs)}
	for k, in := range inputs {
		id := in.ID
		if id == "" {
			id = strconv.Itoa(k)
		}
		rec := &Record{position: k, id: id, input: in.Smiles, structure: parsed[k], label: in.Label, alive: true}
		if rec.structure == nil {
			rec.kill(0, model.LoadStage, LoadIssue)
			stats.Issues++
		}
		records[k] = rec
	}
	stats.Remaining = stats.Input - stats.Issues
	stats.Elapsed = time.Since(start)
	w.logStage(stats)
	return stats, w.after(info, stats)
}

func (w *Workflow) runStep(ctx context.Context, stage int, step Step, records []*Record) (model.StepStats, error) {
	live := make([]int, 0, len(records))
	for i, rec := range records {
		if rec.alive {
			live = append(live, i)
		}
	}
	info := &model.StepInfo{
		Index:      stage,
		Name:       step.Name(),
		Rank:       step.Rank(),
		Kind:       step.Kind(),
		Batch:      isBatch(step),
		Concurrent: 1,
	}
	if !info.Batch {
		info.Concurrent = autoscaler.New(w.workers).Workers(len(live))
	}
	if err := w.prepare(info); err != nil {
		return model.StepStats{}, err
	}

	start := time.Now()
	subjects := make([]Subject, len(live))
	for k, idx := range live {
		subjects[k] = records[idx].subject().clone()
	}
	outs, oks, err := w.verdicts(ctx, info, step, subjects)
	if err != nil {
		return model.StepStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.StepStats{}, errors.Wrapf(err, "curation interrupted during %s", step.Name())
	}
	if len(oks) != len(live) || (step.Kind() == model.KindUpdate && len(outs) != len(live)) {
		return model.StepStats{}, &ContractError{Step: step.Name(), Index: stage, Record: "*", Reason: "batch returned the wrong number of verdicts"}
	}
	if step.Kind() == model.KindUpdate {
		for k, idx := range live {
			switch {
			case !oks[k] && step.IssueText() == "":
				return model.StepStats{}, &ContractError{Step: step.Name(), Index: stage, Record: records[idx].id, Reason: "update failed but declares no issue"}
			case oks[k] && outs[k].Structure == nil:
				return model.StepStats{}, &ContractError{Step: step.Name(), Index: stage, Record: records[idx].id, Reason: "update returned no structure"}
			}
		}
	}

	stats := model.StepStats{Index: stage, Name: step.Name(), Input: len(live)}
	for k, idx := range live {
		rec := records[idx]
		if !oks[k] {
			rec.kill(stage, step.Name(), step.IssueText())
			stats.Issues++
			continue
		}
		if step.Kind() != model.KindUpdate {
			continue
		}
		if w.history {
			rec.history = append(rec.history, model.Snapshot{Index: stage, Step: step.Name(), Structure: rec.structure, Label: rec.label})
		}
		rec.structure = outs[k].Structure
		rec.label = outs[k].Label
		rec.notes = append(rec.notes, model.Annotation{Index: stage, Step: step.Name(), Text: step.NoteText()})
		stats.Notes++
	}
	stats.Remaining = stats.Input - stats.Issues
	stats.Elapsed = time.Since(start)
	w.logStage(stats)
	return stats, w.after(info, stats)
}

// verdicts calls the step. Batch steps get the whole sub-batch in one call;
// the others are dispatched per record.
func (w *Workflow) verdicts(ctx context.Context, info *model.StepInfo, step Step, subjects []Subject) ([]Subject, []bool, error) {
	onRecord := w.onRecord(info)
	switch s := step.(type) {
	case BatchFilter:
		startFn := time.Now()
		oks := s.FilterBatch(ctx, subjects)
		return nil, oks, onRecord(time.Since(startFn))
	case BatchUpdater:
		startFn := time.Now()
		outs, oks := s.UpdateBatch(ctx, subjects)
		return outs, oks, onRecord(time.Since(startFn))
	case Filter:
		oks, err := dispatch(ctx, info.Concurrent, len(subjects), func(ctx context.Context, k int) bool {
			return s.Filter(ctx, subjects[k])
		}, onRecord)
		return nil, oks, errors.Wrapf(err, "step %s", step.Name())
	case Updater:
		results, err := dispatch(ctx, info.Concurrent, len(subjects), func(ctx context.Context, k int) updateResult {
			out, ok := s.Update(ctx, subjects[k])
			return updateResult{subject: out, ok: ok}
		}, onRecord)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "step %s", step.Name())
		}
		outs := make([]Subject, len(results))
		oks := make([]bool, len(results))
		for k, r := range results {
			outs[k], oks[k] = r.subject, r.ok
		}
		return outs, oks, nil
	}
	return nil, nil, &StepError{Step: step.Name(), Reason: "no callable capability"}
}

type updateResult struct {
	subject Subject
	ok      bool
}

// dispatch calls fn for every index. Each worker writes its own slot, and
// results are only read once every call returned.
func dispatch[O any](ctx context.Context, workers, n int, fn func(context.Context, int) O, onRecord func(time.Duration) error) ([]O, error) {
	out := make([]O, n)
	call := func(ctx context.Context, k int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		startFn := time.Now()
		out[k] = fn(ctx, k)
		return onRecord(time.Since(startFn))
	}
	if workers <= 1 {
		for k := 0; k < n; k++ {
			if err := call(ctx, k); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(workers)
	for k := 0; k < n; k++ {
		k := k
		errGrp.Go(func() error {
			return call(dCtx, k)
		})
	}
	if err := errGrp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Workflow) logStage(stats model.StepStats) {
	w.logger.Debug("stage done",
		slog.Int("index", stats.Index),
		slog.String("step", stats.Name),
		slog.Int("input", stats.Input),
		slog.Int("issues", stats.Issues),
		slog.Int("notes", stats.Notes),
		slog.Int("remaining", stats.Remaining),
		slog.Duration("elapsed", stats.Elapsed),
	)
}
