package curate

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate/model"
)

// ResultSet holds the records of one run, in input order, with per-stage
// statistics. It never changes once returned.
type ResultSet struct {
	runID    string
	workflow *Workflow
	trust    TrustState
	records  []*Record
	stats    []model.StepStats
	elapsed  time.Duration
}

func newResultSet(w *Workflow, records []*Record, stats []model.StepStats, elapsed time.Duration) *ResultSet {
	return &ResultSet{
		runID:    uuid.NewString(),
		workflow: w,
		trust:    w.trust,
		records:  records,
		stats:    stats,
		elapsed:  elapsed,
	}
}

// RunID identifies the run. It is not part of the report.
func (r *ResultSet) RunID() string { return r.runID }

// Workflow returns the workflow that produced the results.
func (r *ResultSet) Workflow() *Workflow { return r.workflow }

// Trust is the trust state of the workflow at the time of the run.
func (r *ResultSet) Trust() TrustState { return r.trust }

// Elapsed is the wall time of the run.
func (r *ResultSet) Elapsed() time.Duration { return r.elapsed }

func (r *ResultSet) Len() int { return len(r.records) }

// Records returns every record in input order.
func (r *ResultSet) Records() []*Record {
	return append([]*Record(nil), r.records...)
}

// Record returns the record at input position i.
func (r *ResultSet) Record(i int) *Record { return r.records[i] }

// Passing returns the records that passed every stage.
func (r *ResultSet) Passing() []*Record {
	return r.filter(true)
}

// Failed returns the records that raised an issue.
func (r *ResultSet) Failed() []*Record {
	return r.filter(false)
}

func (r *ResultSet) filter(alive bool) []*Record {
	var out []*Record
	for _, rec := range r.records {
		if rec.alive == alive {
			out = append(out, rec)
		}
	}
	return out
}

// PassingMask returns one boolean per input, true when the record passed.
func (r *ResultSet) PassingMask() []bool {
	out := make([]bool, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.alive
	}
	return out
}

func (r *ResultSet) NumPassed() int { return len(r.Passing()) }

func (r *ResultSet) NumFailed() int { return len(r.records) - r.NumPassed() }

// PassingSmiles returns the canonical SMILES of the passing records.
func (r *ResultSet) PassingSmiles() []string {
	var out []string
	for _, rec := range r.records {
		if rec.alive {
			out = append(out, rec.Smiles())
		}
	}
	return out
}

// Stats returns the statistics of every stage. Index 0 is the load stage.
func (r *ResultSet) Stats() []model.StepStats {
	return append([]model.StepStats(nil), r.stats...)
}

// StatsAt returns the statistics of the stage at index.
func (r *ResultSet) StatsAt(index int) (model.StepStats, bool) {
	if index < 0 || index >= len(r.stats) {
		return model.StepStats{}, false
	}
	return r.stats[index], true
}

// StatsFor returns the statistics of every stage running the named step.
func (r *ResultSet) StatsFor(name string) []model.StepStats {
	var out []model.StepStats
	for _, s := range r.stats {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// IssueCounts returns the number of issues raised by each stage.
func (r *ResultSet) IssueCounts() []int {
	out := make([]int, len(r.stats))
	for i, s := range r.stats {
		out[i] = s.Issues
	}
	return out
}

// NoteCounts returns the number of notes attached by each stage.
func (r *ResultSet) NoteCounts() []int {
	out := make([]int, len(r.stats))
	for i, s := range r.stats {
		out[i] = s.Notes
	}
	return out
}

var tsvHeader = []string{"position", "id", "input", "smiles", "label", "passed", "issues", "notes"}

// UntrustedTSVMarker is the comment line opening the TSV of an untrusted run.
const UntrustedTSVMarker = "# untrusted provenance"

// WriteTSV writes one tab separated line per record. Results of an untrusted
// workflow start with UntrustedTSVMarker.
func (r *ResultSet) WriteTSV(w io.Writer) error {
	if r.trust == Untrusted {
		if _, err := io.WriteString(w, UntrustedTSVMarker+"\n"); err != nil {
			return errors.Wrap(err, "unable to write provenance marker")
		}
	}
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(tsvHeader); err != nil {
		return errors.Wrap(err, "unable to write header")
	}
	for _, rec := range r.records {
		row := []string{
			strconv.Itoa(rec.position),
			rec.id,
			rec.input,
			rec.Smiles(),
			rec.label.String(),
			strconv.FormatBool(rec.alive),
			joinAnnotations(rec.issues),
			joinAnnotations(rec.notes),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "unable to write record %s", rec.id)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "unable to flush records")
}

func joinAnnotations(list []model.Annotation) string {
	parts := make([]string, len(list))
	for i, a := range list {
		parts[i] = a.Step + ": " + a.Text
	}
	return strings.Join(parts, "; ")
}

// RecordView is the serialised form of a record.
type RecordView struct {
	Position int                `json:"position"`
	ID       string             `json:"id"`
	Input    string             `json:"input"`
	Smiles   string             `json:"smiles"`
	Label    model.Label        `json:"label"`
	Passed   bool               `json:"passed"`
	Issues   []model.Annotation `json:"issues"`
	Notes    []model.Annotation `json:"notes"`
	History  []string           `json:"history,omitempty"`
}

// View returns the serialised form of rec.
func (rec *Record) View() RecordView {
	v := RecordView{
		Position: rec.position,
		ID:       rec.id,
		Input:    rec.input,
		Smiles:   rec.Smiles(),
		Label:    rec.label,
		Passed:   rec.alive,
		Issues:   rec.Issues(),
		Notes:    rec.Notes(),
	}
	for _, s := range rec.history {
		v.History = append(v.History, s.Structure.String())
	}
	return v
}

type resultView struct {
	RunID        string            `json:"run_id"`
	Workflow     string            `json:"workflow"`
	WorkflowHash string            `json:"workflow_hash"`
	SourceHash   string            `json:"source_hash"`
	Trust        string            `json:"trust"`
	Stats        []model.StepStats `json:"stats"`
	Records      []RecordView      `json:"records"`
}

// WriteJSON writes the result set as an indented JSON document.
func (r *ResultSet) WriteJSON(w io.Writer) error {
	view := resultView{
		RunID:        r.runID,
		Workflow:     r.workflow.String(),
		WorkflowHash: r.workflow.workflowHash,
		SourceHash:   r.workflow.sourceHash,
		Trust:        r.trust.String(),
		Stats:        r.stats,
		Records:      make([]RecordView, len(r.records)),
	}
	for i, rec := range r.records {
		view.Records[i] = rec.View()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(view), "unable to encode result set")
}
