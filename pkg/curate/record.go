package curate

import (
	"github.com/askiada/go-curate/pkg/chem"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// Input is one raw record handed to a run.
type Input struct {
	ID     string
	Smiles string
	// Structure skips parsing when set. Smiles is then only kept for display.
	Structure *chem.Mol
	Label     model.Label
}

// Record is a curated input. It is read-only once the run that produced it
// returns.
type Record struct {
	position  int
	id        string
	input     string
	structure *chem.Mol
	label     model.Label
	issues    []model.Annotation
	notes     []model.Annotation
	history   []model.Snapshot
	alive     bool
}

// Position is the index of the record in the run input.
func (r *Record) Position() int { return r.position }

func (r *Record) ID() string { return r.id }

// Input returns the raw text the record was loaded from.
func (r *Record) Input() string { return r.input }

// Structure returns a copy of the current structure, nil after a parse failure.
func (r *Record) Structure() *chem.Mol { return r.structure.Clone() }

func (r *Record) Label() model.Label { return r.label }

// Smiles returns the canonical SMILES of the current structure.
func (r *Record) Smiles() string {
	if r.structure == nil {
		return ""
	}
	return r.structure.String()
}

// Alive reports whether the record passed every stage.
func (r *Record) Alive() bool { return r.alive }

func (r *Record) Issues() []model.Annotation {
	return append([]model.Annotation(nil), r.issues...)
}

func (r *Record) Notes() []model.Annotation {
	return append([]model.Annotation(nil), r.notes...)
}

// History returns the snapshots taken before each update, oldest first. It is
// empty unless the workflow tracks history.
func (r *Record) History() []model.Snapshot {
	out := make([]model.Snapshot, len(r.history))
	for i, s := range r.history {
		s.Structure = s.Structure.Clone()
		out[i] = s
	}
	return out
}

// Trail returns issues and notes together, ordered by stage.
func (r *Record) Trail() []TrailEntry {
	out := make([]TrailEntry, 0, len(r.notes)+len(r.issues))
	ni, ii := 0, 0
	for ni < len(r.notes) || ii < len(r.issues) {
		if ii >= len(r.issues) || (ni < len(r.notes) && r.notes[ni].Index < r.issues[ii].Index) {
			out = append(out, TrailEntry{Annotation: r.notes[ni]})
			ni++
			continue
		}
		out = append(out, TrailEntry{Annotation: r.issues[ii], Issue: true})
		ii++
	}
	return out
}

// TrailEntry is an issue or a note in the order it was raised.
type TrailEntry struct {
	model.Annotation
	Issue bool
}

func (r *Record) subject() Subject {
	return Subject{Structure: r.structure, Label: r.label}
}

func (r *Record) kill(stage int, step, text string) {
	r.alive = false
	r.issues = append(r.issues, model.Annotation{Index: stage, Step: step, Text: text})
}
