package curate

import (
	"context"

	"github.com/askiada/go-curate/pkg/chem"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// Subject is the part of a record a step may look at. Steps receive their own
// copy and return new values rather than changing it.
type Subject struct {
	Structure *chem.Mol
	Label     model.Label
}

func (s Subject) clone() Subject {
	return Subject{Structure: s.Structure.Clone(), Label: s.Label}
}

// Step is a unit of curation. Types become steps by embedding FilterBase or
// UpdateBase, then implementing Filter or Update, or their batch variants.
type Step interface {
	// Name identifies the step in catalogs and workflow files.
	Name() string
	Rank() model.Rank
	Kind() model.Kind
	// IssueText is raised against a record the step rejects. Empty means the
	// step never rejects.
	IssueText() string
	// NoteText is attached to a record the step updated. Always empty for filters.
	NoteText() string
	// Params returns the construction parameters. They feed the workflow hash
	// and the workflow file, nothing else.
	Params() model.Params
	// Dependencies names steps this one expects to run earlier. Advisory only.
	Dependencies() []string
	Description() string

	isStep()
}

// Filter is a per-record predicate. false rejects the record.
type Filter interface {
	Step
	Filter(ctx context.Context, subject Subject) bool
}

// Updater returns a new subject, or false when it could not.
type Updater interface {
	Step
	Update(ctx context.Context, subject Subject) (Subject, bool)
}

// BatchFilter sees every live record at once and returns one verdict per subject.
type BatchFilter interface {
	Step
	FilterBatch(ctx context.Context, subjects []Subject) []bool
}

// BatchUpdater sees every live record at once and returns one result per subject.
type BatchUpdater interface {
	Step
	UpdateBatch(ctx context.Context, subjects []Subject) ([]Subject, []bool)
}

// Meta holds what every step declares.
type Meta struct {
	StepName string
	StepRank model.Rank
	Args     model.Params
	Requires []string
	About    string
}

func (m Meta) Name() string { return m.StepName }
func (m Meta) Rank() model.Rank { return m.StepRank }
func (m Meta) Params() model.Params { return m.Args.Clone() }
func (m Meta) Description() string { return m.About }
func (m Meta) Dependencies() []string { return append([]string(nil), m.Requires...) }

// FilterBase is embedded by filter steps. A filter only ever raises an issue.
type FilterBase struct {
	Meta
	Issue string
}

func (FilterBase) Kind() model.Kind { return model.KindFilter }
func (b FilterBase) IssueText() string { return b.Issue }
func (FilterBase) NoteText() string { return "" }
func (FilterBase) isStep() {}

// UpdateBase is embedded by update steps. Note is required; Issue is set only
// by updates that can fail.
type UpdateBase struct {
	Meta
	Note  string
	Issue string
}

func (UpdateBase) Kind() model.Kind { return model.KindUpdate }
func (b UpdateBase) IssueText() string { return b.Issue }
func (b UpdateBase) NoteText() string { return b.Note }
func (UpdateBase) isStep() {}

// isBatch reports whether s wants the whole live sub-batch.
func isBatch(s Step) bool {
	switch s.(type) {
	case BatchFilter, BatchUpdater:
		return true
	}
	return false
}

// validateStep checks the authoring rules a step must follow before it can
// join a workflow.
func validateStep(s Step) error {
	fail := func(reason string) error {
		return &StepError{Step: s.Name(), Reason: reason}
	}
	if s.Name() == "" {
		return &StepError{Step: "<unnamed>", Reason: "step has no name"}
	}
	if !s.Rank().Valid() {
		return fail("rank " + s.Rank().String() + " is outside the rank domain")
	}
	switch s.Kind() {
	case model.KindFilter:
		if s.IssueText() == "" {
			return fail("filter without issue text")
		}
		_, perRecord := s.(Filter)
		_, batch := s.(BatchFilter)
		if !perRecord && !batch {
			return fail("filter implements neither Filter nor FilterBatch")
		}
		if _, ok := s.(Updater); ok {
			return fail("filter also implements Update")
		}
		if _, ok := s.(BatchUpdater); ok {
			return fail("filter also implements UpdateBatch")
		}
	case model.KindUpdate:
		if s.NoteText() == "" {
			return fail("update without note text")
		}
		_, perRecord := s.(Updater)
		_, batch := s.(BatchUpdater)
		if !perRecord && !batch {
			return fail("update implements neither Update nor UpdateBatch")
		}
		if _, ok := s.(Filter); ok {
			return fail("update also implements Filter")
		}
		if _, ok := s.(BatchFilter); ok {
			return fail("update also implements FilterBatch")
		}
	default:
		return fail("unknown step kind")
	}
	return nil
}
