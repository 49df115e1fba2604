package curate

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-curate/internal/store"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// Workflow is an ordered, hashed list of steps.
type Workflow struct {
	name        string
	description string
	repoURL     string

	catalog *Catalog
	steps   []Step

	history          bool
	workers          int
	suppressWarnings bool
	logger           *slog.Logger
	runOptions       []model.RunOption

	workflowHash string
	sourceHash   string
	versions     map[string]string
	trust        TrustState
}

// New orders steps by rank and builds a trusted workflow. Every step must be
// registered in catalog, which provides the source used for the source hash.
func New(catalog *Catalog, steps []Step, opts ...Option) (*Workflow, error) {
	w, err := build(catalog, steps, newSettings(opts))
	if err != nil {
		return nil, err
	}
	w.trust = Trusted
	w.logWarnings()
	return w, nil
}

func build(catalog *Catalog, steps []Step, s *settings) (*Workflow, error) {
	if catalog == nil {
		return nil, errors.New("catalog must be set")
	}
	if s.workers < 0 {
		return nil, errors.Errorf("workers must be positive, got %d", s.workers)
	}
	for i, step := range steps {
		if step == nil {
			return nil, &StepError{Step: "#" + strconv.Itoa(i), Reason: "step is nil"}
		}
		if err := validateStep(step); err != nil {
			return nil, err
		}
		if _, err := catalog.Source(step.Name()); err != nil {
			return nil, &StepError{Step: step.Name(), Reason: "not registered", Err: err}
		}
	}
	ordered := Order(steps)
	sourceHash, err := SourceHash(catalog, ordered)
	if err != nil {
		return nil, errors.Wrap(err, "unable to hash workflow source")
	}
	return &Workflow{
		name:             s.name,
		description:      s.description,
		repoURL:          s.repoURL,
		catalog:          catalog,
		steps:            ordered,
		history:          s.history,
		workers:          s.workers,
		suppressWarnings: s.suppressWarnings,
		logger:           s.logger,
		runOptions:       s.runOptions,
		workflowHash:     WorkflowHash(ordered),
		sourceHash:       sourceHash,
		versions:         DependencyVersions(),
		trust:            Unverified,
	}, nil
}

func (w *Workflow) Name() string          { return w.name }
func (w *Workflow) Description() string   { return w.description }
func (w *Workflow) SourceRepoURL() string { return w.repoURL }
func (w *Workflow) WorkflowHash() string  { return w.workflowHash }
func (w *Workflow) SourceHash() string    { return w.sourceHash }
func (w *Workflow) Trust() TrustState     { return w.trust }
func (w *Workflow) TrackHistory() bool    { return w.history }
func (w *Workflow) NumSteps() int         { return len(w.steps) }

// Steps returns the steps in executed order.
func (w *Workflow) Steps() []Step {
	return append([]Step(nil), w.steps...)
}

// DependencyVersions returns the versions the workflow was built or verified with.
func (w *Workflow) DependencyVersions() map[string]string {
	out := make(map[string]string, len(w.versions))
	for k, v := range w.versions {
		out[k] = v
	}
	return out
}

// String renders the executed order, starting with the load stage.
func (w *Workflow) String() string {
	names := make([]string, 0, len(w.steps)+1)
	names = append(names, model.LoadStage)
	for _, s := range w.steps {
		names = append(names, s.Name())
	}
	return strings.Join(names, " -> ")
}

// Warnings returns the advisory problems found in the executed order. None of
// them prevents the workflow from running.
func (w *Workflow) Warnings() []string {
	var out []string
	seenFilter := false
	for i, s := range w.steps {
		switch s.Kind() {
		case model.KindFilter:
			seenFilter = true
		case model.KindUpdate:
			if seenFilter {
				out = append(out, fmt.Sprintf("update step %d (%s) runs after a filter step; its output may violate that filter", i+1, s.Name()))
			}
		}
	}
	for _, issue := range w.DependencyIssues() {
		out = append(out, issue.String())
	}
	return out
}

func (w *Workflow) logWarnings() {
	if w.suppressWarnings {
		return
	}
	for _, msg := range w.Warnings() {
		w.logger.Warn(msg, slog.String("workflow", w.name))
	}
}

// DependencyIssue is a declared dependency the workflow does not satisfy.
type DependencyIssue struct {
	Index      int
	Step       string
	Dependency string
	Reason     string
}

func (d DependencyIssue) String() string {
	return fmt.Sprintf("step %d (%s) depends on %s: %s", d.Index, d.Step, d.Dependency, d.Reason)
}

// DependencyIssues checks declared dependencies against the executed order. A
// dependency "A|B" is met by either step. Declarations are advisory: the
// result is reported, never enforced.
func (w *Workflow) DependencyIssues() []DependencyIssue {
	g := graph.NewWithStore(graph.StringHash, store.NewMemoryStore[string, string](), graph.Directed())
	byName := make(map[string][]string)
	prev := model.LoadStage
	_ = g.AddVertex(prev)
	for i, s := range w.steps {
		key := strconv.Itoa(i+1) + ":" + s.Name()
		_ = g.AddVertex(key)
		_ = g.AddEdge(prev, key)
		byName[s.Name()] = append(byName[s.Name()], key)
		prev = key
	}

	var issues []DependencyIssue
	for i, s := range w.steps {
		key := strconv.Itoa(i+1) + ":" + s.Name()
		for _, dep := range s.Dependencies() {
			present, before := false, false
			for _, alt := range strings.Split(dep, "|") {
				for _, candidate := range byName[strings.TrimSpace(alt)] {
					present = true
					if _, err := graph.ShortestPath(g, candidate, key); err == nil {
						before = true
					}
				}
			}
			switch {
			case !present:
				issues = append(issues, DependencyIssue{Index: i + 1, Step: s.Name(), Dependency: dep, Reason: "not in workflow"})
			case !before:
				issues = append(issues, DependencyIssue{Index: i + 1, Step: s.Name(), Dependency: dep, Reason: "runs later"})
			}
		}
	}
	return issues
}
