package steps

import (
	"context"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
)

const NameRemoveDuplicates = "RemoveDuplicates"

// DuplicateStep keeps the first record of every canonical SMILES and rejects
// the others. It needs the whole surviving batch.
type DuplicateStep struct {
	curate.FilterBase
}

func RemoveDuplicates() *DuplicateStep {
	return &DuplicateStep{curate.FilterBase{
		Meta:  curate.Meta{StepName: NameRemoveDuplicates, StepRank: model.RankDeduplicate, About: "remove duplicate structures"},
		Issue: "compound is duplicate",
	}}
}

func buildRemoveDuplicates(p model.Params) (curate.Step, error) {
	return noParams(p, RemoveDuplicates())
}

func (s *DuplicateStep) FilterBatch(_ context.Context, subjects []curate.Subject) []bool {
	seen := make(map[string]struct{}, len(subjects))
	out := make([]bool, len(subjects))
	for i, sub := range subjects {
		key := sub.Structure.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out[i] = true
	}
	return out
}
