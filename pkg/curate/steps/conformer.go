package steps

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
)

const NameAdd3D = "Add3D"

// DefaultEmbedTimeout bounds the conformer generation of one record.
const DefaultEmbedTimeout = 10 * time.Second

// Add3DStep generates a 3D conformer. A record that cannot be embedded within
// the timeout gets the step issue.
type Add3DStep struct {
	curate.UpdateBase
	timeout time.Duration
}

// Add3D returns a conformer step with a per-record timeout.
func Add3D(timeout time.Duration) (*Add3DStep, error) {
	if timeout <= 0 {
		return nil, errors.Wrapf(model.ErrParam, "timeout must be positive, got %s", timeout)
	}
	return &Add3DStep{
		UpdateBase: curate.UpdateBase{
			Meta: curate.Meta{
				StepName: NameAdd3D,
				StepRank: model.RankConformer,
				Args:     model.Params{"timeout": timeout.Seconds()},
				Requires: []string{NameAddH},
				About:    "generate a 3D conformer",
			},
			Note:  "3d conformer generated for compound",
			Issue: "failed to generate a 3d pose for molecule",
		},
		timeout: timeout,
	}, nil
}

func buildAdd3D(p model.Params) (curate.Step, error) {
	if err := p.Check("timeout"); err != nil {
		return nil, err
	}
	seconds, err := p.Float("timeout", DefaultEmbedTimeout.Seconds())
	if err != nil {
		return nil, err
	}
	return Add3D(time.Duration(seconds * float64(time.Second)))
}

func (s *Add3DStep) Update(ctx context.Context, sub curate.Subject) (curate.Subject, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := sub.Structure.Embed(ctx, seedFor(sub.Structure.String()))
	if err != nil {
		return sub, false
	}
	sub.Structure = out
	return sub, true
}

// seedFor derives the embedding seed from the canonical SMILES, so a structure
// gets the same conformer on every run.
func seedFor(smiles string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(smiles))
	return int64(h.Sum64() >> 1)
}
