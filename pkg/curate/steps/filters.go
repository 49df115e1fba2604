package steps

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
)

const (
	NameFilterMW      = "FilterMW"
	NameFlagBoron     = "FlagBoron"
	NameFlagInorganic = "FlagInorganic"
)

// MWStep rejects structures whose molecular weight is outside [Min, Max].
type MWStep struct {
	curate.FilterBase
	min, max float64
}

// FilterMW returns a molecular weight filter with inclusive bounds. min must
// be positive and not above max.
func FilterMW(min, max float64) (*MWStep, error) {
	if !(min > 0) {
		return nil, errors.Wrapf(model.ErrParam, "min must be greater than 0, got %v", min)
	}
	if math.IsNaN(max) || min > max {
		return nil, errors.Wrapf(model.ErrParam, "min %v cannot be larger than max %v", min, max)
	}
	return &MWStep{
		FilterBase: curate.FilterBase{
			Meta: curate.Meta{
				StepName: NameFilterMW,
				StepRank: model.RankExclude,
				Args:     model.Params{"min": min, "max": max},
				About:    "keep compounds within a molecular weight range",
			},
			Issue: "molecule weight too big or small",
		},
		min: min,
		max: max,
	}, nil
}

func buildFilterMW(p model.Params) (curate.Step, error) {
	if err := p.Check("min", "max"); err != nil {
		return nil, err
	}
	min, err := p.Float("min", 1)
	if err != nil {
		return nil, err
	}
	max, err := p.Float("max", math.Inf(1))
	if err != nil {
		return nil, err
	}
	return FilterMW(min, max)
}

func (s *MWStep) Filter(_ context.Context, sub curate.Subject) bool {
	mw := sub.Structure.MolWeight()
	return s.min <= mw && mw <= s.max
}

// BoronStep rejects structures holding boron.
type BoronStep struct {
	curate.FilterBase
}

func FlagBoron() *BoronStep {
	return &BoronStep{curate.FilterBase{
		Meta:  curate.Meta{StepName: NameFlagBoron, StepRank: model.RankExclude, About: "flag compounds with boron"},
		Issue: "compound has boron",
	}}
}

func buildFlagBoron(p model.Params) (curate.Step, error) {
	return noParams(p, FlagBoron())
}

func (s *BoronStep) Filter(_ context.Context, sub curate.Subject) bool {
	return !sub.Structure.HasElement("B")
}

var organicElements = map[string]struct{}{
	"H": {}, "B": {}, "C": {}, "N": {}, "O": {}, "F": {}, "P": {}, "S": {},
	"Cl": {}, "Br": {}, "I": {}, "Li": {}, "Na": {}, "K": {}, "Mg": {}, "Ca": {},
}

// InorganicStep rejects structures with atoms outside the organic set and
// common counter ions, and structures without any carbon.
type InorganicStep struct {
	curate.FilterBase
}

func FlagInorganic() *InorganicStep {
	return &InorganicStep{curate.FilterBase{
		Meta:  curate.Meta{StepName: NameFlagInorganic, StepRank: model.RankExclude, About: "flag inorganic compounds"},
		Issue: "compound is inorganic",
	}}
}

func buildFlagInorganic(p model.Params) (curate.Step, error) {
	return noParams(p, FlagInorganic())
}

func (s *InorganicStep) Filter(_ context.Context, sub curate.Subject) bool {
	for _, el := range sub.Structure.Elements() {
		if _, ok := organicElements[el]; !ok {
			return false
		}
	}
	return sub.Structure.HasElement("C")
}
