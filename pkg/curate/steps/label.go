package steps

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
)

const (
	NameFlagMissingLabel = "FlagMissingLabel"
	NameFillMissingLabel = "FillMissingLabel"
	NameNumericLabel     = "NumericLabel"
	NameBinarizeLabel    = "BinarizeLabel"
	NameFilterLabel      = "FilterLabel"
)

// MissingLabelStep rejects records without a label.
type MissingLabelStep struct {
	curate.FilterBase
}

func FlagMissingLabel() *MissingLabelStep {
	return &MissingLabelStep{curate.FilterBase{
		Meta:  curate.Meta{StepName: NameFlagMissingLabel, StepRank: model.RankLabelStandardize, About: "flag records without a label"},
		Issue: "label value is missing",
	}}
}

func buildFlagMissingLabel(p model.Params) (curate.Step, error) {
	return noParams(p, FlagMissingLabel())
}

func (s *MissingLabelStep) Filter(_ context.Context, sub curate.Subject) bool {
	return !sub.Label.IsMissing()
}

// FillLabelStep gives missing labels a fixed value. Other labels pass through.
type FillLabelStep struct {
	curate.UpdateBase
	value model.Label
}

// FillMissingLabel fills missing labels with value, which must not be empty.
func FillMissingLabel(value string) (*FillLabelStep, error) {
	fill := model.ParseLabel(value)
	if fill.IsMissing() {
		return nil, errors.Wrap(model.ErrParam, "fill value cannot itself be missing")
	}
	return &FillLabelStep{
		UpdateBase: curate.UpdateBase{
			Meta: curate.Meta{
				StepName: NameFillMissingLabel,
				StepRank: model.RankLabelStandardize,
				Args:     model.Params{"value": fill.Text},
				About:    "fill missing labels",
			},
			Note: "filled missing label value",
		},
		value: fill,
	}, nil
}

func buildFillMissingLabel(p model.Params) (curate.Step, error) {
	if err := p.Check("value"); err != nil {
		return nil, err
	}
	raw, ok := p["value"]
	if !ok {
		return nil, errors.Wrap(model.ErrParam, "value is required")
	}
	switch v := raw.(type) {
	case string:
		return FillMissingLabel(v)
	case int:
		return FillMissingLabel(strconv.Itoa(v))
	case float64:
		return FillMissingLabel(strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		return FillMissingLabel(strconv.FormatBool(v))
	}
	return nil, errors.Wrapf(model.ErrParam, "value: unsupported type %T", raw)
}

func (s *FillLabelStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	if sub.Label.IsMissing() {
		sub.Label = s.value
	}
	return sub, true
}

// NumericLabelStep turns labels into numbers and rejects those that are not.
type NumericLabelStep struct {
	curate.UpdateBase
}

func NumericLabel() *NumericLabelStep {
	return &NumericLabelStep{curate.UpdateBase{
		Meta:  curate.Meta{StepName: NameNumericLabel, StepRank: model.RankLabelStandardize, About: "coerce labels to numbers"},
		Note:  "label made numeric",
		Issue: "label value is not numeric",
	}}
}

func buildNumericLabel(p model.Params) (curate.Step, error) {
	return noParams(p, NumericLabel())
}

func (s *NumericLabelStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	f, ok := sub.Label.Float()
	if !ok {
		return sub, false
	}
	sub.Label = model.NumberLabel(f)
	return sub, true
}

// BinarizeStep maps numeric labels to 0 or 1 around a threshold. Comparisons
// are strict. It declares no issue, so labels must be numeric by then.
type BinarizeStep struct {
	curate.UpdateBase
	threshold float64
	greater   bool
}

// BinarizeLabel returns 1 for labels above threshold when greater is true, and
// for labels below it otherwise.
func BinarizeLabel(threshold float64, greater bool) *BinarizeStep {
	return &BinarizeStep{
		UpdateBase: curate.UpdateBase{
			Meta: curate.Meta{
				StepName: NameBinarizeLabel,
				StepRank: model.RankLabelTransform,
				Args:     model.Params{"threshold": threshold, "greater": greater},
				Requires: []string{NameNumericLabel},
				About:    "binarize numeric labels",
			},
			Note: "binarized label",
		},
		threshold: threshold,
		greater:   greater,
	}
}

func buildBinarizeLabel(p model.Params) (curate.Step, error) {
	if err := p.Check("threshold", "greater"); err != nil {
		return nil, err
	}
	if _, ok := p["threshold"]; !ok {
		return nil, errors.Wrap(model.ErrParam, "threshold is required")
	}
	threshold, err := p.Float("threshold", 0)
	if err != nil {
		return nil, err
	}
	greater, err := p.Bool("greater", true)
	if err != nil {
		return nil, err
	}
	return BinarizeLabel(threshold, greater), nil
}

func (s *BinarizeStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	f, ok := sub.Label.Float()
	if !ok {
		return sub, false
	}
	hit := f < s.threshold
	if s.greater {
		hit = f > s.threshold
	}
	if hit {
		sub.Label = model.NumberLabel(1)
	} else {
		sub.Label = model.NumberLabel(0)
	}
	return sub, true
}

// LabelFilterStep rejects records whose label fails a custom predicate. It
// can run but cannot be saved to a workflow file.
type LabelFilterStep struct {
	curate.FilterBase
	keep func(model.Label) bool
}

// FilterLabel returns a step keeping records for which keep returns true.
func FilterLabel(keep func(model.Label) bool) *LabelFilterStep {
	return &LabelFilterStep{
		FilterBase: curate.FilterBase{
			Meta:  curate.Meta{StepName: NameFilterLabel, StepRank: model.RankLabelTransform, About: "custom label filter"},
			Issue: "label failed custom filter",
		},
		keep: keep,
	}
}

func (s *LabelFilterStep) Filter(_ context.Context, sub curate.Subject) bool {
	return s.keep(sub.Label)
}
