package steps

import (
	"context"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
)

const (
	NameFlagMixtures         = "FlagMixtures"
	NameDemixLargestFragment = "DemixLargestFragment"
	NameSanitizeMolecule     = "SanitizeMolecule"
	NameRemoveStereochem     = "RemoveStereochem"
	NameNeutralize           = "Neutralize"
	NameAddH                 = "AddH"
	NameRemoveHs             = "RemoveHs"
)

func noParams(p model.Params, step curate.Step) (curate.Step, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	return step, nil
}

// FlagMixtureStep rejects structures made of more than one component.
type FlagMixtureStep struct {
	curate.FilterBase
}

func FlagMixtures() *FlagMixtureStep {
	return &FlagMixtureStep{curate.FilterBase{
		Meta:  curate.Meta{StepName: NameFlagMixtures, StepRank: model.RankDemix, About: "flag compounds made of several components"},
		Issue: "compound is a mixture",
	}}
}

func buildFlagMixtures(p model.Params) (curate.Step, error) {
	return noParams(p, FlagMixtures())
}

func (s *FlagMixtureStep) Filter(_ context.Context, sub curate.Subject) bool {
	return sub.Structure.NumFragments() <= 1
}

// DemixStep keeps the largest component of a mixture.
type DemixStep struct {
	curate.UpdateBase
}

func DemixLargestFragment() *DemixStep {
	return &DemixStep{curate.UpdateBase{
		Meta: curate.Meta{StepName: NameDemixLargestFragment, StepRank: model.RankDemix, About: "keep the largest component of a mixture"},
		Note: "separated out a mixture component",
	}}
}

func buildDemixLargestFragment(p model.Params) (curate.Step, error) {
	return noParams(p, DemixLargestFragment())
}

func (s *DemixStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	sub.Structure = sub.Structure.LargestFragment()
	return sub, true
}

// SanitizeStep rejects structures with impossible valences.
type SanitizeStep struct {
	curate.UpdateBase
}

func SanitizeMolecule() *SanitizeStep {
	return &SanitizeStep{curate.UpdateBase{
		Meta:  curate.Meta{StepName: NameSanitizeMolecule, StepRank: model.RankStandardize, About: "check valences"},
		Note:  "compound sanitized",
		Issue: "compound failed to be sanitized",
	}}
}

func buildSanitizeMolecule(p model.Params) (curate.Step, error) {
	return noParams(p, SanitizeMolecule())
}

func (s *SanitizeStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	if err := sub.Structure.Validate(); err != nil {
		return sub, false
	}
	return sub, true
}

// StereoStep drops tetrahedral and double bond stereo marks.
type StereoStep struct {
	curate.UpdateBase
}

func RemoveStereochem() *StereoStep {
	return &StereoStep{curate.UpdateBase{
		Meta:  curate.Meta{StepName: NameRemoveStereochem, StepRank: model.RankStandardize, About: "flatten stereochemistry"},
		Note:  "stereochemistry removed",
		Issue: "compound failed to be flattened",
	}}
}

func buildRemoveStereochem(p model.Params) (curate.Step, error) {
	return noParams(p, RemoveStereochem())
}

func (s *StereoStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	if sub.Structure.NumAtoms() == 0 {
		return sub, false
	}
	sub.Structure = sub.Structure.WithoutStereo()
	return sub, true
}

// NeutralizeStep removes charges that hydrogens can balance.
type NeutralizeStep struct {
	curate.UpdateBase
}

func Neutralize() *NeutralizeStep {
	return &NeutralizeStep{curate.UpdateBase{
		Meta:  curate.Meta{StepName: NameNeutralize, StepRank: model.RankStandardize, About: "neutralize charges"},
		Note:  "compound neutralized",
		Issue: "compound failed to be neutralized",
	}}
}

func buildNeutralize(p model.Params) (curate.Step, error) {
	return noParams(p, Neutralize())
}

func (s *NeutralizeStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	out, err := sub.Structure.Neutralize()
	if err != nil {
		return sub, false
	}
	sub.Structure = out
	return sub, true
}

// AddHStep makes every hydrogen explicit.
type AddHStep struct {
	curate.UpdateBase
}

func AddH() *AddHStep {
	return &AddHStep{curate.UpdateBase{
		Meta:  curate.Meta{StepName: NameAddH, StepRank: model.RankStandardize, About: "add explicit hydrogens"},
		Note:  "explicit H added to compound",
		Issue: "failed to add H to molecule",
	}}
}

func buildAddH(p model.Params) (curate.Step, error) {
	return noParams(p, AddH())
}

func (s *AddHStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	out, err := sub.Structure.AddHs()
	if err != nil {
		return sub, false
	}
	sub.Structure = out
	return sub, true
}

// RemoveHsStep folds plain explicit hydrogens back into their heavy atom.
type RemoveHsStep struct {
	curate.UpdateBase
}

func RemoveHs() *RemoveHsStep {
	return &RemoveHsStep{curate.UpdateBase{
		Meta:  curate.Meta{StepName: NameRemoveHs, StepRank: model.RankStandardize, About: "remove explicit hydrogens"},
		Note:  "removed unnecessary H",
		Issue: "failed to remove H from molecule",
	}}
}

func buildRemoveHs(p model.Params) (curate.Step, error) {
	return noParams(p, RemoveHs())
}

func (s *RemoveHsStep) Update(_ context.Context, sub curate.Subject) (curate.Subject, bool) {
	out, err := sub.Structure.RemoveHs()
	if err != nil {
		return sub, false
	}
	sub.Structure = out
	return sub, true
}
