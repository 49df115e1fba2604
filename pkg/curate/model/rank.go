package model

import "fmt"

// Rank is the fixed execution slot of a step. Steps run in ascending rank.
type Rank int

const (
	// RankMaterialize turns raw input into a structure.
	RankMaterialize Rank = iota
	// RankDemix separates mixtures.
	RankDemix
	// RankStandardize standardizes the structure.
	RankStandardize
	// RankExclude excludes structures without changing them.
	RankExclude
	// RankConformer generates 3D conformers.
	RankConformer
	// RankLabelStandardize coerces label types.
	RankLabelStandardize
	// RankLabelTransform transforms labels, e.g. binarization.
	RankLabelTransform
	// RankDeduplicate resolves duplicates across the batch.
	RankDeduplicate
)

var rankNames = [...]string{
	"materialize",
	"demix",
	"standardize",
	"exclude",
	"conformer",
	"label-standardize",
	"label-transform",
	"deduplicate",
}

// Valid reports whether r is one of the known ranks.
func (r Rank) Valid() bool {
	return r >= RankMaterialize && r <= RankDeduplicate
}

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("rank(%d)", int(r))
	}
	return rankNames[r]
}

// Kind tells how the engine applies the verdict of a step.
type Kind int

const (
	KindFilter Kind = iota + 1
	KindUpdate
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "filter"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}
