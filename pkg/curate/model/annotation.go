package model

import "github.com/askiada/go-curate/pkg/chem"

// Annotation is an issue or a note raised by the stage at Index. Stage 0 is the
// load stage; stage i is the i-th executed step.
type Annotation struct {
	Index int    `json:"index"`
	Step  string `json:"step"`
	Text  string `json:"text"`
}

// Snapshot is the state of a record just before an update step replaced it.
type Snapshot struct {
	Index     int
	Step      string
	Structure *chem.Mol
	Label     Label
}
