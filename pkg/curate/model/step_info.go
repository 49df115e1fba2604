package model

import "time"

// LoadStage is the name of the implicit stage that parses raw input.
const LoadStage = "Load"

// StepInfo describes a stage as seen by run options.
type StepInfo struct {
	Index      int
	Name       string
	Rank       Rank
	Kind       Kind
	Batch      bool
	Concurrent int
}

// StepStats are the counters of a stage once it has run.
type StepStats struct {
	Index     int           `json:"index"`
	Name      string        `json:"name"`
	Issues    int           `json:"issues"`
	Notes     int           `json:"notes"`
	Input     int           `json:"input"`
	Remaining int           `json:"remaining"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}
