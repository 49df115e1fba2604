package model

import "time"

// RunOption observes a curation run. Hooks are called from the goroutine that
// drives the run, except OnRecord which is called from workers and must be safe
// for concurrent use.
type RunOption interface {
	// New runs before the load stage.
	New() error
	// PrepareStep runs before a stage starts.
	PrepareStep(step *StepInfo) error
	// OnRecord runs once per record handled by the stage.
	OnRecord(step *StepInfo, computation time.Duration) error
	// AfterStep runs once the stage verdicts have been applied.
	AfterStep(step *StepInfo, stats StepStats) error
	// Finish runs after the last stage.
	Finish() error
}
