package curate

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrContractViolation is matched by *ContractError.
	ErrContractViolation = errors.New("step broke its contract")
	// ErrVerification is matched by every *VerificationError.
	ErrVerification       = errors.New("workflow verification failed")
	ErrConfigMismatch     = errors.New("workflow configuration does not match its hash")
	ErrSourceMismatch     = errors.New("step implementation does not match the recorded source hash")
	ErrDependencyMismatch = errors.New("dependency versions do not match")
	// ErrMalformedWorkflow is matched by *MalformedError.
	ErrMalformedWorkflow = errors.New("malformed workflow file")
	// ErrInvalidStep is matched by *StepError.
	ErrInvalidStep = errors.New("invalid step")

	ErrUnknownStep     = errors.New("step is not registered in the catalog")
	ErrNotSerializable = errors.New("step cannot be rebuilt from a workflow file")
	ErrUntrustedSave   = errors.New("an untrusted workflow cannot be saved")
)

// ContractError aborts a run: a step returned something its declaration rules out.
type ContractError struct {
	Step   string
	Index  int
	Record string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("step %d (%s) on record %s: %s", e.Index, e.Step, e.Record, e.Reason)
}

func (e *ContractError) Is(target error) bool {
	return target == ErrContractViolation
}

// VerificationCategory names what a loaded workflow failed to match.
type VerificationCategory string

const (
	CategoryConfiguration  VerificationCategory = "configuration"
	CategoryImplementation VerificationCategory = "implementation"
	CategoryDependency     VerificationCategory = "dependency"
)

// VerificationError is returned by a safe load that found a mismatch.
type VerificationError struct {
	Category VerificationCategory
	Expected string
	Actual   string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s mismatch: file records %s, current is %s", e.Category, e.Expected, e.Actual)
}

func (e *VerificationError) Is(target error) bool {
	switch target {
	case ErrVerification:
		return true
	case ErrConfigMismatch:
		return e.Category == CategoryConfiguration
	case ErrSourceMismatch:
		return e.Category == CategoryImplementation
	case ErrDependencyMismatch:
		return e.Category == CategoryDependency
	}
	return false
}

// MalformedError is returned when a workflow file cannot be read as a workflow.
type MalformedError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := "malformed workflow"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Unwrap() error { return e.Err }

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedWorkflow
}

// StepError reports a step that cannot join a workflow.
type StepError struct {
	Step   string
	Reason string
	Err    error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("step %s: %s", e.Step, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepError) Unwrap() error { return e.Err }

func (e *StepError) Is(target error) bool {
	return target == ErrInvalidStep
}
