package domain

import "fmt"

// Stage names one step of the ingestion or query pipeline. Failures are
// tagged with the stage they occurred in for diagnostics.
type Stage string

// Pipeline stages.
const (
	StageReceived    Stage = "received"
	StageChunked     Stage = "chunked"
	StageEmbedded    Stage = "embedded"
	StageIndexed     Stage = "indexed"
	StageRetrieved   Stage = "retrieved"
	StageSynthesized Stage = "synthesized"
)

// StageError wraps a pipeline failure with the stage it happened in.
type StageError struct {
	// Stage is the pipeline step that failed.
	Stage Stage

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the failing stage. Returns nil when err
// is nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
