package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Engine error kinds. Transport-level mapping (HTTP codes) happens only at
// the boundary handlers; inside the engine these kinds are the whole
// taxonomy.
const (
	KindValidation            = "VALIDATION_ERROR"
	KindDeduplicationConflict = "DEDUPLICATION_CONFLICT"
	KindNotFound              = "NOT_FOUND"
	KindSweepPartialFailure   = "RETENTION_SWEEP_PARTIAL_FAILURE"
)

// EngineError is the single tagged error type crossing engine component
// boundaries. Kind discriminates; the optional fields carry the context a
// given kind needs.
type EngineError struct {
	Kind    string
	Message string
	Cause   error

	// Candidates holds both matched customer ids for a
	// KindDeduplicationConflict error.
	Candidates []uuid.UUID
	// Step names the failed sweep step for a KindSweepPartialFailure error.
	Step string
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewValidationError reports a malformed ingestion payload. Caller's
// fault; the engine does not retry it.
func NewValidationError(message string, cause error) *EngineError {
	return &EngineError{
		Kind:    KindValidation,
		Message: message,
		Cause:   cause,
	}
}

// NewNotFoundError reports a profile lookup miss.
func NewNotFoundError(resource string, id uuid.UUID) *EngineError {
	return &EngineError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
	}
}

// NewDeduplicationConflict reports an ambiguous identity match: two
// distinct existing customers matched different identifier rules for one
// payload. The engine never auto-merges; both candidates are surfaced for
// manual or asynchronous reconciliation.
func NewDeduplicationConflict(candidateA, candidateB uuid.UUID) *EngineError {
	return &EngineError{
		Kind:       KindDeduplicationConflict,
		Message:    fmt.Sprintf("identifiers match two distinct customers %s and %s", candidateA, candidateB),
		Candidates: []uuid.UUID{candidateA, candidateB},
	}
}

// NewSweepPartialFailure reports a retention sweep that lost a batch
// midway. Batches committed before the failure stand; the failed batch is
// retried on the next scheduled run.
func NewSweepPartialFailure(step string, cause error) *EngineError {
	return &EngineError{
		Kind:    KindSweepPartialFailure,
		Message: fmt.Sprintf("sweep step %q failed mid-batch", step),
		Cause:   cause,
		Step:    step,
	}
}

// IsKind reports whether err is an EngineError of the given kind.
func IsKind(err error, kind string) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind == kind
	}
	return false
}
