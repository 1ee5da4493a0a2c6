/*
errors.go - Error kinds surfaced by the aggregation engine

PURPOSE:
  All error types in one place. The lifecycle service and stores return
  these; the request layer translates them to transport responses.

ERROR CATEGORIES:
  1. Not-found errors  - referenced contract/shift/bucket/worker is unknown
  2. Validation errors - a shift's time range does not add up
  3. State errors      - an operation is illegal for the shift's status
  4. Consistency       - a bucket's stored shift set disagrees with its
                         foreign keys (defensive; never expected in correct
                         operation)

PROPAGATION:
  Every error aborts the enclosing store transaction. Nothing here is
  retried internally; retries are a caller concern.

SEE ALSO:
  - engine.go:  returns ConsistencyError
  - shifts/:    returns the validation and state errors
*/
package wage

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrContractNotFound is returned when a referenced contract is unknown.
	ErrContractNotFound = errors.New("contract not found")

	// ErrShiftNotFound is returned when a referenced shift is unknown.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrBucketNotFound is returned when a referenced weekly bucket is unknown.
	ErrBucketNotFound = errors.New("weekly bucket not found")

	// ErrWorkerNotFound is returned when no worker exists for a user.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrInvalidRange is returned when a shift's derived worked minutes
	// would be negative (end before start, or break exceeding the span).
	ErrInvalidRange = errors.New("invalid shift time range")

	// ErrInvalidState is returned when an operation is attempted against a
	// shift whose status forbids it.
	ErrInvalidState = errors.New("operation not allowed in current shift state")

	// ErrConsistency is returned when a recomputation observes a shift set
	// inconsistent with the bucket's stored foreign keys. It indicates a
	// storage defect, not bad user input.
	ErrConsistency = errors.New("bucket/shift consistency violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError details why a shift's time range is rejected.
type InvalidRangeError struct {
	Start         TimeOfDay
	End           TimeOfDay
	BreakMinutes  int
	WorkedMinutes int // the negative derived value
}

func (e *InvalidRangeError) Error() string {
	// A negative break is its own defect; the derived minutes can look fine.
	if e.BreakMinutes < 0 {
		return fmt.Sprintf("invalid shift range %s-%s: break minutes must not be negative (got %d)",
			e.Start, e.End, e.BreakMinutes)
	}
	return fmt.Sprintf("invalid shift range %s-%s with %dmin break: %d worked minutes",
		e.Start, e.End, e.BreakMinutes, e.WorkedMinutes)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// InvalidStateError details an operation rejected by the shift's status.
type InvalidStateError struct {
	ShiftID   ShiftID
	Status    ShiftStatus
	Operation string // "delete", "complete", ...
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s shift %s in status %q", e.Operation, e.ShiftID, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ConsistencyError reports a shift whose foreign key disagrees with the
// bucket it was loaded for.
type ConsistencyError struct {
	BucketID BucketID
	ShiftID  ShiftID
	Detail   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency violation on bucket %s (shift %s): %s",
		e.BucketID, e.ShiftID, e.Detail)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error names a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrBucketNotFound) ||
		errors.Is(err, ErrWorkerNotFound)
}

// IsClientError reports whether the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrInvalidState)
}
