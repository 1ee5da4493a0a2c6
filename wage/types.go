/*
Package wage provides the core weekly-allowance aggregation engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking hourly
  work shifts under fixed-wage contracts and deriving the statutory weekly
  entitlements from them: the weekly paid-leave allowance and the overtime
  premium.

KEY CONCEPTS IN THIS FILE (types.go):
  - Contract:     An hourly-wage contract (rate is immutable to the engine)
  - ShiftRecord:  A single shift entry with a derived worked-minutes total
  - WeeklyBucket: The per-(contract, ISO week) aggregate holding totals
  - TimeOfDay:    A wall-clock time used for shift start/end
  - ID types:     Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: All hours and monetary amounts use decimal.Decimal to avoid
     floating-point errors. Money rounds to 2dp, hours keep 2dp at rest.
  2. One-directional ownership: ShiftRecord owns the bucket foreign key.
     A bucket's shift set is always a store query, never an in-memory
     collection that has to be kept in sync.
  3. Derived aggregates: A bucket's totals are a pure function of its live
     shift set and the contract rate. They are recomputed, never patched.

SEE ALSO:
  - week.go:   ISO week resolution (WeekKey)
  - engine.go: Totals computation and bucket recomputation
  - store.go:  Persistence interfaces
  - errors.go: Error kinds surfaced by the engine
*/
package wage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ContractID string
type ShiftID string
type BucketID string
type WorkerID string
type WorkplaceID string
type UserID string

// =============================================================================
// CONTRACT - External, read-only to the engine
// =============================================================================

// Contract references an hourly-wage contract. The engine never mutates
// contracts; it only reads the rate when recomputing a bucket.
type Contract struct {
	ID          ContractID
	WorkerID    WorkerID
	WorkplaceID WorkplaceID
	HourlyRate  decimal.Decimal
	Currency    string
	CreatedAt   time.Time
}

// Worker links a platform user to their worker profile. Used only by the
// worker-facing read path.
type Worker struct {
	ID     WorkerID
	UserID UserID
	Name   string
}

// =============================================================================
// TIME OF DAY - Wall-clock shift boundaries
// =============================================================================

// TimeOfDay is a wall-clock time within a single work date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "15:04" formatted input.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes elapsed since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// WorkedMinutes computes the derived shift length: the span between start
// and end minus the unpaid break. A negative result means the range is
// invalid (end before start, or break exceeding the span); callers surface
// that as InvalidRangeError.
func WorkedMinutes(start, end TimeOfDay, breakMinutes int) int {
	return end.Minutes() - start.Minutes() - breakMinutes
}

// =============================================================================
// SHIFT RECORD
// =============================================================================

// ShiftStatus tracks where a shift sits in its lifecycle.
//
// Transitions:
//   scheduled        -> modified_before (time-affecting update before work)
//   scheduled        -> completed
//   modified_before  -> completed
//   completed        -> modified_after  (post-hoc correction)
//
// Nothing leaves completed/modified_after back to a pre-completion state,
// and deletion is legal only from scheduled.
type ShiftStatus string

const (
	StatusScheduled      ShiftStatus = "scheduled"
	StatusModifiedBefore ShiftStatus = "modified_before"
	StatusCompleted      ShiftStatus = "completed"
	StatusModifiedAfter  ShiftStatus = "modified_after"
)

// ShiftRecord is a single work shift. It owns the foreign key to its weekly
// bucket; the bucket side of the relation is always derived by query.
type ShiftRecord struct {
	ID         ShiftID
	ContractID ContractID

	WorkDate      time.Time // date only, UTC midnight
	Start         TimeOfDay
	End           TimeOfDay
	BreakMinutes  int
	WorkedMinutes int // derived: span - break, always >= 0 once persisted

	Status ShiftStatus
	Memo   string

	// BucketID is empty until the shift is assigned to a weekly bucket.
	BucketID BucketID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Deletable reports whether the shift may still be removed.
func (s ShiftRecord) Deletable() bool {
	return s.Status == StatusScheduled
}

// Completed reports whether work on the shift has already happened.
func (s ShiftRecord) Completed() bool {
	return s.Status == StatusCompleted || s.Status == StatusModifiedAfter
}

// =============================================================================
// WEEKLY BUCKET - Per-(contract, ISO week) aggregate
// =============================================================================

// WeeklyBucket holds the running totals for one contract and one ISO week.
// Its four derived fields are recomputed from the live shift set after every
// mutation; they are never adjusted incrementally.
type WeeklyBucket struct {
	ID         BucketID
	ContractID ContractID
	Week       WeekKey

	TotalHours      decimal.Decimal // 2dp at rest
	PaidLeaveAmount decimal.Decimal // 2dp, currency minor units
	OvertimeHours   decimal.Decimal // 2dp
	OvertimeAmount  decimal.Decimal // 2dp, currency minor units

	CreatedAt time.Time
}

// NewBucket returns a zero-total bucket anchored to the given week.
func NewBucket(id BucketID, contractID ContractID, week WeekKey, now time.Time) WeeklyBucket {
	return WeeklyBucket{
		ID:              id,
		ContractID:      contractID,
		Week:            week,
		TotalHours:      decimal.Zero,
		PaidLeaveAmount: decimal.Zero,
		OvertimeHours:   decimal.Zero,
		OvertimeAmount:  decimal.Zero,
		CreatedAt:       now,
	}
}
