/*
store.go - Persistence interfaces for shifts and weekly buckets

PURPOSE:
  Defines the interface between the domain logic and the database. Different
  implementations can use SQLite or in-memory storage; the lifecycle service
  and the engine only ever talk through these interfaces.

KEY INTERFACES:
  ShiftStore:       Shift persistence and the four read projections
  BucketStore:      Weekly bucket persistence, atomic get-or-create
  Store:            ShiftStore + BucketStore + ContractProvider (one
                    unit-of-work view; the contract read rides the same
                    transaction as the recomputation)
  TxStore:          Store with transaction support
  ContractProvider: Read-only hourly-rate lookup (external collaborator)
  WorkerDirectory:  Read-only user-to-worker resolution (external)

GET-OR-CREATE CONTRACT:
  GetOrCreateBucket must be atomic with respect to concurrent callers:
  two simultaneous shift insertions into the same unbucketed week must
  converge on ONE bucket. The SQLite implementation enforces this with a
  UNIQUE(contract_id, iso_year, iso_week) index; the memory implementation
  serializes under its lock.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - wage/store/memory.go:   in-memory for testing

SEE ALSO:
  - engine.go:  reads through Store
  - shifts/:    mutates through TxStore.WithTx
*/
package wage

import (
	"context"
	"time"
)

// =============================================================================
// SHIFT STORE
// =============================================================================

// ShiftStore handles persistence of shift records.
type ShiftStore interface {
	// SaveShift inserts or updates a shift record.
	SaveShift(ctx context.Context, shift ShiftRecord) error

	// GetShift returns the shift or ErrShiftNotFound.
	GetShift(ctx context.Context, id ShiftID) (ShiftRecord, error)

	// DeleteShift removes the shift or returns ErrShiftNotFound.
	DeleteShift(ctx context.Context, id ShiftID) error

	// ListShiftsByContract returns the contract's shifts ordered by work date.
	ListShiftsByContract(ctx context.Context, contractID ContractID) ([]ShiftRecord, error)

	// ListShiftsByBucket returns the live shift set of a bucket. This is the
	// derived side of the shift-bucket relation.
	ListShiftsByBucket(ctx context.Context, bucketID BucketID) ([]ShiftRecord, error)

	// CountShiftsByBucket returns how many shifts still reference the bucket.
	CountShiftsByBucket(ctx context.Context, bucketID BucketID) (int, error)

	// ListShiftsByWorkplace returns shifts for every contract of a workplace
	// in [from, to], ordered by work date (the employer calendar view).
	ListShiftsByWorkplace(ctx context.Context, workplaceID WorkplaceID, from, to time.Time) ([]ShiftRecord, error)

	// ListShiftsByWorker returns the worker's shifts in [from, to], ordered
	// by work date.
	ListShiftsByWorker(ctx context.Context, workerID WorkerID, from, to time.Time) ([]ShiftRecord, error)
}

// =============================================================================
// BUCKET STORE
// =============================================================================

// BucketStore handles persistence of weekly buckets.
type BucketStore interface {
	// GetOrCreateBucket returns the bucket for (contract, week), creating a
	// zero-total one if absent. Atomic: concurrent callers converge on the
	// same bucket. The newID is used only when a bucket is actually created.
	GetOrCreateBucket(ctx context.Context, contractID ContractID, week WeekKey, newID BucketID, now time.Time) (WeeklyBucket, error)

	// GetBucket returns the bucket or ErrBucketNotFound.
	GetBucket(ctx context.Context, id BucketID) (WeeklyBucket, error)

	// UpdateBucketTotals persists freshly derived totals.
	UpdateBucketTotals(ctx context.Context, id BucketID, totals Totals) error

	// DeleteBucket removes an (empty) bucket.
	DeleteBucket(ctx context.Context, id BucketID) error

	// ListBucketsByContract returns the contract's buckets ordered by week.
	ListBucketsByContract(ctx context.Context, contractID ContractID) ([]WeeklyBucket, error)
}

// =============================================================================
// COMBINED VIEWS
// =============================================================================

// Store is the unit-of-work view a single operation works through. It
// includes the contract read so recomputation never has to leave the
// transaction for the rate.
type Store interface {
	ShiftStore
	BucketStore
	ContractProvider
}

// TxStore wraps Store with transaction support. Every externally triggered
// mutation runs inside one WithTx call: a failure anywhere in the sequence
// leaves no partial shift/bucket mutation visible.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// EXTERNAL COLLABORATORS
// =============================================================================

// ContractProvider supplies immutable contract data. The engine treats it as
// read-only; contract management lives outside this core.
type ContractProvider interface {
	// Contract returns the contract or ErrContractNotFound.
	Contract(ctx context.Context, id ContractID) (Contract, error)
}

// WorkerDirectory resolves platform users to worker profiles. Used only by
// the worker-facing read path, never by mutations.
type WorkerDirectory interface {
	// WorkerByUser returns the worker or ErrWorkerNotFound.
	WorkerByUser(ctx context.Context, userID UserID) (Worker, error)
}
