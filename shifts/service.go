/*
Package shifts implements the shift lifecycle on top of the wage engine.

PURPOSE:
  Exposes the create / batch-create / update / complete / delete operations
  on shift records plus the read projections the request layer serves. Every
  mutation keeps the weekly buckets consistent: it resolves the work date's
  bucket, persists the shift, and recomputes the bucket's totals - all
  inside one store transaction, so a failure anywhere leaves no partial
  shift/bucket mutation visible.

LIFECYCLE RULES:
  - A new shift is scheduled and linked to its week's bucket immediately.
  - A time-affecting update advances status (scheduled -> modified_before,
    completed -> modified_after) and always re-triggers recomputation.
  - Completion changes status only; hours are untouched, so no recompute.
  - Deletion is legal only from scheduled. Removing the last shift of a
    bucket removes the bucket itself - empty buckets must not linger.

BATCH SEMANTICS:
  BatchCreate persists every shift first, then recomputes each distinct
  affected bucket exactly once. Buckets reflect the batch's final state,
  never an intermediate partial state.

SEE ALSO:
  - wage/engine.go: the recomputation invoked here
  - wage/store.go:  the TxStore every mutation runs through
*/
package shifts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service is the shift lifecycle manager.
type Service struct {
	Store     wage.TxStore
	Contracts wage.ContractProvider
	Workers   wage.WorkerDirectory
	Engine    *wage.Engine
}

// NewService wires a lifecycle manager over the given stores.
func NewService(store wage.TxStore, contracts wage.ContractProvider, workers wage.WorkerDirectory) *Service {
	return &Service{
		Store:     store,
		Contracts: contracts,
		Workers:   workers,
		Engine:    wage.NewEngine(),
	}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateRequest describes a single shift to record.
type CreateRequest struct {
	ContractID   wage.ContractID
	WorkDate     time.Time
	Start        wage.TimeOfDay
	End          wage.TimeOfDay
	BreakMinutes int
	Memo         string
}

// BatchCreateRequest records the same shift shape on several dates.
type BatchCreateRequest struct {
	ContractID   wage.ContractID
	WorkDates    []time.Time
	Start        wage.TimeOfDay
	End          wage.TimeOfDay
	BreakMinutes int
	Memo         string
}

// UpdateRequest carries optional field changes. Nil fields are left as-is;
// supplying any of Start/End/BreakMinutes makes the update time-affecting.
type UpdateRequest struct {
	Start        *wage.TimeOfDay
	End          *wage.TimeOfDay
	BreakMinutes *int
	Memo         *string
}

func (r UpdateRequest) timeAffecting() bool {
	return r.Start != nil || r.End != nil || r.BreakMinutes != nil
}

// =============================================================================
// CREATE
// =============================================================================

// Create validates and persists a new scheduled shift, linking it to the
// week's bucket and recomputing that bucket's totals.
func (s *Service) Create(ctx context.Context, req CreateRequest) (wage.ShiftRecord, error) {
	if _, err := s.Contracts.Contract(ctx, req.ContractID); err != nil {
		return wage.ShiftRecord{}, err
	}

	minutes, err := derivedMinutes(req.Start, req.End, req.BreakMinutes)
	if err != nil {
		return wage.ShiftRecord{}, err
	}

	now := time.Now().UTC()
	shift := wage.ShiftRecord{
		ID:            newShiftID(),
		ContractID:    req.ContractID,
		WorkDate:      dateOnly(req.WorkDate),
		Start:         req.Start,
		End:           req.End,
		BreakMinutes:  req.BreakMinutes,
		WorkedMinutes: minutes,
		Status:        wage.StatusScheduled,
		Memo:          req.Memo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.Store.WithTx(ctx, func(st wage.Store) error {
		bucket, err := st.GetOrCreateBucket(ctx, req.ContractID, wage.WeekKeyFor(shift.WorkDate), newBucketID(), now)
		if err != nil {
			return err
		}
		shift.BucketID = bucket.ID

		if err := st.SaveShift(ctx, shift); err != nil {
			return err
		}

		_, err = s.Engine.RecomputeBucket(ctx, st, bucket.ID)
		return err
	})
	if err != nil {
		return wage.ShiftRecord{}, err
	}
	return shift, nil
}

// =============================================================================
// BATCH CREATE
// =============================================================================

// BatchCreate records the same start/end/break on every date. Dates landing
// in different ISO weeks get different buckets; each affected bucket is
// recomputed exactly once, after all shifts are persisted.
func (s *Service) BatchCreate(ctx context.Context, req BatchCreateRequest) ([]wage.ShiftRecord, error) {
	if _, err := s.Contracts.Contract(ctx, req.ContractID); err != nil {
		return nil, err
	}

	// Same shape on every date, so the span is computed once and reused.
	minutes, err := derivedMinutes(req.Start, req.End, req.BreakMinutes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var created []wage.ShiftRecord

	err = s.Store.WithTx(ctx, func(st wage.Store) error {
		created = created[:0]
		touched := make(map[wage.BucketID]bool)

		for _, workDate := range req.WorkDates {
			date := dateOnly(workDate)
			bucket, err := st.GetOrCreateBucket(ctx, req.ContractID, wage.WeekKeyFor(date), newBucketID(), now)
			if err != nil {
				return err
			}

			shift := wage.ShiftRecord{
				ID:            newShiftID(),
				ContractID:    req.ContractID,
				WorkDate:      date,
				Start:         req.Start,
				End:           req.End,
				BreakMinutes:  req.BreakMinutes,
				WorkedMinutes: minutes,
				Status:        wage.StatusScheduled,
				Memo:          req.Memo,
				BucketID:      bucket.ID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := st.SaveShift(ctx, shift); err != nil {
				return err
			}

			created = append(created, shift)
			touched[bucket.ID] = true
		}

		// One recomputation per distinct bucket, against the batch's final
		// shift set.
		for bucketID := range touched {
			if _, err := s.Engine.RecomputeBucket(ctx, st, bucketID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// =============================================================================
// UPDATE
// =============================================================================

// Update applies the supplied field changes. Time-affecting changes rederive
// the worked minutes and advance the status; a shift that never got a bucket
// (legacy/ungrouped data) is assigned one now. The bucket is recomputed in
// all cases.
func (s *Service) Update(ctx context.Context, id wage.ShiftID, req UpdateRequest) (wage.ShiftRecord, error) {
	var updated wage.ShiftRecord

	err := s.Store.WithTx(ctx, func(st wage.Store) error {
		shift, err := st.GetShift(ctx, id)
		if err != nil {
			return err
		}

		if req.timeAffecting() {
			start, end, brk := shift.Start, shift.End, shift.BreakMinutes
			if req.Start != nil {
				start = *req.Start
			}
			if req.End != nil {
				end = *req.End
			}
			if req.BreakMinutes != nil {
				brk = *req.BreakMinutes
			}

			minutes, err := derivedMinutes(start, end, brk)
			if err != nil {
				return err
			}

			shift.Start = start
			shift.End = end
			shift.BreakMinutes = brk
			shift.WorkedMinutes = minutes
			shift.Status = statusAfterEdit(shift.Status)
		}

		if req.Memo != nil {
			shift.Memo = *req.Memo
		}
		shift.UpdatedAt = time.Now().UTC()

		if shift.BucketID == "" {
			bucket, err := st.GetOrCreateBucket(ctx, shift.ContractID, wage.WeekKeyFor(shift.WorkDate), newBucketID(), shift.UpdatedAt)
			if err != nil {
				return err
			}
			shift.BucketID = bucket.ID
		}

		if err := st.SaveShift(ctx, shift); err != nil {
			return err
		}

		if _, err := s.Engine.RecomputeBucket(ctx, st, shift.BucketID); err != nil {
			return err
		}

		updated = shift
		return nil
	})
	if err != nil {
		return wage.ShiftRecord{}, err
	}
	return updated, nil
}

// statusAfterEdit advances the status for a time-affecting edit. Nothing
// ever returns to a pre-completion state.
func statusAfterEdit(status wage.ShiftStatus) wage.ShiftStatus {
	switch status {
	case wage.StatusScheduled:
		return wage.StatusModifiedBefore
	case wage.StatusCompleted:
		return wage.StatusModifiedAfter
	default:
		return status
	}
}

// =============================================================================
// COMPLETE
// =============================================================================

// Complete marks a scheduled (or pre-completion-modified) shift as worked.
// Hours are unchanged by completion, so no recomputation runs.
func (s *Service) Complete(ctx context.Context, id wage.ShiftID) (wage.ShiftRecord, error) {
	var completed wage.ShiftRecord

	err := s.Store.WithTx(ctx, func(st wage.Store) error {
		shift, err := st.GetShift(ctx, id)
		if err != nil {
			return err
		}
		if shift.Completed() {
			return &wage.InvalidStateError{ShiftID: id, Status: shift.Status, Operation: "complete"}
		}

		shift.Status = wage.StatusCompleted
		shift.UpdatedAt = time.Now().UTC()
		if err := st.SaveShift(ctx, shift); err != nil {
			return err
		}

		completed = shift
		return nil
	})
	if err != nil {
		return wage.ShiftRecord{}, err
	}
	return completed, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a scheduled shift. If its bucket is left empty the bucket
// is deleted too; otherwise the bucket's totals are recomputed.
func (s *Service) Delete(ctx context.Context, id wage.ShiftID) error {
	return s.Store.WithTx(ctx, func(st wage.Store) error {
		shift, err := st.GetShift(ctx, id)
		if err != nil {
			return err
		}
		if !shift.Deletable() {
			return &wage.InvalidStateError{ShiftID: id, Status: shift.Status, Operation: "delete"}
		}

		if err := st.DeleteShift(ctx, id); err != nil {
			return err
		}

		if shift.BucketID == "" {
			return nil
		}

		remaining, err := st.CountShiftsByBucket(ctx, shift.BucketID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return st.DeleteBucket(ctx, shift.BucketID)
		}

		_, err = s.Engine.RecomputeBucket(ctx, st, shift.BucketID)
		return err
	})
}

// =============================================================================
// READ PROJECTIONS
// =============================================================================

// Get returns one shift by id.
func (s *Service) Get(ctx context.Context, id wage.ShiftID) (wage.ShiftRecord, error) {
	return s.Store.GetShift(ctx, id)
}

// ListByContract returns every shift recorded against a contract.
func (s *Service) ListByContract(ctx context.Context, contractID wage.ContractID) ([]wage.ShiftRecord, error) {
	if _, err := s.Contracts.Contract(ctx, contractID); err != nil {
		return nil, err
	}
	return s.Store.ListShiftsByContract(ctx, contractID)
}

// ListByWorkplace returns the employer calendar view: shifts for every
// contract of a workplace inside [from, to].
func (s *Service) ListByWorkplace(ctx context.Context, workplaceID wage.WorkplaceID, from, to time.Time) ([]wage.ShiftRecord, error) {
	return s.Store.ListShiftsByWorkplace(ctx, workplaceID, dateOnly(from), dateOnly(to))
}

// ListByUser resolves the user's worker profile and returns their shifts
// inside [from, to].
func (s *Service) ListByUser(ctx context.Context, userID wage.UserID, from, to time.Time) ([]wage.ShiftRecord, error) {
	worker, err := s.Workers.WorkerByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Store.ListShiftsByWorker(ctx, worker.ID, dateOnly(from), dateOnly(to))
}

// ListAllowances returns a contract's weekly buckets with their derived
// allowance amounts.
func (s *Service) ListAllowances(ctx context.Context, contractID wage.ContractID) ([]wage.WeeklyBucket, error) {
	if _, err := s.Contracts.Contract(ctx, contractID); err != nil {
		return nil, err
	}
	return s.Store.ListBucketsByContract(ctx, contractID)
}

// =============================================================================
// HELPERS
// =============================================================================

func derivedMinutes(start, end wage.TimeOfDay, breakMinutes int) (int, error) {
	minutes := wage.WorkedMinutes(start, end, breakMinutes)
	if breakMinutes < 0 || minutes < 0 {
		return 0, &wage.InvalidRangeError{
			Start:         start,
			End:           end,
			BreakMinutes:  breakMinutes,
			WorkedMinutes: minutes,
		}
	}
	return minutes, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func newShiftID() wage.ShiftID {
	return wage.ShiftID("shift-" + uuid.NewString())
}

func newBucketID() wage.BucketID {
	return wage.BucketID("week-" + uuid.NewString())
}
