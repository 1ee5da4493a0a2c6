package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-engine/shifts"
	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var testWeek = wage.WeekKey{Year: 2025, Week: 31}

func seedContract(t *testing.T, store *sqlite.Store, id wage.ContractID) {
	t.Helper()
	require.NoError(t, store.SaveContract(context.Background(), wage.Contract{
		ID:          id,
		WorkerID:    "wk-1",
		WorkplaceID: "wp-1",
		HourlyRate:  decimal.RequireFromString("10030.50"),
		Currency:    "KRW",
		CreatedAt:   time.Now().UTC(),
	}))
}

func testShift(id wage.ShiftID, contractID wage.ContractID, bucketID wage.BucketID, workDate time.Time) wage.ShiftRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return wage.ShiftRecord{
		ID:            id,
		ContractID:    contractID,
		BucketID:      bucketID,
		WorkDate:      workDate,
		Start:         wage.TimeOfDay{Hour: 9, Minute: 0},
		End:           wage.TimeOfDay{Hour: 18, Minute: 0},
		BreakMinutes:  60,
		WorkedMinutes: 480,
		Status:        wage.StatusScheduled,
		Memo:          "morning shift",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var workMonday = time.Date(2025, time.July, 28, 0, 0, 0, 0, time.UTC)

// =============================================================================
// SHIFT ROUNDTRIP
// =============================================================================

func TestSQLite_ShiftRoundtrip(t *testing.T) {
	// GIVEN: A saved shift
	// WHEN: Loading it back
	// THEN: Every field survives the TEXT encoding

	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	saved := testShift("shift-1", "ct-1", "", workMonday)
	require.NoError(t, store.SaveShift(ctx, saved))

	got, err := store.GetShift(ctx, "shift-1")
	require.NoError(t, err)

	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.ContractID, got.ContractID)
	assert.True(t, got.WorkDate.Equal(workMonday))
	assert.Equal(t, saved.Start, got.Start)
	assert.Equal(t, saved.End, got.End)
	assert.Equal(t, saved.BreakMinutes, got.BreakMinutes)
	assert.Equal(t, saved.WorkedMinutes, got.WorkedMinutes)
	assert.Equal(t, saved.Status, got.Status)
	assert.Equal(t, saved.Memo, got.Memo)
	assert.Empty(t, got.BucketID)
}

func TestSQLite_SaveShift_Upserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	shift := testShift("shift-1", "ct-1", "", workMonday)
	require.NoError(t, store.SaveShift(ctx, shift))

	shift.Status = wage.StatusCompleted
	shift.WorkedMinutes = 510
	require.NoError(t, store.SaveShift(ctx, shift))

	got, err := store.GetShift(ctx, "shift-1")
	require.NoError(t, err)
	assert.Equal(t, wage.StatusCompleted, got.Status)
	assert.Equal(t, 510, got.WorkedMinutes)
}

func TestSQLite_GetShift_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetShift(context.Background(), "shift-nope")
	assert.ErrorIs(t, err, wage.ErrShiftNotFound)
}

func TestSQLite_DeleteShift_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteShift(context.Background(), "shift-nope")
	assert.ErrorIs(t, err, wage.ErrShiftNotFound)
}

// =============================================================================
// BUCKET GET-OR-CREATE
// =============================================================================

func TestSQLite_GetOrCreateBucket_CreatesOnce(t *testing.T) {
	// GIVEN: No bucket for the week
	// WHEN: Get-or-create runs twice with different candidate ids
	// THEN: Both calls return the first bucket; the second id is discarded

	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	now := time.Now().UTC()
	first, err := store.GetOrCreateBucket(ctx, "ct-1", testWeek, "bk-1", now)
	require.NoError(t, err)
	assert.Equal(t, wage.BucketID("bk-1"), first.ID)
	assert.True(t, first.TotalHours.IsZero())

	second, err := store.GetOrCreateBucket(ctx, "ct-1", testWeek, "bk-2", now)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSQLite_GetOrCreateBucket_DistinctPerWeekAndContract(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")
	seedContract(t, store, "ct-2")

	now := time.Now().UTC()
	a, err := store.GetOrCreateBucket(ctx, "ct-1", testWeek, "bk-1", now)
	require.NoError(t, err)
	b, err := store.GetOrCreateBucket(ctx, "ct-1", wage.WeekKey{Year: 2025, Week: 32}, "bk-2", now)
	require.NoError(t, err)
	c, err := store.GetOrCreateBucket(ctx, "ct-2", testWeek, "bk-3", now)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestSQLite_UpdateBucketTotals_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	bucket, err := store.GetOrCreateBucket(ctx, "ct-1", testWeek, "bk-1", time.Now().UTC())
	require.NoError(t, err)

	totals := wage.Totals{
		TotalHours:      decimal.RequireFromString("48"),
		PaidLeaveAmount: decimal.RequireFromString("96000"),
		OvertimeHours:   decimal.RequireFromString("8"),
		OvertimeAmount:  decimal.RequireFromString("120000"),
	}
	require.NoError(t, store.UpdateBucketTotals(ctx, bucket.ID, totals))

	got, err := store.GetBucket(ctx, bucket.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalHours.Equal(totals.TotalHours))
	assert.True(t, got.PaidLeaveAmount.Equal(totals.PaidLeaveAmount))
	assert.True(t, got.OvertimeHours.Equal(totals.OvertimeHours))
	assert.True(t, got.OvertimeAmount.Equal(totals.OvertimeAmount))
}

func TestSQLite_BucketNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetBucket(ctx, "bk-nope")
	assert.ErrorIs(t, err, wage.ErrBucketNotFound)

	err = store.DeleteBucket(ctx, "bk-nope")
	assert.ErrorIs(t, err, wage.ErrBucketNotFound)

	err = store.UpdateBucketTotals(ctx, "bk-nope", wage.Totals{
		TotalHours:      decimal.Zero,
		PaidLeaveAmount: decimal.Zero,
		OvertimeHours:   decimal.Zero,
		OvertimeAmount:  decimal.Zero,
	})
	assert.ErrorIs(t, err, wage.ErrBucketNotFound)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestSQLite_ListShiftsByBucket_And_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	bucket, err := store.GetOrCreateBucket(ctx, "ct-1", testWeek, "bk-1", time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, store.SaveShift(ctx, testShift("shift-1", "ct-1", bucket.ID, workMonday)))
	require.NoError(t, store.SaveShift(ctx, testShift("shift-2", "ct-1", bucket.ID, workMonday.AddDate(0, 0, 1))))
	require.NoError(t, store.SaveShift(ctx, testShift("shift-3", "ct-1", "", workMonday.AddDate(0, 0, 2))))

	got, err := store.ListShiftsByBucket(ctx, bucket.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, wage.ShiftID("shift-1"), got[0].ID, "ordered by work date")

	n, err := store.CountShiftsByBucket(ctx, bucket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLite_WorkplaceAndWorkerRangeQueries(t *testing.T) {
	// GIVEN: Shifts on two contracts of one workplace
	// WHEN: Querying the workplace and the worker views over a date range
	// THEN: Only shifts inside [from, to] of the matching contracts return

	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	require.NoError(t, store.SaveContract(ctx, wage.Contract{
		ID:          "ct-2",
		WorkerID:    "wk-2",
		WorkplaceID: "wp-1",
		HourlyRate:  decimal.NewFromInt(12000),
		Currency:    "KRW",
		CreatedAt:   time.Now().UTC(),
	}))

	require.NoError(t, store.SaveShift(ctx, testShift("shift-1", "ct-1", "", workMonday)))
	require.NoError(t, store.SaveShift(ctx, testShift("shift-2", "ct-2", "", workMonday.AddDate(0, 0, 1))))
	require.NoError(t, store.SaveShift(ctx, testShift("shift-3", "ct-1", "", workMonday.AddDate(0, 0, 30))))

	byWorkplace, err := store.ListShiftsByWorkplace(ctx, "wp-1", workMonday, workMonday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Len(t, byWorkplace, 2, "both contracts of the workplace, range filtered")

	byWorker, err := store.ListShiftsByWorker(ctx, "wk-1", workMonday, workMonday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, byWorker, 1)
	assert.Equal(t, wage.ShiftID("shift-1"), byWorker[0].ID)
}

func TestSQLite_ListAllBuckets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	now := time.Now().UTC()
	_, err := store.GetOrCreateBucket(ctx, "ct-1", testWeek, "bk-1", now)
	require.NoError(t, err)
	_, err = store.GetOrCreateBucket(ctx, "ct-1", wage.WeekKey{Year: 2025, Week: 32}, "bk-2", now)
	require.NoError(t, err)

	all, err := store.ListAllBuckets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// CONTRACTS AND WORKERS
// =============================================================================

func TestSQLite_ContractRoundtrip_ExactRate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	got, err := store.Contract(ctx, "ct-1")
	require.NoError(t, err)
	assert.True(t, got.HourlyRate.Equal(decimal.RequireFromString("10030.50")),
		"rate must survive storage exactly, got %s", got.HourlyRate)
	assert.Equal(t, "KRW", got.Currency)

	_, err = store.Contract(ctx, "ct-nope")
	assert.ErrorIs(t, err, wage.ErrContractNotFound)
}

func TestSQLite_WorkerByUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWorker(ctx, wage.Worker{ID: "wk-1", UserID: "user-1", Name: "Jiwoo Park"}))

	got, err := store.WorkerByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, wage.WorkerID("wk-1"), got.ID)

	_, err = store.WorkerByUser(ctx, "user-nope")
	assert.ErrorIs(t, err, wage.ErrWorkerNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A unit of work that saves a shift and then fails
	// WHEN: The transaction returns the error
	// THEN: The shift is not visible afterwards

	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(st wage.Store) error {
		if err := st.SaveShift(ctx, testShift("shift-1", "ct-1", "", workMonday)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetShift(ctx, "shift-1")
	assert.ErrorIs(t, err, wage.ErrShiftNotFound)
}

func TestSQLite_WithTx_ContractReadableInsideTx(t *testing.T) {
	// GIVEN: A unit of work holding the transaction's pinned connection
	// WHEN: Reading the contract rate through the transactional view
	// THEN: The read stays on that connection - on an in-memory database a
	//       second pooled connection would see a separate empty schema

	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	err := store.WithTx(ctx, func(st wage.Store) error {
		contract, err := st.Contract(ctx, "ct-1")
		if err != nil {
			return err
		}
		assert.True(t, contract.HourlyRate.Equal(decimal.RequireFromString("10030.50")))
		return nil
	})
	require.NoError(t, err)
}

func TestSQLite_LifecycleMutation_InMemoryDatabase(t *testing.T) {
	// GIVEN: The lifecycle service wired over an in-memory SQLite store
	// WHEN: Recording a shift (persist + recompute in one transaction)
	// THEN: The mutation succeeds and the bucket totals are derived

	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	svc := shifts.NewService(store, store, store)
	shift, err := svc.Create(ctx, shifts.CreateRequest{
		ContractID:   "ct-1",
		WorkDate:     workMonday,
		Start:        wage.TimeOfDay{Hour: 9, Minute: 0},
		End:          wage.TimeOfDay{Hour: 18, Minute: 0},
		BreakMinutes: 60,
	})
	require.NoError(t, err)

	bucket, err := store.GetBucket(ctx, shift.BucketID)
	require.NoError(t, err)
	assert.True(t, bucket.TotalHours.Equal(decimal.NewFromInt(8)),
		"totals must be recomputed inside the transaction, got %s", bucket.TotalHours)
}

func TestSQLite_WithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	err := store.WithTx(ctx, func(st wage.Store) error {
		return st.SaveShift(ctx, testShift("shift-1", "ct-1", "", workMonday))
	})
	require.NoError(t, err)

	_, err = store.GetShift(ctx, "shift-1")
	assert.NoError(t, err)
}

// =============================================================================
// RESET
// =============================================================================

func TestSQLite_Reset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedContract(t, store, "ct-1")

	_, err := store.GetOrCreateBucket(ctx, "ct-1", testWeek, "bk-1", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.SaveShift(ctx, testShift("shift-1", "ct-1", "bk-1", workMonday)))

	require.NoError(t, store.Reset(ctx))

	_, err = store.GetShift(ctx, "shift-1")
	assert.ErrorIs(t, err, wage.ErrShiftNotFound)
	_, err = store.Contract(ctx, "ct-1")
	assert.ErrorIs(t, err, wage.ErrContractNotFound)
}
