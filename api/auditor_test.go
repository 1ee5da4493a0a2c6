package api

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-engine/wage"
)

func TestAuditor_CleanState_NoFindings(t *testing.T) {
	// GIVEN: Buckets maintained exclusively through the lifecycle service
	// WHEN: Sweeping
	// THEN: Nothing is flagged

	h, router := newTestServer(t)
	registerContract(t, router)
	createShift(t, router, "2025-07-28")
	createShift(t, router, "2025-07-29")

	auditor := NewConsistencyAuditor(h.Store)
	findings, err := auditor.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAuditor_DriftedTotals_FlaggedAndRepaired(t *testing.T) {
	// GIVEN: A bucket whose stored totals were edited out of band
	// WHEN: Sweeping with Repair enabled
	// THEN: The drift is reported and the recomputed totals are restored

	h, router := newTestServer(t)
	registerContract(t, router)
	shift := createShift(t, router, "2025-07-28")

	ctx := context.Background()
	bucketID := wage.BucketID(shift.BucketID)

	// Simulate out-of-band drift.
	require.NoError(t, h.Store.UpdateBucketTotals(ctx, bucketID, wage.Totals{
		TotalHours:      decimal.NewFromInt(99),
		PaidLeaveAmount: decimal.NewFromInt(999999),
		OvertimeHours:   decimal.Zero,
		OvertimeAmount:  decimal.Zero,
	}))

	auditor := NewConsistencyAuditor(h.Store)
	auditor.Repair = true

	findings, err := auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, bucketID, findings[0].BucketID)

	bucket, err := h.Store.GetBucket(ctx, bucketID)
	require.NoError(t, err)
	assert.True(t, bucket.TotalHours.Equal(decimal.NewFromInt(8)),
		"repair must restore the derived hours, got %s", bucket.TotalHours)
}

func TestAuditor_EmptyBucket_Flagged(t *testing.T) {
	// An empty bucket can only appear through a storage defect; the sweep
	// reports it but never deletes data on its own.

	h, router := newTestServer(t)
	registerContract(t, router)

	ctx := context.Background()
	_, err := h.Store.GetOrCreateBucket(ctx, "ct-1", wage.WeekKey{Year: 2025, Week: 40}, "bk-orphan", time.Now().UTC())
	require.NoError(t, err)

	auditor := NewConsistencyAuditor(h.Store)
	findings, err := auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Detail, "empty bucket")
}

func TestAuditor_WithoutRepair_LeavesDrift(t *testing.T) {
	h, router := newTestServer(t)
	registerContract(t, router)
	shift := createShift(t, router, "2025-07-28")

	ctx := context.Background()
	bucketID := wage.BucketID(shift.BucketID)
	drifted := wage.Totals{
		TotalHours:      decimal.NewFromInt(99),
		PaidLeaveAmount: decimal.Zero,
		OvertimeHours:   decimal.Zero,
		OvertimeAmount:  decimal.Zero,
	}
	require.NoError(t, h.Store.UpdateBucketTotals(ctx, bucketID, drifted))

	auditor := NewConsistencyAuditor(h.Store)
	findings, err := auditor.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	bucket, err := h.Store.GetBucket(ctx, bucketID)
	require.NoError(t, err)
	assert.True(t, bucket.TotalHours.Equal(drifted.TotalHours), "no repair without the flag")
}
