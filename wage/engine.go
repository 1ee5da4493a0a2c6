/*
engine.go - Weekly allowance computation and bucket recomputation

PURPOSE:
  Derives a weekly bucket's four aggregate fields (total hours, paid-leave
  amount, overtime hours, overtime amount) from its live shift set and the
  contract's hourly rate.

FORMULAS (statutory, Korean labor-standards style):
  totalHours      = sum(shift.workedMinutes / 60), exact decimal
  paidLeaveAmount = round_half_up(totalHours/40, 2dp) * 8 * rate
                    when totalHours >= 15 (inclusive), else 0
  overtimeHours   = totalHours - 40 when totalHours > 40 (strict), else 0
  overtimeAmount  = overtimeHours * rate * 1.5

  Monetary outputs round to 2 decimal places (currency minor units); hours
  fields keep 2 decimal places at rest. No rounding happens before the
  threshold comparisons.

CRITICAL INVARIANTS:
  1. RECOMPUTE, NEVER PATCH: totals are a pure function of the shift set.
     There is no incremental adjustment that can drift.
  2. IDEMPOTENT: recomputing twice with no intervening shift change yields
     identical stored values.
  3. BUCKET-ONLY MUTATION: recomputation updates the bucket, never a shift.

SEE ALSO:
  - types.go: ShiftRecord, WeeklyBucket
  - store.go: the Store interfaces the engine reads through
*/
package wage

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUTORY CONSTANTS
// =============================================================================

var (
	minutesPerHour = decimal.NewFromInt(60)

	// minPaidLeaveHours is the weekly threshold (inclusive) below which no
	// paid-leave allowance accrues.
	minPaidLeaveHours = decimal.NewFromInt(15)

	// standardWeekHours is the statutory full week. Hours beyond it (strict)
	// are overtime; the paid-leave allowance is pro-rated against it.
	standardWeekHours = decimal.NewFromInt(40)

	// paidLeaveHours is the number of paid hours granted for a full week.
	paidLeaveHours = decimal.NewFromInt(8)

	// overtimeMultiplier is the statutory overtime premium.
	overtimeMultiplier = decimal.RequireFromString("1.5")
)

const moneyPlaces = 2 // currency minor-unit precision
const hoursPlaces = 2

// =============================================================================
// TOTALS - Pure computation over a shift set
// =============================================================================

// Totals holds the four derived fields of a weekly bucket.
type Totals struct {
	TotalHours      decimal.Decimal
	PaidLeaveAmount decimal.Decimal
	OvertimeHours   decimal.Decimal
	OvertimeAmount  decimal.Decimal
}

// ComputeTotals derives a bucket's totals from its live shift set and the
// contract's hourly rate. It is a pure function: same shifts and rate, same
// totals.
func ComputeTotals(shifts []ShiftRecord, hourlyRate decimal.Decimal) Totals {
	// Sum the minutes exactly and divide once. Summing per-shift divisions
	// accumulates truncation on repeating decimals (18 x 50min is exactly 15
	// hours, but 18 x 0.8333... sums just under it) and can push a week off
	// the inclusive allowance threshold.
	minutes := int64(0)
	for _, s := range shifts {
		minutes += int64(s.WorkedMinutes)
	}
	total := decimal.NewFromInt(minutes).Div(minutesPerHour)

	t := Totals{
		TotalHours:      total.Round(hoursPlaces),
		PaidLeaveAmount: decimal.Zero,
		OvertimeHours:   decimal.Zero,
		OvertimeAmount:  decimal.Zero,
	}

	// Weekly paid leave: inclusive at the 15 hour threshold. The pro-rata
	// factor rounds half-up to 2dp before the rate is applied.
	if total.GreaterThanOrEqual(minPaidLeaveHours) {
		factor := total.Div(standardWeekHours).Round(moneyPlaces)
		t.PaidLeaveAmount = factor.Mul(paidLeaveHours).Mul(hourlyRate).Round(moneyPlaces)
	}

	// Overtime: strictly beyond the 40 hour standard week.
	if total.GreaterThan(standardWeekHours) {
		overtime := total.Sub(standardWeekHours).Round(hoursPlaces)
		t.OvertimeHours = overtime
		t.OvertimeAmount = overtime.Mul(hourlyRate).Mul(overtimeMultiplier).Round(moneyPlaces)
	}

	return t
}

// Apply writes the totals onto a bucket.
func (t Totals) Apply(b *WeeklyBucket) {
	b.TotalHours = t.TotalHours
	b.PaidLeaveAmount = t.PaidLeaveAmount
	b.OvertimeHours = t.OvertimeHours
	b.OvertimeAmount = t.OvertimeAmount
}

// =============================================================================
// ENGINE - Recomputation against the stores
// =============================================================================

// Engine recomputes weekly buckets from persisted state. It must be invoked
// after every shift mutation that touches a bucket; the lifecycle service
// does so inside the same store transaction as the mutation.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// RecomputeBucket reloads the bucket's live shift set and persists freshly
// derived totals. The store argument is whichever view the caller is working
// through - inside a WithTx unit of work that is the transactional view.
func (e *Engine) RecomputeBucket(ctx context.Context, store Store, bucketID BucketID) (WeeklyBucket, error) {
	bucket, err := store.GetBucket(ctx, bucketID)
	if err != nil {
		return WeeklyBucket{}, err
	}

	shifts, err := store.ListShiftsByBucket(ctx, bucketID)
	if err != nil {
		return WeeklyBucket{}, err
	}

	// Defensive: every shift the store handed back must actually reference
	// this bucket. A mismatch means the FK index and the query disagree.
	for _, s := range shifts {
		if s.BucketID != bucketID {
			return WeeklyBucket{}, &ConsistencyError{
				BucketID: bucketID,
				ShiftID:  s.ID,
				Detail:   "shift loaded for bucket references " + string(s.BucketID),
			}
		}
	}

	// The rate is read through the same store view as the shifts. Reading it
	// through a separate handle would escape the transaction - and on an
	// in-memory SQLite database land on a different connection entirely.
	contract, err := store.Contract(ctx, bucket.ContractID)
	if err != nil {
		return WeeklyBucket{}, err
	}

	totals := ComputeTotals(shifts, contract.HourlyRate)
	if err := store.UpdateBucketTotals(ctx, bucketID, totals); err != nil {
		return WeeklyBucket{}, err
	}

	totals.Apply(&bucket)
	return bucket, nil
}
