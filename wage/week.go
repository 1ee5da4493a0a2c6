/*
week.go - Canonical ISO week resolution

PURPOSE:
  Maps a work date to the weekly bucket key for its contract. Buckets are
  keyed by (contract, ISO year, ISO week), so a date's bucket is found by
  arithmetic on the date itself - never by comparing creation timestamps,
  which is how duplicate buckets appear around week boundaries.

WEEK DEFINITION:
  ISO-8601 via time.Time.ISOWeek(): weeks run Monday through Sunday, and
  the ISO year of a boundary date can differ from its calendar year
  (e.g. 2024-12-30 belongs to 2025-W01, 2027-01-01 to 2026-W53).

SEE ALSO:
  - store.go: BucketStore.GetOrCreateBucket keys on WeekKey
  - engine.go: recomputation is per bucket, i.e. per WeekKey
*/
package wage

import (
	"fmt"
	"time"
)

// =============================================================================
// WEEK KEY
// =============================================================================

// WeekKey identifies one ISO-8601 calendar week.
type WeekKey struct {
	Year int // ISO year, not necessarily the calendar year of every day in it
	Week int // 1..53
}

// WeekKeyFor resolves the ISO week containing the given date.
func WeekKeyFor(date time.Time) WeekKey {
	year, week := date.ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// String formats the key as "2025-W31".
func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

// Start returns the Monday that opens the week, at UTC midnight.
func (k WeekKey) Start() time.Time {
	// Jan 4 is always inside ISO week 1 of its year.
	jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (k.Week-1)*7)
}

// End returns the Sunday that closes the week, at UTC midnight.
func (k WeekKey) End() time.Time {
	return k.Start().AddDate(0, 0, 6)
}

// Contains reports whether the date falls inside this week.
func (k WeekKey) Contains(date time.Time) bool {
	return WeekKeyFor(date) == k
}
