package wage

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekKeyFor_MidYear(t *testing.T) {
	// GIVEN: A date in the middle of the year
	// WHEN: Resolving its ISO week
	// THEN: Year and week match the ISO-8601 calendar

	k := WeekKeyFor(date(2025, time.July, 28)) // a Monday
	if k.Year != 2025 || k.Week != 31 {
		t.Errorf("expected 2025-W31, got %s", k)
	}
}

func TestWeekKeyFor_YearBoundary_BelongsToNextISOYear(t *testing.T) {
	// GIVEN: Dec 30, 2024 (a Monday whose week contains Jan 1, 2025)
	// WHEN: Resolving its ISO week
	// THEN: It belongs to 2025-W01, not any week of 2024

	k := WeekKeyFor(date(2024, time.December, 30))
	if k.Year != 2025 || k.Week != 1 {
		t.Errorf("expected 2025-W01, got %s", k)
	}
}

func TestWeekKeyFor_YearBoundary_BelongsToPreviousISOYear(t *testing.T) {
	// GIVEN: Jan 1, 2027 (a Friday in the last week of ISO year 2026)
	// WHEN: Resolving its ISO week
	// THEN: It belongs to 2026-W53

	k := WeekKeyFor(date(2027, time.January, 1))
	if k.Year != 2026 || k.Week != 53 {
		t.Errorf("expected 2026-W53, got %s", k)
	}
}

func TestWeekKey_String(t *testing.T) {
	k := WeekKey{Year: 2025, Week: 3}
	if got := k.String(); got != "2025-W03" {
		t.Errorf("expected 2025-W03, got %s", got)
	}
}

func TestWeekKey_StartEnd(t *testing.T) {
	// GIVEN: An ISO week key
	// WHEN: Computing its Monday and Sunday
	// THEN: The range covers exactly the week's seven days

	k := WeekKey{Year: 2025, Week: 31}
	if got := k.Start(); !got.Equal(date(2025, time.July, 28)) {
		t.Errorf("expected start 2025-07-28, got %s", got.Format("2006-01-02"))
	}
	if got := k.End(); !got.Equal(date(2025, time.August, 3)) {
		t.Errorf("expected end 2025-08-03, got %s", got.Format("2006-01-02"))
	}
}

func TestWeekKey_Start_FirstWeekSpanningYears(t *testing.T) {
	// 2025-W01 starts in calendar year 2024
	k := WeekKey{Year: 2025, Week: 1}
	if got := k.Start(); !got.Equal(date(2024, time.December, 30)) {
		t.Errorf("expected start 2024-12-30, got %s", got.Format("2006-01-02"))
	}
}

func TestWeekKey_Contains(t *testing.T) {
	k := WeekKey{Year: 2025, Week: 31}

	if !k.Contains(date(2025, time.July, 30)) {
		t.Error("expected week to contain its Wednesday")
	}
	if k.Contains(date(2025, time.August, 4)) {
		t.Error("expected week not to contain the following Monday")
	}
}

func TestWeekKey_RoundTrip(t *testing.T) {
	// Every day of a week resolves back to the same key.
	k := WeekKey{Year: 2026, Week: 53}
	for d := k.Start(); !d.After(k.End()); d = d.AddDate(0, 0, 1) {
		if got := WeekKeyFor(d); got != k {
			t.Errorf("day %s resolved to %s, expected %s", d.Format("2006-01-02"), got, k)
		}
	}
}
