package domain

import (
	"strings"
	"time"
)

// Recurrence is the cadence at which a completed task regenerates.
type Recurrence string

// Supported recurrence rules
const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// ParseRecurrence normalizes a wire value into a Recurrence.
// An empty string maps to RecurrenceNone. Unknown values are returned as-is
// so that callers can decide whether to reject them; IsValid reports false for them.
func ParseRecurrence(s string) Recurrence {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RecurrenceNone
	}
	return Recurrence(s)
}

// IsValid reports whether r is one of the supported rules.
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Recurs reports whether r produces further occurrences.
func (r Recurrence) Recurs() bool {
	return r.IsValid() && r != RecurrenceNone
}

// NextDue computes the due time of the occurrence following dueAt.
//
// Daily and weekly rules advance by calendar days in dueAt's location.
// Monthly and yearly rules advance by calendar months and clamp the day of
// month to the last day of the target month, so Jan 31 becomes Feb 28 (or 29)
// and Feb 29 becomes Feb 28 in a non-leap year.
//
// The boolean is false for RecurrenceNone and for unrecognized rules, which
// means the task must not regenerate.
func NextDue(dueAt time.Time, rule Recurrence) (time.Time, bool) {
	switch rule {
	case RecurrenceDaily:
		return dueAt.AddDate(0, 0, 1), true
	case RecurrenceWeekly:
		return dueAt.AddDate(0, 0, 7), true
	case RecurrenceMonthly:
		return addMonthsClamped(dueAt, 1), true
	case RecurrenceYearly:
		return addMonthsClamped(dueAt, 12), true
	default:
		return time.Time{}, false
	}
}

// addMonthsClamped adds months to t without time.AddDate's overflow
// normalization (which would turn Jan 31 + 1 month into Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	// Day 1 never overflows, so this yields the correct target month.
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	ty, tm, _ := target.Date()

	if last := daysIn(ty, tm); day > last {
		day = last
	}

	return time.Date(ty, tm, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
