// Package recurrence expands recurring rules into concrete ledger
// transactions. Everything here is pure: time is passed in, storage is
// never touched.
package recurrence

import (
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

const (
	defaultDailyInterval  = 1
	defaultCustomInterval = 30

	// MaxIntervalDays bounds IntervalDays. Larger steps overflow calendar
	// arithmetic.
	MaxIntervalDays = 36500
)

// Advance returns the occurrence that follows ts (epoch milliseconds) for
// the rule's frequency. All calendar arithmetic happens in UTC.
//
// Weekly rules step a flat 7 days and monthly rules one calendar month from
// ts; Weekday and DayOfMonth are not consulted. Monthly steps use AddDate
// normalisation, so Jan 31 advances to Mar 3 (Mar 2 in leap years).
//
// The result is always after ts: a step that fails to move forward is
// replaced by the frequency's default step.
func Advance(ts int64, rule domain.Recurring) int64 {
	t := time.UnixMilli(ts).UTC()

	var next time.Time
	fallback := defaultCustomInterval
	switch rule.Frequency {
	case domain.FrequencyDaily:
		fallback = defaultDailyInterval
		next = t.AddDate(0, 0, intervalDays(rule, fallback))
	case domain.FrequencyWeekly:
		next = t.AddDate(0, 0, 7)
	case domain.FrequencyMonthly:
		next = t.AddDate(0, 1, 0)
	case domain.FrequencyYearly:
		next = t.AddDate(1, 0, 0)
	default:
		next = t.AddDate(0, 0, intervalDays(rule, fallback))
	}

	if n := next.UnixMilli(); n > ts {
		return n
	}
	return t.AddDate(0, 0, fallback).UnixMilli()
}

// intervalDays treats a missing, non-positive or out-of-range interval as
// absent.
func intervalDays(rule domain.Recurring, fallback int) int {
	if rule.IntervalDays == nil || *rule.IntervalDays <= 0 || *rule.IntervalDays > MaxIntervalDays {
		return fallback
	}
	return *rule.IntervalDays
}
