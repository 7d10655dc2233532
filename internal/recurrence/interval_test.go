package recurrence_test

import (
	"math"
	"testing"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/recurrence"
)

func ms(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func intPtr(v int) *int { return &v }

func TestAdvance_Frequencies(t *testing.T) {
	start := ms(2026, time.January, 15)

	tests := []struct {
		name string
		rule domain.Recurring
		want int64
	}{
		{"daily default", domain.Recurring{Frequency: domain.FrequencyDaily}, ms(2026, time.January, 16)},
		{"daily interval", domain.Recurring{Frequency: domain.FrequencyDaily, IntervalDays: intPtr(3)}, ms(2026, time.January, 18)},
		{"weekly ignores interval", domain.Recurring{Frequency: domain.FrequencyWeekly, IntervalDays: intPtr(3), Weekday: intPtr(1)}, ms(2026, time.January, 22)},
		{"monthly ignores day of month", domain.Recurring{Frequency: domain.FrequencyMonthly, DayOfMonth: intPtr(1)}, ms(2026, time.February, 15)},
		{"yearly", domain.Recurring{Frequency: domain.FrequencyYearly}, ms(2027, time.January, 15)},
		{"custom default", domain.Recurring{Frequency: domain.FrequencyCustom}, ms(2026, time.February, 14)},
		{"custom interval", domain.Recurring{Frequency: domain.FrequencyCustom, IntervalDays: intPtr(10)}, ms(2026, time.January, 25)},
		{"unknown frequency", domain.Recurring{Frequency: "fortnightly"}, ms(2026, time.February, 14)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recurrence.Advance(start, tt.rule)
			if got != tt.want {
				t.Errorf("expected %s, got %s", recurrence.FormatDate(tt.want), recurrence.FormatDate(got))
			}
		})
	}
}

func TestAdvance_MonthlyRollover(t *testing.T) {
	rule := domain.Recurring{Frequency: domain.FrequencyMonthly}

	got := recurrence.Advance(ms(2026, time.January, 31), rule)
	if want := ms(2026, time.March, 3); got != want {
		t.Errorf("expected %s, got %s", recurrence.FormatDate(want), recurrence.FormatDate(got))
	}

	got = recurrence.Advance(ms(2028, time.January, 31), rule)
	if want := ms(2028, time.March, 2); got != want {
		t.Errorf("leap year: expected %s, got %s", recurrence.FormatDate(want), recurrence.FormatDate(got))
	}
}

func TestAdvance_AlwaysMovesForward(t *testing.T) {
	frequencies := []domain.Frequency{
		domain.FrequencyDaily,
		domain.FrequencyWeekly,
		domain.FrequencyMonthly,
		domain.FrequencyYearly,
		domain.FrequencyCustom,
	}
	intervals := []*int{nil, intPtr(0), intPtr(-5), intPtr(1), intPtr(45), intPtr(recurrence.MaxIntervalDays + 1), intPtr(math.MaxInt)}

	ts := ms(2024, time.February, 29)
	for _, f := range frequencies {
		for _, iv := range intervals {
			rule := domain.Recurring{Frequency: f, IntervalDays: iv}
			if next := recurrence.Advance(ts, rule); next <= ts {
				t.Errorf("frequency %s interval %v: expected advance past %d, got %d", f, iv, ts, next)
			}
		}
	}
}

func TestAdvance_OversizedIntervalUsesDefaultStep(t *testing.T) {
	start := ms(2026, time.January, 1)

	tests := []struct {
		name string
		rule domain.Recurring
		want int64
	}{
		{"custom overflow", domain.Recurring{Frequency: domain.FrequencyCustom, IntervalDays: intPtr(1 << 62)}, ms(2026, time.January, 31)},
		{"custom just over max", domain.Recurring{Frequency: domain.FrequencyCustom, IntervalDays: intPtr(recurrence.MaxIntervalDays + 1)}, ms(2026, time.January, 31)},
		{"daily overflow", domain.Recurring{Frequency: domain.FrequencyDaily, IntervalDays: intPtr(1 << 62)}, ms(2026, time.January, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recurrence.Advance(start, tt.rule)
			if got != tt.want {
				t.Errorf("expected %s, got %s", recurrence.FormatDate(tt.want), recurrence.FormatDate(got))
			}
		})
	}
}
