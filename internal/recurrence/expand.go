package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// DateLayout is the ISO date format used for start/end dates and
// transaction dates.
const DateLayout = "2006-01-02"

// OccurrenceID is the deterministic identifier of the transaction generated
// for rule at ts. Re-expanding unchanged state yields the same ids.
func OccurrenceID(ruleID string, ts int64) string {
	return fmt.Sprintf("rec-%s-%d", ruleID, ts)
}

// ParseDate parses an ISO date (or a full RFC 3339 timestamp) into epoch
// milliseconds at UTC.
func ParseDate(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UnixMilli(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}

// FormatDate renders epoch milliseconds as a UTC ISO date.
func FormatDate(ts int64) string {
	return time.UnixMilli(ts).UTC().Format(DateLayout)
}

// Expand generates every occurrence of rule that is due at or before now
// and returns them along with the advanced rule. The input rule is not
// modified.
//
// A rule that has missed several periods produces one transaction per
// period. txType is stamped on every generated transaction (it mirrors the
// owning account's category).
func Expand(rule domain.Recurring, now time.Time, txType string) ([]domain.Transaction, domain.Recurring) {
	if !rule.Active {
		return nil, rule
	}

	nowMs := now.UnixMilli()

	next, ok := startingPoint(rule)
	if !ok {
		// Malformed state resumes from now rather than skipping the rule.
		next = nowMs
	}

	end, hasEnd := ParseDate(rule.EndDate)
	if hasEnd && end < next {
		return nil, rule
	}

	updated := cloneRule(rule)
	var generated []domain.Transaction

	for next <= nowMs {
		if hasEnd && next > end {
			updated.Active = false
			break
		}

		generated = append(generated, occurrence(updated, next, nowMs, txType))

		ran := next
		updated.LastRunAt = &ran
		next = Advance(next, updated)
		nextCopy := next
		updated.NextRunAt = &nextCopy
	}

	return generated, updated
}

func startingPoint(rule domain.Recurring) (int64, bool) {
	if rule.NextRunAt != nil {
		return *rule.NextRunAt, true
	}
	return ParseDate(rule.StartDate)
}

func occurrence(rule domain.Recurring, ts, createdAt int64, txType string) domain.Transaction {
	amount := rule.Amount
	if amount < 0 {
		amount = -amount
	}
	if rule.IsExpense {
		amount = -amount
	}

	description := rule.Description
	if description == "" {
		description = "Income"
		if rule.IsExpense {
			description = "Expense"
		}
	}

	if txType == "" {
		txType = domain.OwnershipBusiness
	}

	return domain.Transaction{
		ID:               OccurrenceID(rule.ID, ts),
		AccountID:        rule.AccountID,
		BusinessID:       rule.BusinessID,
		RecurringID:      rule.ID,
		Date:             FormatDate(ts),
		Amount:           amount,
		CategoryID:       rule.CategoryID,
		Description:      description,
		Type:             txType,
		SubscriptionType: domain.SubscriptionRecurring,
		CreatedAt:        createdAt,
	}
}

// cloneRule copies the pointer fields so callers never observe mutation
// of the rule they passed in.
func cloneRule(r domain.Recurring) domain.Recurring {
	c := r
	c.DayOfMonth = cloneInt(r.DayOfMonth)
	c.Weekday = cloneInt(r.Weekday)
	c.IntervalDays = cloneInt(r.IntervalDays)
	c.LastRunAt = cloneInt64(r.LastRunAt)
	c.NextRunAt = cloneInt64(r.NextRunAt)
	return c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Changed reports whether expansion altered the rule's run-state.
func Changed(before, after domain.Recurring) bool {
	return before.Active != after.Active ||
		!sameInt64(before.LastRunAt, after.LastRunAt) ||
		!sameInt64(before.NextRunAt, after.NextRunAt)
}

func sameInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
