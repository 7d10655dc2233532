package recurrence_test

import (
	"testing"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/recurrence"
)

func monthlyRule() domain.Recurring {
	return domain.Recurring{
		ID:          "r_rent",
		BusinessID:  "b_acme",
		AccountID:   "2",
		Amount:      1200,
		IsExpense:   true,
		CategoryID:  "13",
		Description: "Office rent",
		Frequency:   domain.FrequencyMonthly,
		StartDate:   "2026-01-15",
		Active:      true,
	}
}

func TestExpand_CatchUpGeneratesOnePerPeriod(t *testing.T) {
	now := time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)

	txs, updated := recurrence.Expand(monthlyRule(), now, domain.OwnershipBusiness)

	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	wantDates := []string{"2026-01-15", "2026-02-15", "2026-03-15"}
	for i, tx := range txs {
		if tx.Date != wantDates[i] {
			t.Errorf("tx %d: expected date %s, got %s", i, wantDates[i], tx.Date)
		}
		if tx.Amount != -1200 {
			t.Errorf("tx %d: expected amount -1200, got %f", i, tx.Amount)
		}
		if tx.RecurringID != "r_rent" {
			t.Errorf("tx %d: expected recurringId r_rent, got %s", i, tx.RecurringID)
		}
		if tx.BusinessID != "b_acme" {
			t.Errorf("tx %d: expected businessId b_acme, got %s", i, tx.BusinessID)
		}
		if tx.SubscriptionType != domain.SubscriptionRecurring {
			t.Errorf("tx %d: expected subscription type recurring, got %s", i, tx.SubscriptionType)
		}
	}

	if updated.LastRunAt == nil || *updated.LastRunAt != ms(2026, time.March, 15) {
		t.Errorf("expected lastRunAt 2026-03-15, got %v", updated.LastRunAt)
	}
	if updated.NextRunAt == nil || *updated.NextRunAt != ms(2026, time.April, 15) {
		t.Errorf("expected nextRunAt 2026-04-15, got %v", updated.NextRunAt)
	}
	if !updated.Active {
		t.Error("expected rule to stay active")
	}
}

func TestExpand_DoesNotMutateInput(t *testing.T) {
	rule := monthlyRule()
	now := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

	recurrence.Expand(rule, now, "")

	if rule.LastRunAt != nil || rule.NextRunAt != nil {
		t.Fatal("expected input rule run-state to be untouched")
	}
}

func TestExpand_IdempotentIDs(t *testing.T) {
	rule := monthlyRule()
	now := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

	first, _ := recurrence.Expand(rule, now, "")
	second, _ := recurrence.Expand(rule, now, "")

	if len(first) != len(second) {
		t.Fatalf("expected equal lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("tx %d: expected id %s, got %s", i, first[i].ID, second[i].ID)
		}
	}
	if want := recurrence.OccurrenceID("r_rent", ms(2026, time.January, 15)); first[0].ID != want {
		t.Errorf("expected id %s, got %s", want, first[0].ID)
	}
}

func TestExpand_AdvancedStateProducesNothingNew(t *testing.T) {
	now := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

	_, updated := recurrence.Expand(monthlyRule(), now, "")
	again, _ := recurrence.Expand(updated, now, "")

	if len(again) != 0 {
		t.Fatalf("expected 0 transactions on replay, got %d", len(again))
	}
}

func TestExpand_EndDateCutoff(t *testing.T) {
	rule := monthlyRule()
	rule.EndDate = "2026-02-15" // the second occurrence
	now := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

	txs, updated := recurrence.Expand(rule, now, "")

	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if updated.Active {
		t.Error("expected rule to be deactivated")
	}
	if !recurrence.Changed(rule, updated) {
		t.Error("expected deactivated rule to report a change")
	}

	third, _ := recurrence.Expand(updated, now, "")
	if len(third) != 0 {
		t.Fatalf("expected 0 transactions after exhaustion, got %d", len(third))
	}
}

func TestExpand_ExhaustedRuleIsSkippedWithoutMutation(t *testing.T) {
	rule := monthlyRule()
	next := ms(2026, time.March, 15)
	rule.NextRunAt = &next
	rule.EndDate = "2026-03-01"
	now := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)

	txs, updated := recurrence.Expand(rule, now, "")

	if len(txs) != 0 {
		t.Fatalf("expected 0 transactions, got %d", len(txs))
	}
	if !updated.Active || recurrence.Changed(rule, updated) {
		t.Error("expected exhausted rule to be returned unchanged")
	}
}

func TestExpand_InactiveRuleIsSkipped(t *testing.T) {
	rule := monthlyRule()
	rule.Active = false

	txs, updated := recurrence.Expand(rule, time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC), "")

	if len(txs) != 0 {
		t.Fatalf("expected 0 transactions, got %d", len(txs))
	}
	if recurrence.Changed(rule, updated) {
		t.Error("expected inactive rule to be unchanged")
	}
}

func TestExpand_MalformedStartDateResumesFromNow(t *testing.T) {
	rule := monthlyRule()
	rule.StartDate = "not-a-date"
	now := time.Date(2026, time.April, 10, 9, 30, 0, 0, time.UTC)

	txs, updated := recurrence.Expand(rule, now, "")

	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction dated now, got %d", len(txs))
	}
	if txs[0].Date != "2026-04-10" {
		t.Errorf("expected date 2026-04-10, got %s", txs[0].Date)
	}
	if updated.NextRunAt == nil || *updated.NextRunAt <= now.UnixMilli() {
		t.Errorf("expected nextRunAt after now, got %v", updated.NextRunAt)
	}
}

func TestExpand_FutureStartProducesNothing(t *testing.T) {
	rule := monthlyRule()
	rule.StartDate = "2026-05-01"

	txs, updated := recurrence.Expand(rule, time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC), "")

	if len(txs) != 0 {
		t.Fatalf("expected 0 transactions, got %d", len(txs))
	}
	if recurrence.Changed(rule, updated) {
		t.Error("expected no state change for a future rule")
	}
}

func TestExpand_IncomeSignAndDefaultDescription(t *testing.T) {
	rule := monthlyRule()
	rule.IsExpense = false
	rule.Description = ""
	rule.Amount = 499

	txs, _ := recurrence.Expand(rule, time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC), domain.OwnershipPersonal)

	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Amount != 499 {
		t.Errorf("expected amount 499, got %f", txs[0].Amount)
	}
	if txs[0].Description != "Income" {
		t.Errorf("expected description 'Income', got '%s'", txs[0].Description)
	}
	if txs[0].Type != domain.OwnershipPersonal {
		t.Errorf("expected type personal, got %s", txs[0].Type)
	}
}

func TestExpand_NextRunAtAlwaysAfterLastRunAt(t *testing.T) {
	rule := monthlyRule()
	rule.Frequency = domain.FrequencyDaily
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	txs, updated := recurrence.Expand(rule, now, "")

	if len(txs) != 18 {
		t.Fatalf("expected 18 daily transactions, got %d", len(txs))
	}
	if *updated.NextRunAt <= *updated.LastRunAt {
		t.Errorf("expected nextRunAt > lastRunAt, got %d <= %d", *updated.NextRunAt, *updated.LastRunAt)
	}
}

func TestExpand_OversizedIntervalTerminates(t *testing.T) {
	rule := monthlyRule()
	rule.Frequency = domain.FrequencyCustom
	rule.StartDate = "2026-01-01"
	rule.IntervalDays = intPtr(1 << 62)
	now := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)

	done := make(chan []domain.Transaction, 1)
	go func() {
		txs, _ := recurrence.Expand(rule, now, domain.OwnershipBusiness)
		done <- txs
	}()

	select {
	case txs := <-done:
		// Falls back to the 30-day default: Jan 1 and Jan 31.
		if len(txs) != 2 {
			t.Errorf("expected 2 transactions, got %d", len(txs))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expand did not return")
	}
}
