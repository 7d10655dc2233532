package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/infra/sqlite"

	"go.uber.org/zap"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "moneta.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moneta.db")

	first, err := sqlite.Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.AddBusiness(context.Background(), &domain.Business{ID: "b1", Name: "Acme", Currency: "USD"}); err != nil {
		t.Fatalf("add business: %v", err)
	}
	first.Close()

	second, err := sqlite.Open(path, zap.NewNop())
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	b, err := second.GetBusiness(context.Background(), "b1")
	if err != nil {
		t.Fatalf("expected business to survive reopen, got %v", err)
	}
	if b.Name != "Acme" {
		t.Errorf("expected Acme, got %q", b.Name)
	}
}

func TestStore_ArchiveAndRestoreMoveTransactions(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	live := []domain.Transaction{
		{ID: "tx-1", BusinessID: "b1", AccountID: "a1", Date: "2026-01-05", Amount: 10, Type: "business"},
		{ID: "tx-2", BusinessID: "b1", AccountID: "a1", Date: "2026-02-05", Amount: 20, Type: "business"},
	}
	if err := s.AppendTransactions(ctx, "b1", live); err != nil {
		t.Fatalf("append: %v", err)
	}

	stmt := &domain.MonthlyStatement{
		ID: "2026-0", Year: 2026, Month: 0, MonthName: "January", BusinessID: "b1",
		Transactions: live[:1],
		Summary:      domain.StatementSummary{TotalIncome: 10, NetAmount: 10, TransactionCount: 1},
		ArchivedAt:   1767225600000,
	}
	if err := s.SaveArchive(ctx, stmt); err != nil {
		t.Fatalf("save archive: %v", err)
	}

	remaining, err := s.ListTransactions(ctx, "b1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "tx-2" {
		t.Fatalf("expected only tx-2 live, got %+v", remaining)
	}

	stored, err := s.GetStatement(ctx, "b1", "2026-0")
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	if stored.Summary.TransactionCount != 1 || len(stored.Transactions) != 1 {
		t.Errorf("unexpected stored statement %+v", stored)
	}

	var conflict *domain.ErrConflict
	if err := s.SaveArchive(ctx, stmt); !errors.As(err, &conflict) {
		t.Fatalf("expected conflict on second archive, got %v", err)
	}

	if err := s.RestoreArchive(ctx, stmt); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, _ := s.ListTransactions(ctx, "b1")
	if len(restored) != 2 {
		t.Fatalf("expected 2 live transactions after restore, got %d", len(restored))
	}

	var notFound *domain.ErrNotFound
	if _, err := s.GetStatement(ctx, "b1", "2026-0"); !errors.As(err, &notFound) {
		t.Fatalf("expected statement to be gone, got %v", err)
	}
}

func TestStore_StatementsAreScopedByBusiness(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, b := range []string{"b1", "b2"} {
		stmt := &domain.MonthlyStatement{ID: "2026-0", Year: 2026, BusinessID: b, MonthName: "January"}
		if err := s.SaveArchive(ctx, stmt); err != nil {
			t.Fatalf("archive %s: %v", b, err)
		}
	}

	list, _ := s.ListStatements(ctx, "b1")
	if len(list) != 1 || list[0].BusinessID != "b1" {
		t.Fatalf("expected one b1 statement, got %+v", list)
	}
}

func TestStore_AppendRejectsDuplicateBatch(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if err := s.AppendTransactions(ctx, "b1", []domain.Transaction{{ID: "tx-1", Date: "2026-01-01"}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	err := s.AppendTransactions(ctx, "b1", []domain.Transaction{
		{ID: "tx-2", Date: "2026-01-02"},
		{ID: "tx-1", Date: "2026-01-01"},
	})

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	live, _ := s.ListTransactions(ctx, "b1")
	if len(live) != 1 {
		t.Fatalf("expected the batch to roll back, got %d live", len(live))
	}
}

func TestStore_RecurringRoundTripKeepsPointers(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	day := 15
	next := int64(1768435200000)
	rule := &domain.Recurring{
		ID: "r_1", BusinessID: "b1", AccountID: "a1", Amount: 50, CategoryID: "c1",
		IsExpense: true, Frequency: domain.FrequencyMonthly, DayOfMonth: &day,
		StartDate: "2026-01-15", Active: true, NextRunAt: &next,
	}
	if err := s.AddRecurring(ctx, "b1", rule); err != nil {
		t.Fatalf("add: %v", err)
	}

	rule.Active = false
	if err := s.UpdateRecurring(ctx, "b1", rule); err != nil {
		t.Fatalf("update: %v", err)
	}

	rules, err := s.ListRecurrings(ctx, "b1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	got := rules[0]
	if got.Active || !got.IsExpense {
		t.Errorf("flags not persisted: %+v", got)
	}
	if got.DayOfMonth == nil || *got.DayOfMonth != 15 {
		t.Errorf("expected dayOfMonth 15, got %v", got.DayOfMonth)
	}
	if got.Weekday != nil || got.LastRunAt != nil {
		t.Errorf("expected nil pointers to stay nil, got %+v", got)
	}
	if got.NextRunAt == nil || *got.NextRunAt != next {
		t.Errorf("expected nextRunAt %d, got %v", next, got.NextRunAt)
	}
}

func TestStore_DeleteBusinessClearsScopedData(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_ = s.AddBusiness(ctx, &domain.Business{ID: "b1", Name: "Acme"})
	_ = s.SetActiveBusinessID(ctx, "b1")
	_ = s.AppendTransactions(ctx, "b1", []domain.Transaction{{ID: "tx-1", Date: "2026-01-01"}})
	_ = s.SaveAccounts(ctx, "b1", []domain.Account{{ID: "a1", Name: "Checking", IsActive: true}})

	if err := s.DeleteBusiness(ctx, "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	active, _ := s.GetActiveBusinessID(ctx)
	if active != "" {
		t.Errorf("expected active business to be cleared, got %q", active)
	}
	live, _ := s.ListTransactions(ctx, "b1")
	accounts, _ := s.ListAccounts(ctx, "b1")
	if len(live) != 0 || len(accounts) != 0 {
		t.Errorf("expected scoped data gone, got %d transactions and %d accounts", len(live), len(accounts))
	}
}
