package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/infra/memory"
	"github.com/boddenberg/moneta-ledger/internal/service"
)

// --- Mocks ---

var errDiskFull = errors.New("disk full")

func fixedClock(t time.Time) service.Clock {
	return func() time.Time { return t }
}

// failingStore wraps the in-memory store and fails selected operations.
type failingStore struct {
	*memory.Store

	mu               sync.Mutex
	failListRules    bool
	failUpdateRuleID string
	failListLedger   bool
	failAppend       bool
	failSaveArchive  bool
	appendCalls      int
}

func newFailingStore() *failingStore {
	return &failingStore{Store: memory.NewStore()}
}

func (f *failingStore) ListRecurrings(ctx context.Context, businessID string) ([]domain.Recurring, error) {
	if f.failListRules {
		return nil, errDiskFull
	}
	return f.Store.ListRecurrings(ctx, businessID)
}

func (f *failingStore) UpdateRecurring(ctx context.Context, businessID string, r *domain.Recurring) error {
	if f.failUpdateRuleID != "" && r.ID == f.failUpdateRuleID {
		return errDiskFull
	}
	return f.Store.UpdateRecurring(ctx, businessID, r)
}

func (f *failingStore) ListTransactions(ctx context.Context, businessID string) ([]domain.Transaction, error) {
	if f.failListLedger {
		return nil, errDiskFull
	}
	return f.Store.ListTransactions(ctx, businessID)
}

func (f *failingStore) AppendTransactions(ctx context.Context, businessID string, txs []domain.Transaction) error {
	f.mu.Lock()
	f.appendCalls++
	f.mu.Unlock()
	if f.failAppend {
		return errDiskFull
	}
	return f.Store.AppendTransactions(ctx, businessID, txs)
}

func (f *failingStore) SaveArchive(ctx context.Context, stmt *domain.MonthlyStatement) error {
	if f.failSaveArchive {
		return errDiskFull
	}
	return f.Store.SaveArchive(ctx, stmt)
}

// stubClassifier answers every account lookup with the same category.
type stubClassifier struct {
	category   string
	categories []domain.Category
}

func (s *stubClassifier) AccountCategory(_ context.Context, _, _ string) string {
	return s.category
}

func (s *stubClassifier) ListCategories(_ context.Context, _ string) ([]domain.Category, error) {
	return s.categories, nil
}

func monthlyRent(businessID string) domain.Recurring {
	return domain.Recurring{
		ID:          "r_rent",
		BusinessID:  businessID,
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

func tx(id, businessID, date string, amount float64) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		BusinessID:  businessID,
		AccountID:   "2",
		Date:        date,
		Amount:      amount,
		CategoryID:  "2",
		Description: id,
		Type:        domain.OwnershipBusiness,
	}
}
