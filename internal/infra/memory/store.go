// Package memory is an in-memory implementation of port.Store.
// It is safe for concurrent use. Data is lost on restart; use the sqlite
// store for persistence.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// Store keeps every dataset in maps keyed by business id.
type Store struct {
	mu sync.RWMutex

	businesses     []domain.Business
	activeBusiness string
	recurrings     map[string][]domain.Recurring
	ledgers        map[string][]domain.Transaction
	statements     map[string][]domain.MonthlyStatement
	accounts       map[string][]domain.Account
	categories     map[string][]domain.Category
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		recurrings: make(map[string][]domain.Recurring),
		ledgers:    make(map[string][]domain.Transaction),
		statements: make(map[string][]domain.MonthlyStatement),
		accounts:   make(map[string][]domain.Account),
		categories: make(map[string][]domain.Category),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ============================================================
// Businesses
// ============================================================

func (s *Store) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Business(nil), s.businesses...), nil
}

func (s *Store) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.businesses {
		if b.ID == businessID {
			found := b
			return &found, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "business", ID: businessID}
}

func (s *Store) AddBusiness(ctx context.Context, b *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.businesses {
		if existing.ID == b.ID {
			return &domain.ErrConflict{Message: fmt.Sprintf("business %s already exists", b.ID)}
		}
	}
	s.businesses = append(s.businesses, *b)
	return nil
}

func (s *Store) UpdateBusiness(ctx context.Context, b *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.businesses {
		if s.businesses[i].ID == b.ID {
			s.businesses[i] = *b
			return nil
		}
	}
	s.businesses = append(s.businesses, *b)
	return nil
}

func (s *Store) DeleteBusiness(ctx context.Context, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.businesses[:0]
	for _, b := range s.businesses {
		if b.ID != businessID {
			kept = append(kept, b)
		}
	}
	s.businesses = kept

	delete(s.recurrings, businessID)
	delete(s.ledgers, businessID)
	delete(s.statements, businessID)
	delete(s.accounts, businessID)
	delete(s.categories, businessID)

	if s.activeBusiness == businessID {
		s.activeBusiness = ""
	}
	return nil
}

func (s *Store) GetActiveBusinessID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activeBusiness, nil
}

func (s *Store) SetActiveBusinessID(ctx context.Context, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeBusiness = businessID
	return nil
}

// ============================================================
// Recurring rules
// ============================================================

func (s *Store) ListRecurrings(ctx context.Context, businessID string) ([]domain.Recurring, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Recurring(nil), s.recurrings[businessID]...), nil
}

func (s *Store) AddRecurring(ctx context.Context, businessID string, r *domain.Recurring) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.recurrings[businessID] {
		if existing.ID == r.ID {
			return &domain.ErrConflict{Message: fmt.Sprintf("recurring rule %s already exists", r.ID)}
		}
	}
	s.recurrings[businessID] = append(s.recurrings[businessID], *r)
	return nil
}

func (s *Store) UpdateRecurring(ctx context.Context, businessID string, r *domain.Recurring) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.recurrings[businessID]
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = *r
			return nil
		}
	}
	s.recurrings[businessID] = append(list, *r)
	return nil
}

func (s *Store) DeleteRecurring(ctx context.Context, businessID, recurringID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.recurrings[businessID]
	kept := make([]domain.Recurring, 0, len(list))
	for _, r := range list {
		if r.ID != recurringID {
			kept = append(kept, r)
		}
	}
	s.recurrings[businessID] = kept
	return nil
}

// ============================================================
// Live ledger
// ============================================================

func (s *Store) ListTransactions(ctx context.Context, businessID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Transaction(nil), s.ledgers[businessID]...), nil
}

func (s *Store) AppendTransactions(ctx context.Context, businessID string, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(businessID, txs)
}

func (s *Store) UpdateTransaction(ctx context.Context, businessID string, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.ledgers[businessID]
	for i := range list {
		if list[i].ID == tx.ID {
			list[i] = *tx
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "transaction", ID: tx.ID}
}

func (s *Store) RemoveTransactions(ctx context.Context, businessID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(businessID, ids)
	return nil
}

// appendLocked rejects the whole batch if any id is already live.
func (s *Store) appendLocked(businessID string, txs []domain.Transaction) error {
	seen := make(map[string]bool, len(s.ledgers[businessID])+len(txs))
	for _, tx := range s.ledgers[businessID] {
		seen[tx.ID] = true
	}
	for _, tx := range txs {
		if seen[tx.ID] {
			return &domain.ErrConflict{Message: fmt.Sprintf("transaction %s already exists", tx.ID)}
		}
		seen[tx.ID] = true
	}

	s.ledgers[businessID] = append(s.ledgers[businessID], txs...)
	return nil
}

func (s *Store) removeLocked(businessID string, ids []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	list := s.ledgers[businessID]
	kept := make([]domain.Transaction, 0, len(list))
	for _, tx := range list {
		if !drop[tx.ID] {
			kept = append(kept, tx)
		}
	}
	s.ledgers[businessID] = kept
}

// ============================================================
// Statements
// ============================================================

func (s *Store) ListStatements(ctx context.Context, businessID string) ([]domain.MonthlyStatement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.MonthlyStatement(nil), s.statements[businessID]...), nil
}

func (s *Store) GetStatement(ctx context.Context, businessID, statementID string) (*domain.MonthlyStatement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, stmt := range s.statements[businessID] {
		if stmt.ID == statementID {
			found := stmt
			return &found, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "statement", ID: statementID}
}

func (s *Store) SaveArchive(ctx context.Context, stmt *domain.MonthlyStatement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.statements[stmt.BusinessID] {
		if existing.ID == stmt.ID {
			return &domain.ErrConflict{Message: fmt.Sprintf("statement %s already archived", stmt.ID)}
		}
	}

	frozen := *stmt
	frozen.Transactions = append([]domain.Transaction(nil), stmt.Transactions...)
	s.statements[stmt.BusinessID] = append(s.statements[stmt.BusinessID], frozen)

	ids := make([]string, 0, len(stmt.Transactions))
	for _, tx := range stmt.Transactions {
		ids = append(ids, tx.ID)
	}
	s.removeLocked(stmt.BusinessID, ids)
	return nil
}

func (s *Store) RestoreArchive(ctx context.Context, stmt *domain.MonthlyStatement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.statements[stmt.BusinessID]
	idx := -1
	for i := range list {
		if list[i].ID == stmt.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &domain.ErrNotFound{Resource: "statement", ID: stmt.ID}
	}

	if err := s.appendLocked(stmt.BusinessID, list[idx].Transactions); err != nil {
		return err
	}
	s.statements[stmt.BusinessID] = append(list[:idx:idx], list[idx+1:]...)
	return nil
}

// ============================================================
// Reference data
// ============================================================

func (s *Store) ListAccounts(ctx context.Context, businessID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Account(nil), s.accounts[businessID]...), nil
}

func (s *Store) SaveAccounts(ctx context.Context, businessID string, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[businessID] = append([]domain.Account(nil), accounts...)
	return nil
}

func (s *Store) ListCategories(ctx context.Context, businessID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Category(nil), s.categories[businessID]...), nil
}

func (s *Store) SaveCategories(ctx context.Context, businessID string, categories []domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[businessID] = append([]domain.Category(nil), categories...)
	return nil
}
