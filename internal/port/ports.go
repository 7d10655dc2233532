// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete storage implementations.
//
// Every method is scoped by business id. An empty business id is the
// "no business" context, which is a dataset of its own.
package port

import (
	"context"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// BusinessStore persists businesses and the active business selection.
type BusinessStore interface {
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
	GetBusiness(ctx context.Context, businessID string) (*domain.Business, error)
	AddBusiness(ctx context.Context, b *domain.Business) error
	UpdateBusiness(ctx context.Context, b *domain.Business) error
	// DeleteBusiness removes the business and every record scoped to it.
	DeleteBusiness(ctx context.Context, businessID string) error

	// GetActiveBusinessID returns "" when no business is selected.
	GetActiveBusinessID(ctx context.Context) (string, error)
	SetActiveBusinessID(ctx context.Context, businessID string) error
}

// RecurringStore persists recurring rules.
type RecurringStore interface {
	ListRecurrings(ctx context.Context, businessID string) ([]domain.Recurring, error)
	AddRecurring(ctx context.Context, businessID string, r *domain.Recurring) error
	// UpdateRecurring upserts by id.
	UpdateRecurring(ctx context.Context, businessID string, r *domain.Recurring) error
	DeleteRecurring(ctx context.Context, businessID, recurringID string) error
}

// LedgerStore persists the live (unarchived) transactions.
type LedgerStore interface {
	// ListTransactions returns transactions whose business id equals
	// businessID exactly.
	ListTransactions(ctx context.Context, businessID string) ([]domain.Transaction, error)
	AppendTransactions(ctx context.Context, businessID string, txs []domain.Transaction) error
	UpdateTransaction(ctx context.Context, businessID string, tx *domain.Transaction) error
	RemoveTransactions(ctx context.Context, businessID string, ids []string) error
}

// StatementStore persists archived monthly statements. Archive and restore
// move transactions between the live ledger and a statement atomically.
type StatementStore interface {
	ListStatements(ctx context.Context, businessID string) ([]domain.MonthlyStatement, error)
	GetStatement(ctx context.Context, businessID, statementID string) (*domain.MonthlyStatement, error)
	// SaveArchive stores stmt and removes its transactions from the live ledger.
	SaveArchive(ctx context.Context, stmt *domain.MonthlyStatement) error
	// RestoreArchive re-inserts stmt's transactions and deletes the statement.
	RestoreArchive(ctx context.Context, stmt *domain.MonthlyStatement) error
}

// ReferenceStore persists accounts and categories.
type ReferenceStore interface {
	ListAccounts(ctx context.Context, businessID string) ([]domain.Account, error)
	SaveAccounts(ctx context.Context, businessID string, accounts []domain.Account) error
	ListCategories(ctx context.Context, businessID string) ([]domain.Category, error)
	SaveCategories(ctx context.Context, businessID string, categories []domain.Category) error
}

// Store is the full storage collaborator.
type Store interface {
	BusinessStore
	RecurringStore
	LedgerStore
	StatementStore
	ReferenceStore

	Ping(ctx context.Context) error
	Close() error
}
