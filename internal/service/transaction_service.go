package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/port"
	"github.com/boddenberg/moneta-ledger/internal/recurrence"
	"github.com/boddenberg/moneta-ledger/internal/statement"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var transactionTracer = otel.Tracer("service/transaction")

// ReferenceProvider is the reference data the transaction service needs.
type ReferenceProvider interface {
	AccountClassifier
	ListCategories(ctx context.Context, businessID string) ([]domain.Category, error)
}

// TransactionService handles manual entries in the live ledger.
type TransactionService struct {
	store     port.LedgerStore
	reference ReferenceProvider
	logger    *zap.Logger
	now       Clock
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store port.LedgerStore, reference ReferenceProvider, logger *zap.Logger, now Clock) *TransactionService {
	return &TransactionService{store: store, reference: reference, logger: logger, now: now}
}

func (s *TransactionService) ListTransactions(ctx context.Context, businessID string) ([]domain.Transaction, error) {
	ctx, span := transactionTracer.Start(ctx, "TransactionService.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	return s.store.ListTransactions(ctx, businessID)
}

// AddTransaction stores a one-off entry. The type follows the account's
// ownership category.
func (s *TransactionService) AddTransaction(ctx context.Context, businessID string, input *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := transactionTracer.Start(ctx, "TransactionService.AddTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	tx := *input
	tx.ID = uuid.NewString()
	tx.BusinessID = businessID
	tx.RecurringID = ""
	tx.CreatedAt = s.now().UnixMilli()
	if tx.Type == "" {
		tx.Type = s.reference.AccountCategory(ctx, businessID, tx.AccountID)
	}
	if tx.SubscriptionType == "" {
		tx.SubscriptionType = domain.SubscriptionOneTime
	}

	if err := validateTransaction(&tx); err != nil {
		return nil, err
	}
	if err := s.store.AppendTransactions(ctx, businessID, []domain.Transaction{tx}); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	s.logger.Info("transaction added",
		zap.String("business_id", businessID),
		zap.String("transaction_id", tx.ID),
		zap.Float64("amount", tx.Amount),
	)
	return &tx, nil
}

// UpdateTransaction edits a live entry. Identity fields (id, business,
// recurring rule, creation time) are kept from the stored entry.
func (s *TransactionService) UpdateTransaction(ctx context.Context, businessID, transactionID string, input *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := transactionTracer.Start(ctx, "TransactionService.UpdateTransaction")
	defer span.End()

	existing, err := s.find(ctx, businessID, transactionID)
	if err != nil {
		return nil, err
	}

	tx := *input
	tx.ID = existing.ID
	tx.BusinessID = existing.BusinessID
	tx.RecurringID = existing.RecurringID
	tx.CreatedAt = existing.CreatedAt
	if tx.Type == "" {
		tx.Type = existing.Type
	}
	if tx.SubscriptionType == "" {
		tx.SubscriptionType = existing.SubscriptionType
	}

	if err := validateTransaction(&tx); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTransaction(ctx, businessID, &tx); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return &tx, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, businessID, transactionID string) error {
	ctx, span := transactionTracer.Start(ctx, "TransactionService.DeleteTransaction")
	defer span.End()

	if _, err := s.find(ctx, businessID, transactionID); err != nil {
		return err
	}
	if err := s.store.RemoveTransactions(ctx, businessID, []string{transactionID}); err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}
	return nil
}

// Metrics computes the dashboard figures over the live ledger.
func (s *TransactionService) Metrics(ctx context.Context, businessID string) (*domain.DashboardMetrics, error) {
	ctx, span := transactionTracer.Start(ctx, "TransactionService.Metrics")
	defer span.End()

	ledger, err := s.store.ListTransactions(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	categories, err := s.reference.ListCategories(ctx, businessID)
	if err != nil {
		return nil, err
	}

	metrics := statement.Metrics(ledger, categories, s.now())
	return &metrics, nil
}

func (s *TransactionService) find(ctx context.Context, businessID, transactionID string) (*domain.Transaction, error) {
	ledger, err := s.store.ListTransactions(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	for i := range ledger {
		if ledger[i].ID == transactionID {
			return &ledger[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
}

func validateTransaction(tx *domain.Transaction) error {
	if tx.AccountID == "" {
		return &domain.ErrValidation{Field: "accountId", Message: "accountId is required"}
	}
	if _, err := time.Parse(recurrence.DateLayout, tx.Date); err != nil {
		return &domain.ErrValidation{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	tx.Description = strings.TrimSpace(tx.Description)
	if tx.Description == "" {
		return &domain.ErrValidation{Field: "description", Message: "description is required"}
	}
	switch tx.Type {
	case domain.OwnershipPersonal, domain.OwnershipBusiness:
	default:
		return &domain.ErrValidation{Field: "type", Message: "type must be personal or business"}
	}
	switch tx.SubscriptionType {
	case domain.SubscriptionOneTime, domain.SubscriptionRecurring:
	default:
		return &domain.ErrValidation{Field: "subscriptionType", Message: "subscriptionType must be one-time or recurring"}
	}
	return nil
}
