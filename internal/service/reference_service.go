package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/infra/observability"
	"github.com/boddenberg/moneta-ledger/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var referenceTracer = otel.Tracer("service/reference")

// DefaultCategories is installed for a business the first time its
// categories are read.
var DefaultCategories = []domain.Category{
	{ID: "1", Name: "Owner Contribution", Type: "income", BusinessRelevant: true},
	{ID: "2", Name: "Revenue", Type: "income", BusinessRelevant: true},
	{ID: "3", Name: "Salary", Type: "income", BusinessRelevant: false},
	{ID: "4", Name: "Software/SaaS", Type: "expense", BusinessRelevant: true},
	{ID: "5", Name: "Hosting", Type: "expense", BusinessRelevant: true},
	{ID: "6", Name: "Marketing", Type: "expense", BusinessRelevant: true},
	{ID: "7", Name: "Office Supplies", Type: "expense", BusinessRelevant: true},
	{ID: "8", Name: "Travel", Type: "expense", BusinessRelevant: true},
	{ID: "9", Name: "Meals & Entertainment", Type: "expense", BusinessRelevant: true},
	{ID: "10", Name: "Professional Services", Type: "expense", BusinessRelevant: true},
	{ID: "11", Name: "Taxes & Licenses", Type: "expense", BusinessRelevant: true},
	{ID: "12", Name: "Groceries", Type: "expense", BusinessRelevant: false},
	{ID: "13", Name: "Rent/Mortgage", Type: "expense", BusinessRelevant: false},
	{ID: "14", Name: "Utilities", Type: "expense", BusinessRelevant: false},
	{ID: "15", Name: "Transportation", Type: "expense", BusinessRelevant: false},
	{ID: "16", Name: "Healthcare", Type: "expense", BusinessRelevant: false},
	{ID: "17", Name: "Entertainment", Type: "expense", BusinessRelevant: false},
}

// DefaultAccounts is installed for a business the first time its accounts
// are read.
var DefaultAccounts = []domain.Account{
	{ID: "1", Name: "Personal Checking", Type: "checking", Category: domain.OwnershipPersonal, IsActive: true},
	{ID: "2", Name: "LLC Checking", Type: "checking", Category: domain.OwnershipBusiness, IsActive: true},
	{ID: "3", Name: "Credit Card", Type: "credit_card", Category: domain.OwnershipPersonal, IsActive: true},
}

// AccountClassifier resolves the ownership category (personal or business)
// of an account. Generated and manual transactions take their type from it.
type AccountClassifier interface {
	AccountCategory(ctx context.Context, businessID, accountID string) string
}

// ReferenceService serves accounts and categories. Account lists are cached
// per business since every generated transaction looks one up.
type ReferenceService struct {
	store   port.ReferenceStore
	cache   port.Cache[[]domain.Account]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReferenceService creates a new reference data service.
func NewReferenceService(store port.ReferenceStore, cache port.Cache[[]domain.Account], metrics *observability.Metrics, logger *zap.Logger) *ReferenceService {
	return &ReferenceService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// ListAccounts returns the business's accounts, seeding the defaults when
// none exist yet.
func (s *ReferenceService) ListAccounts(ctx context.Context, businessID string) ([]domain.Account, error) {
	ctx, span := referenceTracer.Start(ctx, "ReferenceService.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	cacheKey := fmt.Sprintf("accounts:%s", businessID)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("accounts")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("accounts")

	accounts, err := s.store.ListAccounts(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		accounts = append([]domain.Account(nil), DefaultAccounts...)
		if err := s.store.SaveAccounts(ctx, businessID, accounts); err != nil {
			return nil, fmt.Errorf("seed accounts: %w", err)
		}
		s.logger.Info("seeded default accounts", zap.String("business_id", businessID))
	}

	s.cache.Set(cacheKey, accounts)
	return accounts, nil
}

// ListCategories returns the business's categories, seeding the defaults
// when none exist yet.
func (s *ReferenceService) ListCategories(ctx context.Context, businessID string) ([]domain.Category, error) {
	ctx, span := referenceTracer.Start(ctx, "ReferenceService.ListCategories")
	defer span.End()

	categories, err := s.store.ListCategories(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		categories = append([]domain.Category(nil), DefaultCategories...)
		if err := s.store.SaveCategories(ctx, businessID, categories); err != nil {
			return nil, fmt.Errorf("seed categories: %w", err)
		}
		s.logger.Info("seeded default categories", zap.String("business_id", businessID))
	}
	return categories, nil
}

// AccountCategory implements AccountClassifier. Unknown accounts and lookup
// failures fall back to business.
func (s *ReferenceService) AccountCategory(ctx context.Context, businessID, accountID string) string {
	accounts, err := s.ListAccounts(ctx, businessID)
	if err != nil {
		s.logger.Warn("account lookup failed, defaulting to business",
			zap.String("business_id", businessID),
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return domain.OwnershipBusiness
	}
	for _, a := range accounts {
		if a.ID == accountID && a.Category != "" {
			return a.Category
		}
	}
	return domain.OwnershipBusiness
}

// Forget drops the cached accounts of a business.
func (s *ReferenceService) Forget(businessID string) {
	s.cache.Delete(fmt.Sprintf("accounts:%s", businessID))
}
