package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var businessTracer = otel.Tracer("service/business")

const defaultCurrency = "USD"

// BusinessFunc is notified with a business id after a business event.
// An empty id means "no business".
type BusinessFunc func(ctx context.Context, businessID string)

// BusinessService manages businesses and which one is active. The active
// business is only stored; every other service receives the business id
// explicitly.
type BusinessService struct {
	store  port.BusinessStore
	logger *zap.Logger
	now    Clock

	mu        sync.RWMutex
	onSwitch  []BusinessFunc
	onDeleted []BusinessFunc
}

// NewBusinessService creates a new business service.
func NewBusinessService(store port.BusinessStore, logger *zap.Logger, now Clock) *BusinessService {
	return &BusinessService{store: store, logger: logger, now: now}
}

// OnBusinessSwitched registers fn to run after every successful switch.
// Callbacks run in registration order.
func (s *BusinessService) OnBusinessSwitched(fn BusinessFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwitch = append(s.onSwitch, fn)
}

// OnBusinessDeleted registers fn to run after a business is deleted.
func (s *BusinessService) OnBusinessDeleted(fn BusinessFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDeleted = append(s.onDeleted, fn)
}

func (s *BusinessService) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	ctx, span := businessTracer.Start(ctx, "BusinessService.ListBusinesses")
	defer span.End()

	return s.store.ListBusinesses(ctx)
}

func (s *BusinessService) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	ctx, span := businessTracer.Start(ctx, "BusinessService.GetBusiness")
	defer span.End()

	return s.store.GetBusiness(ctx, businessID)
}

// CreateBusiness validates b, assigns an id when missing and stores it.
func (s *BusinessService) CreateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	ctx, span := businessTracer.Start(ctx, "BusinessService.CreateBusiness")
	defer span.End()

	created := *b
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = s.now().UnixMilli()
	if err := normalizeBusiness(&created); err != nil {
		return nil, err
	}

	if err := s.store.AddBusiness(ctx, &created); err != nil {
		return nil, fmt.Errorf("add business: %w", err)
	}

	s.logger.Info("business created",
		zap.String("business_id", created.ID),
		zap.String("name", created.Name),
	)
	return &created, nil
}

// UpdateBusiness replaces the editable fields of an existing business.
func (s *BusinessService) UpdateBusiness(ctx context.Context, businessID string, b *domain.Business) (*domain.Business, error) {
	ctx, span := businessTracer.Start(ctx, "BusinessService.UpdateBusiness")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	existing, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	updated := *b
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := normalizeBusiness(&updated); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBusiness(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update business: %w", err)
	}
	return &updated, nil
}

// DeleteBusiness removes a business together with its rules, ledger,
// statements and reference data.
func (s *BusinessService) DeleteBusiness(ctx context.Context, businessID string) error {
	ctx, span := businessTracer.Start(ctx, "BusinessService.DeleteBusiness")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	if _, err := s.store.GetBusiness(ctx, businessID); err != nil {
		return err
	}
	if err := s.store.DeleteBusiness(ctx, businessID); err != nil {
		return fmt.Errorf("delete business: %w", err)
	}

	s.logger.Info("business deleted", zap.String("business_id", businessID))
	for _, fn := range s.callbacks(&s.onDeleted) {
		fn(ctx, businessID)
	}
	return nil
}

// ActiveBusiness returns the active business, or nil when none is active.
func (s *BusinessService) ActiveBusiness(ctx context.Context) (*domain.Business, error) {
	ctx, span := businessTracer.Start(ctx, "BusinessService.ActiveBusiness")
	defer span.End()

	id, err := s.store.GetActiveBusinessID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read active business: %w", err)
	}
	if id == "" {
		return nil, nil
	}
	b, err := s.store.GetBusiness(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	return b, err
}

// SwitchBusiness makes businessID the active business and then notifies
// every OnBusinessSwitched callback in order. An empty id selects no
// business.
func (s *BusinessService) SwitchBusiness(ctx context.Context, businessID string) error {
	ctx, span := businessTracer.Start(ctx, "BusinessService.SwitchBusiness")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	if businessID != "" {
		if _, err := s.store.GetBusiness(ctx, businessID); err != nil {
			return err
		}
	}
	if err := s.store.SetActiveBusinessID(ctx, businessID); err != nil {
		return fmt.Errorf("set active business: %w", err)
	}

	s.logger.Info("business switched", zap.String("business_id", businessID))
	for _, fn := range s.callbacks(&s.onSwitch) {
		fn(ctx, businessID)
	}
	return nil
}

func (s *BusinessService) callbacks(list *[]BusinessFunc) []BusinessFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]BusinessFunc(nil), (*list)...)
}

func normalizeBusiness(b *domain.Business) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "name is required"}
	}

	b.Currency = strings.ToUpper(strings.TrimSpace(b.Currency))
	if b.Currency == "" {
		b.Currency = defaultCurrency
	}
	if len(b.Currency) != 3 {
		return &domain.ErrValidation{Field: "currency", Message: "currency must be a 3-letter ISO 4217 code"}
	}

	if b.Timezone != "" {
		if _, err := time.LoadLocation(b.Timezone); err != nil {
			return &domain.ErrValidation{Field: "timezone", Message: "unknown IANA timezone"}
		}
	}
	return nil
}
