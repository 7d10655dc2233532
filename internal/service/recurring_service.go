package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/port"
	"github.com/boddenberg/moneta-ledger/internal/recurrence"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var recurringTracer = otel.Tracer("service/recurring")

// RuleFunc is notified when a recurring rule is opened for editing.
type RuleFunc func(ctx context.Context, rule domain.Recurring)

// RecurringService is the validated CRUD surface for recurring rules.
type RecurringService struct {
	store  port.RecurringStore
	logger *zap.Logger

	mu     sync.RWMutex
	onOpen []RuleFunc
}

// NewRecurringService creates a new recurring rule service.
func NewRecurringService(store port.RecurringStore, logger *zap.Logger) *RecurringService {
	return &RecurringService{store: store, logger: logger}
}

// OnOpenRule registers fn to run whenever OpenRule resolves a rule.
func (s *RecurringService) OnOpenRule(fn RuleFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpen = append(s.onOpen, fn)
}

func (s *RecurringService) ListRules(ctx context.Context, businessID string) ([]domain.Recurring, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.ListRules")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	return s.store.ListRecurrings(ctx, businessID)
}

// CreateRule stores a new active rule with a fresh "r_" id and no run state.
func (s *RecurringService) CreateRule(ctx context.Context, businessID string, input *domain.Recurring) (*domain.Recurring, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.CreateRule")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	rule := *input
	rule.ID = "r_" + uuid.NewString()
	rule.BusinessID = businessID
	rule.Active = true
	rule.LastRunAt = nil
	rule.NextRunAt = nil

	if err := ValidateRule(&rule); err != nil {
		return nil, err
	}
	if err := s.store.AddRecurring(ctx, businessID, &rule); err != nil {
		return nil, fmt.Errorf("add recurring: %w", err)
	}

	s.logger.Info("recurring rule created",
		zap.String("business_id", businessID),
		zap.String("rule_id", rule.ID),
		zap.String("frequency", string(rule.Frequency)),
	)
	return &rule, nil
}

// RuleUpdate is the editable form of a rule. A nil Active keeps the
// stored value.
type RuleUpdate struct {
	domain.Recurring
	Active *bool `json:"active,omitempty"`
}

// UpdateRule upserts the rule under ruleID. Run state and the active flag
// the caller leaves unset are carried over from the stored rule; a new
// rule starts active.
func (s *RecurringService) UpdateRule(ctx context.Context, businessID, ruleID string, input *RuleUpdate) (*domain.Recurring, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.UpdateRule")
	defer span.End()
	span.SetAttributes(
		attribute.String("business.id", businessID),
		attribute.String("rule.id", ruleID),
	)

	rule := input.Recurring
	rule.ID = ruleID
	rule.BusinessID = businessID

	existing, err := s.find(ctx, businessID, ruleID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	switch {
	case input.Active != nil:
		rule.Active = *input.Active
	case existing != nil:
		rule.Active = existing.Active
	default:
		rule.Active = true
	}
	if existing != nil {
		if rule.LastRunAt == nil {
			rule.LastRunAt = existing.LastRunAt
		}
		if rule.NextRunAt == nil {
			rule.NextRunAt = existing.NextRunAt
		}
	}

	if err := ValidateRule(&rule); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRecurring(ctx, businessID, &rule); err != nil {
		return nil, fmt.Errorf("update recurring: %w", err)
	}
	return &rule, nil
}

func (s *RecurringService) DeleteRule(ctx context.Context, businessID, ruleID string) error {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.DeleteRule")
	defer span.End()

	if _, err := s.find(ctx, businessID, ruleID); err != nil {
		return err
	}
	if err := s.store.DeleteRecurring(ctx, businessID, ruleID); err != nil {
		return fmt.Errorf("delete recurring: %w", err)
	}
	return nil
}

// OpenRule resolves a rule and notifies every OnOpenRule callback.
func (s *RecurringService) OpenRule(ctx context.Context, businessID, ruleID string) (*domain.Recurring, error) {
	ctx, span := recurringTracer.Start(ctx, "RecurringService.OpenRule")
	defer span.End()

	rule, err := s.find(ctx, businessID, ruleID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	callbacks := append([]RuleFunc(nil), s.onOpen...)
	s.mu.RUnlock()

	for _, fn := range callbacks {
		fn(ctx, *rule)
	}
	return rule, nil
}

func (s *RecurringService) find(ctx context.Context, businessID, ruleID string) (*domain.Recurring, error) {
	rules, err := s.store.ListRecurrings(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list recurrings: %w", err)
	}
	for i := range rules {
		if rules[i].ID == ruleID {
			return &rules[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "recurring", ID: ruleID}
}

// ValidateRule checks the user-editable fields of a rule.
func ValidateRule(r *domain.Recurring) error {
	if r.Amount < 0 {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be a non-negative magnitude"}
	}
	if r.AccountID == "" {
		return &domain.ErrValidation{Field: "accountId", Message: "accountId is required"}
	}
	if r.CategoryID == "" {
		return &domain.ErrValidation{Field: "categoryId", Message: "categoryId is required"}
	}
	if !r.Frequency.Valid() {
		return &domain.ErrValidation{Field: "frequency", Message: "frequency must be daily, weekly, monthly, yearly or custom"}
	}

	start, err := time.Parse(recurrence.DateLayout, r.StartDate)
	if err != nil {
		return &domain.ErrValidation{Field: "startDate", Message: "startDate must be YYYY-MM-DD"}
	}
	if r.EndDate != "" {
		end, err := time.Parse(recurrence.DateLayout, r.EndDate)
		if err != nil {
			return &domain.ErrValidation{Field: "endDate", Message: "endDate must be YYYY-MM-DD"}
		}
		if end.Before(start) {
			return &domain.ErrValidation{Field: "endDate", Message: "endDate must not be before startDate"}
		}
	}

	if r.DayOfMonth != nil && (*r.DayOfMonth < 1 || *r.DayOfMonth > 31) {
		return &domain.ErrValidation{Field: "dayOfMonth", Message: "dayOfMonth must be between 1 and 31"}
	}
	if r.Weekday != nil && (*r.Weekday < 0 || *r.Weekday > 6) {
		return &domain.ErrValidation{Field: "weekday", Message: "weekday must be between 0 and 6"}
	}
	if r.IntervalDays != nil && (*r.IntervalDays < 1 || *r.IntervalDays > recurrence.MaxIntervalDays) {
		return &domain.ErrValidation{Field: "intervalDays", Message: fmt.Sprintf("intervalDays must be between 1 and %d", recurrence.MaxIntervalDays)}
	}
	return nil
}
