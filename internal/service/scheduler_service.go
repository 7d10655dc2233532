package service

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/infra/observability"
	"github.com/boddenberg/moneta-ledger/internal/port"
	"github.com/boddenberg/moneta-ledger/internal/recurrence"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var schedulerTracer = otel.Tracer("service/scheduler")

// Failure stages reported in RunReport and the failures metric.
const (
	StageListRules  = "list_rules"
	StageUpdateRule = "update_rule"
	StageListLedger = "list_ledger"
	StageAppend     = "append"
)

// Clock returns the current time.
type Clock func() time.Time

// SchedulerService turns due recurring rules into ledger transactions.
// It never returns storage errors: they are logged, counted and reported.
type SchedulerService struct {
	store          port.Store
	accounts       AccountClassifier
	metrics        *observability.Metrics
	logger         *zap.Logger
	now            Clock
	maxConcurrency int

	// locks serialises runs per business.
	locks sync.Map
}

// NewSchedulerService creates the scheduler. maxConcurrency bounds how many
// businesses RunAll processes at once.
func NewSchedulerService(
	store port.Store,
	accounts AccountClassifier,
	metrics *observability.Metrics,
	logger *zap.Logger,
	now Clock,
	maxConcurrency int,
) *SchedulerService {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &SchedulerService{
		store:          store,
		accounts:       accounts,
		metrics:        metrics,
		logger:         logger,
		now:            now,
		maxConcurrency: maxConcurrency,
	}
}

// RunDue processes every due rule of one business in a single batch.
// An empty businessID is a no-op.
func (s *SchedulerService) RunDue(ctx context.Context, businessID string) *domain.RunReport {
	report := &domain.RunReport{BusinessID: businessID, Generated: []domain.Transaction{}}
	if businessID == "" {
		return report
	}

	ctx, span := schedulerTracer.Start(ctx, "SchedulerService.RunDue")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	mu := s.lockFor(businessID)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	defer func() {
		s.metrics.RecordDuration("scheduler_run", time.Since(start))
	}()

	rules, err := s.store.ListRecurrings(ctx, businessID)
	if err != nil {
		s.fail(report, StageListRules, "", err)
		s.metrics.RecordRun(0, 0)
		return report
	}

	now := s.now()
	var batch []domain.Transaction
	for _, rule := range rules {
		report.RulesProcessed++
		adopted := rule.BusinessID == ""
		if adopted {
			rule.BusinessID = businessID
		}

		updated := rule
		var generated []domain.Transaction
		if rule.Active {
			txType := s.accounts.AccountCategory(ctx, businessID, rule.AccountID)
			generated, updated = recurrence.Expand(rule, now, txType)
		}
		// An adopted rule is saved even when nothing is due.
		if !adopted && !recurrence.Changed(rule, updated) {
			continue
		}

		// Occurrences of a rule that failed to save are dropped; they come
		// back with the same ids on the next run.
		if err := s.store.UpdateRecurring(ctx, businessID, &updated); err != nil {
			s.fail(report, StageUpdateRule, rule.ID, err)
			continue
		}
		report.RulesUpdated++
		if rule.Active && !updated.Active {
			report.RulesDeactivated++
		}
		batch = append(batch, generated...)
	}

	if len(batch) > 0 {
		fresh := s.dropLive(ctx, report, businessID, batch)
		report.SkippedDuplicates = len(batch) - len(fresh)

		if len(fresh) > 0 {
			if err := s.store.AppendTransactions(ctx, businessID, fresh); err != nil {
				s.fail(report, StageAppend, "", err)
			} else {
				report.Generated = fresh
			}
		}
	}

	s.metrics.RecordRun(len(report.Generated), report.SkippedDuplicates)
	span.SetAttributes(attribute.Int("scheduler.generated", len(report.Generated)))

	s.logger.Info("scheduler run complete",
		zap.String("business_id", businessID),
		zap.Int("rules_processed", report.RulesProcessed),
		zap.Int("rules_updated", report.RulesUpdated),
		zap.Int("generated", len(report.Generated)),
		zap.Int("skipped_duplicates", report.SkippedDuplicates),
		zap.Int("failures", len(report.Failures)),
	)
	return report
}

// RunAll runs RunDue for every known business, a bounded number at a time.
// Reports are returned in business list order.
func (s *SchedulerService) RunAll(ctx context.Context) []*domain.RunReport {
	ctx, span := schedulerTracer.Start(ctx, "SchedulerService.RunAll")
	defer span.End()

	businesses, err := s.store.ListBusinesses(ctx)
	if err != nil {
		s.logger.Error("failed to list businesses for scheduler", zap.Error(err))
		s.metrics.IncrFailure(StageListRules)
		return nil
	}

	reports := make([]*domain.RunReport, len(businesses))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, b := range businesses {
		i, b := i, b
		g.Go(func() error {
			reports[i] = s.RunDue(gCtx, b.ID)
			return nil
		})
	}
	_ = g.Wait()

	return reports
}

// RunActive runs the scheduler for the currently active business.
func (s *SchedulerService) RunActive(ctx context.Context) *domain.RunReport {
	businessID, err := s.store.GetActiveBusinessID(ctx)
	if err != nil {
		s.logger.Error("failed to read active business", zap.Error(err))
		return &domain.RunReport{Generated: []domain.Transaction{}}
	}
	return s.RunDue(ctx, businessID)
}

// dropLive filters out occurrences whose id is already in the live ledger
// or repeated within the batch. If the ledger cannot be read the batch is
// passed through and the store's duplicate check is the last guard.
func (s *SchedulerService) dropLive(ctx context.Context, report *domain.RunReport, businessID string, batch []domain.Transaction) []domain.Transaction {
	seen := make(map[string]bool)

	live, err := s.store.ListTransactions(ctx, businessID)
	if err != nil {
		s.fail(report, StageListLedger, "", err)
	}
	for _, tx := range live {
		seen[tx.ID] = true
	}

	fresh := make([]domain.Transaction, 0, len(batch))
	for _, tx := range batch {
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		fresh = append(fresh, tx)
	}
	return fresh
}

func (s *SchedulerService) fail(report *domain.RunReport, stage, ruleID string, err error) {
	s.metrics.IncrFailure(stage)
	s.logger.Error("scheduler storage failure",
		zap.String("business_id", report.BusinessID),
		zap.String("stage", stage),
		zap.String("rule_id", ruleID),
		zap.Error(err),
	)
	report.Failures = append(report.Failures, domain.RunFailure{
		Stage:  stage,
		RuleID: ruleID,
		Error:  err.Error(),
	})
}

func (s *SchedulerService) lockFor(businessID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(businessID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
