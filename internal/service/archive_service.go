package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/infra/observability"
	"github.com/boddenberg/moneta-ledger/internal/port"
	"github.com/boddenberg/moneta-ledger/internal/statement"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var archiveTracer = otel.Tracer("service/archive")

// sweepYears is how many years back, including the current one, the
// automatic sweep looks for archivable months.
const sweepYears = 3

// ArchiveService moves whole months between the live ledger and immutable
// monthly statements.
type ArchiveService struct {
	store   port.Store
	metrics *observability.Metrics
	logger  *zap.Logger
	now     Clock
}

// NewArchiveService creates the statement archiver.
func NewArchiveService(store port.Store, metrics *observability.Metrics, logger *zap.Logger, now Clock) *ArchiveService {
	return &ArchiveService{store: store, metrics: metrics, logger: logger, now: now}
}

// ArchiveMonth freezes the business's live transactions of (year, month)
// into a statement and removes them from the ledger. Month is zero-based.
// It returns (nil, nil) when the month has no transactions.
func (s *ArchiveService) ArchiveMonth(ctx context.Context, businessID string, year, month int) (*domain.MonthlyStatement, error) {
	ctx, span := archiveTracer.Start(ctx, "ArchiveService.ArchiveMonth")
	defer span.End()
	span.SetAttributes(
		attribute.String("business.id", businessID),
		attribute.Int("statement.year", year),
		attribute.Int("statement.month", month),
	)

	if month < 0 || month > 11 {
		return nil, &domain.ErrValidation{Field: "month", Message: "month must be between 0 and 11"}
	}
	if year < 1 {
		return nil, &domain.ErrValidation{Field: "year", Message: "year must be positive"}
	}

	ledger, err := s.store.ListTransactions(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	selected := statement.Select(ledger, businessID, year, month)
	if len(selected) == 0 {
		s.logger.Debug("nothing to archive",
			zap.String("business_id", businessID),
			zap.Int("year", year),
			zap.Int("month", month),
		)
		return nil, nil
	}

	id := statement.ID(year, month)
	if _, err := s.store.GetStatement(ctx, businessID, id); err == nil {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("statement %s already archived", id)}
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check statement %s: %w", id, err)
	}

	stmt := statement.New(businessID, year, month, selected, s.now())
	if err := s.store.SaveArchive(ctx, stmt); err != nil {
		return nil, fmt.Errorf("save archive %s: %w", id, err)
	}

	s.metrics.IncrArchived()
	s.logger.Info("month archived",
		zap.String("business_id", businessID),
		zap.String("statement_id", id),
		zap.Int("transactions", stmt.Summary.TransactionCount),
	)
	return stmt, nil
}

// UnarchiveMonth puts a statement's transactions back into the live ledger
// and deletes the statement. An unknown statement, or one owned by another
// business, is a no-op.
func (s *ArchiveService) UnarchiveMonth(ctx context.Context, businessID, statementID string) error {
	ctx, span := archiveTracer.Start(ctx, "ArchiveService.UnarchiveMonth")
	defer span.End()
	span.SetAttributes(
		attribute.String("business.id", businessID),
		attribute.String("statement.id", statementID),
	)

	stmt, err := s.store.GetStatement(ctx, businessID, statementID)
	if isNotFound(err) {
		s.logger.Debug("unarchive skipped: statement not found",
			zap.String("business_id", businessID),
			zap.String("statement_id", statementID),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get statement %s: %w", statementID, err)
	}
	if stmt.BusinessID != businessID {
		s.logger.Debug("unarchive skipped: statement belongs to another business",
			zap.String("business_id", businessID),
			zap.String("owner_business_id", stmt.BusinessID),
			zap.String("statement_id", statementID),
		)
		return nil
	}

	if err := s.store.RestoreArchive(ctx, stmt); err != nil {
		return fmt.Errorf("restore archive %s: %w", statementID, err)
	}

	s.metrics.IncrUnarchived()
	s.logger.Info("month unarchived",
		zap.String("business_id", businessID),
		zap.String("statement_id", statementID),
		zap.Int("transactions", len(stmt.Transactions)),
	)
	return nil
}

// CheckForArchivableMonths archives every past month of the last three
// years that has live transactions and no statement yet. The current month
// is never touched. Failures are logged and the sweep moves on.
func (s *ArchiveService) CheckForArchivableMonths(ctx context.Context, businessID string) []domain.MonthlyStatement {
	ctx, span := archiveTracer.Start(ctx, "ArchiveService.CheckForArchivableMonths")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	now := s.now().UTC()
	currentYear, currentMonth := now.Year(), int(now.Month())-1

	existing, err := s.store.ListStatements(ctx, businessID)
	if err != nil {
		s.logger.Error("sweep: failed to list statements",
			zap.String("business_id", businessID),
			zap.Error(err),
		)
		return nil
	}
	archived := make(map[string]bool, len(existing))
	for _, st := range existing {
		archived[st.ID] = true
	}

	var created []domain.MonthlyStatement
	for year := currentYear; year > currentYear-sweepYears; year-- {
		lastMonth := 11
		if year == currentYear {
			lastMonth = currentMonth - 1
		}
		for month := 0; month <= lastMonth; month++ {
			if archived[statement.ID(year, month)] {
				continue
			}
			stmt, err := s.ArchiveMonth(ctx, businessID, year, month)
			if err != nil {
				s.logger.Warn("sweep: archive failed",
					zap.String("business_id", businessID),
					zap.Int("year", year),
					zap.Int("month", month),
					zap.Error(err),
				)
				continue
			}
			if stmt != nil {
				created = append(created, *stmt)
			}
		}
	}
	return created
}

// ListStatements returns the business's archived statements.
func (s *ArchiveService) ListStatements(ctx context.Context, businessID string) ([]domain.MonthlyStatement, error) {
	ctx, span := archiveTracer.Start(ctx, "ArchiveService.ListStatements")
	defer span.End()

	return s.store.ListStatements(ctx, businessID)
}

// GetStatement returns one archived statement.
func (s *ArchiveService) GetStatement(ctx context.Context, businessID, statementID string) (*domain.MonthlyStatement, error) {
	ctx, span := archiveTracer.Start(ctx, "ArchiveService.GetStatement")
	defer span.End()

	return s.store.GetStatement(ctx, businessID, statementID)
}

// Annual rebuilds the annual views from the stored statements.
func (s *ArchiveService) Annual(ctx context.Context, businessID string) ([]domain.AnnualStatement, error) {
	ctx, span := archiveTracer.Start(ctx, "ArchiveService.Annual")
	defer span.End()

	statements, err := s.store.ListStatements(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	return statement.BuildAnnual(statements, businessID), nil
}

func isNotFound(err error) bool {
	var notFound *domain.ErrNotFound
	return errors.As(err, &notFound)
}
