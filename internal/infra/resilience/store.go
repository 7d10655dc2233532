package resilience

import (
	"context"
	"errors"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/port"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Store wraps a port.Store so every call goes through a circuit breaker and
// a bounded retry. Backend failures surface as *domain.ErrExternalService,
// an open breaker as *domain.ErrCircuitOpen. Domain errors pass through.
type Store struct {
	inner  port.Store
	cb     *gobreaker.CircuitBreaker
	cfg    Config
	name   string
	logger *zap.Logger
}

var _ port.Store = (*Store)(nil)

// NewStore decorates inner. name identifies the backend in errors and logs.
func NewStore(inner port.Store, name string, cfg Config, logger *zap.Logger) *Store {
	return &Store{
		inner:  inner,
		cb:     NewCircuitBreaker(name),
		cfg:    cfg,
		name:   name,
		logger: logger,
	}
}

func call[T any](ctx context.Context, s *Store, op string, fn func(context.Context) (T, error)) (T, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		var out T
		retryErr := RetryWithBackoff(ctx, s.cfg, func() error {
			v, err := fn(ctx)
			if err != nil {
				if IsDomainError(err) {
					return Permanent(err)
				}
				return err
			}
			out = v
			return nil
		})
		return out, retryErr
	})

	var zero T
	if err != nil {
		return zero, s.mapError(op, err)
	}
	if result == nil {
		return zero, nil
	}
	return result.(T), nil
}

func do(ctx context.Context, s *Store, op string, fn func(context.Context) error) error {
	_, err := call(ctx, s, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (s *Store) mapError(op string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn("store circuit open", zap.String("store", s.name), zap.String("op", op))
		return &domain.ErrCircuitOpen{Service: s.name}
	case IsDomainError(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		s.logger.Error("store call failed",
			zap.String("store", s.name),
			zap.String("op", op),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: s.name + "." + op, Err: err}
	}
}

// State exposes the breaker state for readiness reporting.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

func (s *Store) Ping(ctx context.Context) error {
	return do(ctx, s, "ping", s.inner.Ping)
}

func (s *Store) Close() error {
	return s.inner.Close()
}

// ============================================================
// Businesses
// ============================================================

func (s *Store) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	return call(ctx, s, "list_businesses", s.inner.ListBusinesses)
}

func (s *Store) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	return call(ctx, s, "get_business", func(ctx context.Context) (*domain.Business, error) {
		return s.inner.GetBusiness(ctx, id)
	})
}

func (s *Store) AddBusiness(ctx context.Context, b *domain.Business) error {
	return do(ctx, s, "add_business", func(ctx context.Context) error {
		return s.inner.AddBusiness(ctx, b)
	})
}

func (s *Store) UpdateBusiness(ctx context.Context, b *domain.Business) error {
	return do(ctx, s, "update_business", func(ctx context.Context) error {
		return s.inner.UpdateBusiness(ctx, b)
	})
}

func (s *Store) DeleteBusiness(ctx context.Context, id string) error {
	return do(ctx, s, "delete_business", func(ctx context.Context) error {
		return s.inner.DeleteBusiness(ctx, id)
	})
}

func (s *Store) GetActiveBusinessID(ctx context.Context) (string, error) {
	return call(ctx, s, "get_active_business", s.inner.GetActiveBusinessID)
}

func (s *Store) SetActiveBusinessID(ctx context.Context, id string) error {
	return do(ctx, s, "set_active_business", func(ctx context.Context) error {
		return s.inner.SetActiveBusinessID(ctx, id)
	})
}

// ============================================================
// Recurring rules
// ============================================================

func (s *Store) ListRecurrings(ctx context.Context, businessID string) ([]domain.Recurring, error) {
	return call(ctx, s, "list_recurrings", func(ctx context.Context) ([]domain.Recurring, error) {
		return s.inner.ListRecurrings(ctx, businessID)
	})
}

func (s *Store) AddRecurring(ctx context.Context, businessID string, r *domain.Recurring) error {
	return do(ctx, s, "add_recurring", func(ctx context.Context) error {
		return s.inner.AddRecurring(ctx, businessID, r)
	})
}

func (s *Store) UpdateRecurring(ctx context.Context, businessID string, r *domain.Recurring) error {
	return do(ctx, s, "update_recurring", func(ctx context.Context) error {
		return s.inner.UpdateRecurring(ctx, businessID, r)
	})
}

func (s *Store) DeleteRecurring(ctx context.Context, businessID, id string) error {
	return do(ctx, s, "delete_recurring", func(ctx context.Context) error {
		return s.inner.DeleteRecurring(ctx, businessID, id)
	})
}

// ============================================================
// Ledger
// ============================================================

func (s *Store) ListTransactions(ctx context.Context, businessID string) ([]domain.Transaction, error) {
	return call(ctx, s, "list_transactions", func(ctx context.Context) ([]domain.Transaction, error) {
		return s.inner.ListTransactions(ctx, businessID)
	})
}

// AppendTransactions retries like every other call. A conflict on a retry
// means an earlier attempt may have committed before failing; if every id
// of the batch is now live the append counts as done.
func (s *Store) AppendTransactions(ctx context.Context, businessID string, txs []domain.Transaction) error {
	attempt := 0
	return do(ctx, s, "append_transactions", func(ctx context.Context) error {
		attempt++
		err := s.inner.AppendTransactions(ctx, businessID, txs)
		var conflict *domain.ErrConflict
		if attempt > 1 && errors.As(err, &conflict) && s.allLive(ctx, businessID, txs) {
			s.logger.Warn("append committed on an earlier attempt",
				zap.String("store", s.name),
				zap.String("business_id", businessID),
				zap.Int("transactions", len(txs)),
			)
			return nil
		}
		return err
	})
}

func (s *Store) allLive(ctx context.Context, businessID string, txs []domain.Transaction) bool {
	live, err := s.inner.ListTransactions(ctx, businessID)
	if err != nil {
		return false
	}
	ids := make(map[string]struct{}, len(live))
	for _, tx := range live {
		ids[tx.ID] = struct{}{}
	}
	for _, tx := range txs {
		if _, ok := ids[tx.ID]; !ok {
			return false
		}
	}
	return true
}

func (s *Store) UpdateTransaction(ctx context.Context, businessID string, tx *domain.Transaction) error {
	return do(ctx, s, "update_transaction", func(ctx context.Context) error {
		return s.inner.UpdateTransaction(ctx, businessID, tx)
	})
}

func (s *Store) RemoveTransactions(ctx context.Context, businessID string, ids []string) error {
	return do(ctx, s, "remove_transactions", func(ctx context.Context) error {
		return s.inner.RemoveTransactions(ctx, businessID, ids)
	})
}

// ============================================================
// Statements
// ============================================================

func (s *Store) ListStatements(ctx context.Context, businessID string) ([]domain.MonthlyStatement, error) {
	return call(ctx, s, "list_statements", func(ctx context.Context) ([]domain.MonthlyStatement, error) {
		return s.inner.ListStatements(ctx, businessID)
	})
}

func (s *Store) GetStatement(ctx context.Context, businessID, id string) (*domain.MonthlyStatement, error) {
	return call(ctx, s, "get_statement", func(ctx context.Context) (*domain.MonthlyStatement, error) {
		return s.inner.GetStatement(ctx, businessID, id)
	})
}

func (s *Store) SaveArchive(ctx context.Context, stmt *domain.MonthlyStatement) error {
	return do(ctx, s, "save_archive", func(ctx context.Context) error {
		return s.inner.SaveArchive(ctx, stmt)
	})
}

func (s *Store) RestoreArchive(ctx context.Context, stmt *domain.MonthlyStatement) error {
	return do(ctx, s, "restore_archive", func(ctx context.Context) error {
		return s.inner.RestoreArchive(ctx, stmt)
	})
}

// ============================================================
// Reference data
// ============================================================

func (s *Store) ListAccounts(ctx context.Context, businessID string) ([]domain.Account, error) {
	return call(ctx, s, "list_accounts", func(ctx context.Context) ([]domain.Account, error) {
		return s.inner.ListAccounts(ctx, businessID)
	})
}

func (s *Store) SaveAccounts(ctx context.Context, businessID string, accounts []domain.Account) error {
	return do(ctx, s, "save_accounts", func(ctx context.Context) error {
		return s.inner.SaveAccounts(ctx, businessID, accounts)
	})
}

func (s *Store) ListCategories(ctx context.Context, businessID string) ([]domain.Category, error) {
	return call(ctx, s, "list_categories", func(ctx context.Context) ([]domain.Category, error) {
		return s.inner.ListCategories(ctx, businessID)
	})
}

func (s *Store) SaveCategories(ctx context.Context, businessID string, categories []domain.Category) error {
	return do(ctx, s, "save_categories", func(ctx context.Context) error {
		return s.inner.SaveCategories(ctx, businessID, categories)
	})
}
