package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// ============================================================
// Recurring rules
// ============================================================

const recurringColumns = `id, business_id, account_id, amount, category_id, description, is_expense,
	frequency, day_of_month, weekday, interval_days, start_date, end_date, active, last_run_at, next_run_at`

func (s *Store) ListRecurrings(ctx context.Context, businessID string) ([]domain.Recurring, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListRecurrings")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurrings WHERE business_id = ? ORDER BY rowid`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list recurrings: %w", err)
	}
	defer rows.Close()

	var out []domain.Recurring
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AddRecurring(ctx context.Context, businessID string, r *domain.Recurring) error {
	ctx, span := tracer.Start(ctx, "SQLite.AddRecurring")
	defer span.End()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recurrings (`+recurringColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recurringArgs(businessID, r)...)
	if isUniqueViolation(err) {
		return &domain.ErrConflict{Message: fmt.Sprintf("recurring rule %s already exists", r.ID)}
	}
	if err != nil {
		return fmt.Errorf("insert recurring: %w", err)
	}
	return nil
}

func (s *Store) UpdateRecurring(ctx context.Context, businessID string, r *domain.Recurring) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateRecurring")
	defer span.End()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurrings (`+recurringColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (business_id, id) DO UPDATE SET
			account_id = excluded.account_id,
			amount = excluded.amount,
			category_id = excluded.category_id,
			description = excluded.description,
			is_expense = excluded.is_expense,
			frequency = excluded.frequency,
			day_of_month = excluded.day_of_month,
			weekday = excluded.weekday,
			interval_days = excluded.interval_days,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active,
			last_run_at = excluded.last_run_at,
			next_run_at = excluded.next_run_at`,
		recurringArgs(businessID, r)...)
	if err != nil {
		return fmt.Errorf("upsert recurring: %w", err)
	}
	return nil
}

func (s *Store) DeleteRecurring(ctx context.Context, businessID, recurringID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteRecurring")
	defer span.End()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM recurrings WHERE business_id = ? AND id = ?`, businessID, recurringID); err != nil {
		return fmt.Errorf("delete recurring: %w", err)
	}
	return nil
}

// recurringArgs keys the row by businessID, so a rule read back always
// carries the business it is stored under.
func recurringArgs(businessID string, r *domain.Recurring) []any {
	return []any{
		r.ID, businessID, r.AccountID, r.Amount, r.CategoryID, r.Description, boolInt(r.IsExpense),
		string(r.Frequency), nullInt(r.DayOfMonth), nullInt(r.Weekday), nullInt(r.IntervalDays),
		r.StartDate, r.EndDate, boolInt(r.Active), nullInt64(r.LastRunAt), nullInt64(r.NextRunAt),
	}
}

func scanRecurring(row scanner) (domain.Recurring, error) {
	var r domain.Recurring
	var (
		frequency                        string
		isExpense, active                int
		dayOfMonth, weekday, intervalDay sql.NullInt64
		lastRunAt, nextRunAt             sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.BusinessID, &r.AccountID, &r.Amount, &r.CategoryID, &r.Description, &isExpense,
		&frequency, &dayOfMonth, &weekday, &intervalDay, &r.StartDate, &r.EndDate, &active, &lastRunAt, &nextRunAt); err != nil {
		return r, fmt.Errorf("scan recurring: %w", err)
	}
	r.Frequency = domain.Frequency(frequency)
	r.IsExpense = isExpense != 0
	r.Active = active != 0
	r.DayOfMonth = intPtr(dayOfMonth)
	r.Weekday = intPtr(weekday)
	r.IntervalDays = intPtr(intervalDay)
	r.LastRunAt = int64Ptr(lastRunAt)
	r.NextRunAt = int64Ptr(nextRunAt)
	return r, nil
}
