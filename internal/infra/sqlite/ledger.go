package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// ============================================================
// Live ledger
// ============================================================

const transactionColumns = `id, business_id, account_id, recurring_id, date, amount, category_id,
	description, notes, type, subscription_type, business_category, created_at`

func (s *Store) ListTransactions(ctx context.Context, businessID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListTransactions")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE business_id = ? ORDER BY rowid`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.BusinessID, &tx.AccountID, &tx.RecurringID, &tx.Date, &tx.Amount,
			&tx.CategoryID, &tx.Description, &tx.Notes, &tx.Type, &tx.SubscriptionType,
			&tx.BusinessCategory, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// AppendTransactions inserts the batch in one transaction. A duplicate id
// rejects the whole batch with *domain.ErrConflict.
func (s *Store) AppendTransactions(ctx context.Context, businessID string, txs []domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "SQLite.AppendTransactions")
	defer span.End()

	if len(txs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertTransactions(ctx, tx, businessID, txs)
	})
}

func (s *Store) UpdateTransaction(ctx context.Context, businessID string, t *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateTransaction")
	defer span.End()

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			account_id = ?, recurring_id = ?, date = ?, amount = ?, category_id = ?, description = ?,
			notes = ?, type = ?, subscription_type = ?, business_category = ?, created_at = ?
		WHERE business_id = ? AND id = ?`,
		t.AccountID, t.RecurringID, t.Date, t.Amount, t.CategoryID, t.Description,
		t.Notes, t.Type, t.SubscriptionType, t.BusinessCategory, t.CreatedAt,
		businessID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: t.ID}
	}
	return nil
}

func (s *Store) RemoveTransactions(ctx context.Context, businessID string, ids []string) error {
	ctx, span := tracer.Start(ctx, "SQLite.RemoveTransactions")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return deleteTransactions(ctx, tx, businessID, ids)
	})
}

func insertTransactions(ctx context.Context, tx *sql.Tx, businessID string, txs []domain.Transaction) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert transaction: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx, t.ID, businessID, t.AccountID, t.RecurringID, t.Date, t.Amount,
			t.CategoryID, t.Description, t.Notes, t.Type, t.SubscriptionType, t.BusinessCategory, t.CreatedAt)
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: fmt.Sprintf("transaction %s already exists", t.ID)}
		}
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

func deleteTransactions(ctx context.Context, tx *sql.Tx, businessID string, ids []string) error {
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM transactions WHERE business_id = ? AND id = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete transaction: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, businessID, id); err != nil {
			return fmt.Errorf("delete transaction %s: %w", id, err)
		}
	}
	return nil
}
