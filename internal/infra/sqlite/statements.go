package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// ============================================================
// Statements
// ============================================================

func (s *Store) ListStatements(ctx context.Context, businessID string) ([]domain.MonthlyStatement, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListStatements")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_id, year, month, month_name, summary_json, transactions_json, archived_at
		FROM statements WHERE business_id = ? ORDER BY rowid`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlyStatement
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *stmt)
	}
	return out, rows.Err()
}

func (s *Store) GetStatement(ctx context.Context, businessID, statementID string) (*domain.MonthlyStatement, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetStatement")
	defer span.End()

	return getStatement(ctx, s.db, businessID, statementID)
}

// SaveArchive inserts the statement and removes its transactions from the
// live ledger in one transaction.
func (s *Store) SaveArchive(ctx context.Context, stmt *domain.MonthlyStatement) error {
	ctx, span := tracer.Start(ctx, "SQLite.SaveArchive")
	defer span.End()

	summary, err := json.Marshal(stmt.Summary)
	if err != nil {
		return fmt.Errorf("encode statement summary: %w", err)
	}
	txs, err := json.Marshal(stmt.Transactions)
	if err != nil {
		return fmt.Errorf("encode statement transactions: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO statements (id, business_id, year, month, month_name, summary_json, transactions_json, archived_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			stmt.ID, stmt.BusinessID, stmt.Year, stmt.Month, stmt.MonthName, string(summary), string(txs), stmt.ArchivedAt)
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: fmt.Sprintf("statement %s already archived", stmt.ID)}
		}
		if err != nil {
			return fmt.Errorf("insert statement: %w", err)
		}

		ids := make([]string, 0, len(stmt.Transactions))
		for _, t := range stmt.Transactions {
			ids = append(ids, t.ID)
		}
		return deleteTransactions(ctx, tx, stmt.BusinessID, ids)
	})
}

// RestoreArchive re-inserts the stored statement's transactions and deletes
// the statement in one transaction.
func (s *Store) RestoreArchive(ctx context.Context, stmt *domain.MonthlyStatement) error {
	ctx, span := tracer.Start(ctx, "SQLite.RestoreArchive")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stored, err := getStatement(ctx, tx, stmt.BusinessID, stmt.ID)
		if err != nil {
			return err
		}
		if err := insertTransactions(ctx, tx, stmt.BusinessID, stored.Transactions); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM statements WHERE business_id = ? AND id = ?`, stmt.BusinessID, stmt.ID); err != nil {
			return fmt.Errorf("delete statement: %w", err)
		}
		return nil
	})
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getStatement(ctx context.Context, q queryRower, businessID, statementID string) (*domain.MonthlyStatement, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, business_id, year, month, month_name, summary_json, transactions_json, archived_at
		FROM statements WHERE business_id = ? AND id = ?`, businessID, statementID)
	stmt, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "statement", ID: statementID}
	}
	return stmt, err
}

func scanStatement(row scanner) (*domain.MonthlyStatement, error) {
	var (
		stmt         domain.MonthlyStatement
		summary, txs string
	)
	if err := row.Scan(&stmt.ID, &stmt.BusinessID, &stmt.Year, &stmt.Month, &stmt.MonthName,
		&summary, &txs, &stmt.ArchivedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan statement: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &stmt.Summary); err != nil {
		return nil, fmt.Errorf("decode statement summary: %w", err)
	}
	if err := json.Unmarshal([]byte(txs), &stmt.Transactions); err != nil {
		return nil, fmt.Errorf("decode statement transactions: %w", err)
	}
	return &stmt, nil
}
