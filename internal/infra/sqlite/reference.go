package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

// ============================================================
// Reference data
// ============================================================

func (s *Store) ListAccounts(ctx context.Context, businessID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListAccounts")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, category, is_active FROM accounts WHERE business_id = ? ORDER BY position`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var (
			a      domain.Account
			active int
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Category, &active); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.IsActive = active != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveAccounts replaces the business's account list.
func (s *Store) SaveAccounts(ctx context.Context, businessID string, accounts []domain.Account) error {
	ctx, span := tracer.Start(ctx, "SQLite.SaveAccounts")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE business_id = ?`, businessID); err != nil {
			return fmt.Errorf("clear accounts: %w", err)
		}
		for i, a := range accounts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO accounts (business_id, id, name, type, category, is_active, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				businessID, a.ID, a.Name, a.Type, a.Category, boolInt(a.IsActive), i); err != nil {
				return fmt.Errorf("insert account %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) ListCategories(ctx context.Context, businessID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListCategories")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, business_relevant FROM categories WHERE business_id = ? ORDER BY position`, businessID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var (
			c        domain.Category
			relevant int
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &relevant); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.BusinessRelevant = relevant != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCategories replaces the business's category list.
func (s *Store) SaveCategories(ctx context.Context, businessID string, categories []domain.Category) error {
	ctx, span := tracer.Start(ctx, "SQLite.SaveCategories")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE business_id = ?`, businessID); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for i, c := range categories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO categories (business_id, id, name, type, business_relevant, position) VALUES (?, ?, ?, ?, ?, ?)`,
				businessID, c.ID, c.Name, c.Type, boolInt(c.BusinessRelevant), i); err != nil {
				return fmt.Errorf("insert category %s: %w", c.ID, err)
			}
		}
		return nil
	})
}
