package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/boddenberg/moneta-ledger/internal/domain"
)

const activeBusinessKey = "active_business_id"

// ============================================================
// Businesses
// ============================================================

func (s *Store) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListBusinesses")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, currency, timezone, created_at, settings_json FROM businesses ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetBusiness")
	defer span.End()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, currency, timezone, created_at, settings_json FROM businesses WHERE id = ?`, businessID)
	b, err := scanBusiness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "business", ID: businessID}
	}
	return b, err
}

func (s *Store) AddBusiness(ctx context.Context, b *domain.Business) error {
	ctx, span := tracer.Start(ctx, "SQLite.AddBusiness")
	defer span.End()

	settings, err := encodeSettings(b.Settings)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO businesses (id, name, currency, timezone, created_at, settings_json) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Currency, b.Timezone, b.CreatedAt, settings)
	if isUniqueViolation(err) {
		return &domain.ErrConflict{Message: fmt.Sprintf("business %s already exists", b.ID)}
	}
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

func (s *Store) UpdateBusiness(ctx context.Context, b *domain.Business) error {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateBusiness")
	defer span.End()

	settings, err := encodeSettings(b.Settings)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO businesses (id, name, currency, timezone, created_at, settings_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			timezone = excluded.timezone,
			created_at = excluded.created_at,
			settings_json = excluded.settings_json`,
		b.ID, b.Name, b.Currency, b.Timezone, b.CreatedAt, settings)
	if err != nil {
		return fmt.Errorf("upsert business: %w", err)
	}
	return nil
}

// DeleteBusiness removes the business with every scoped dataset in one
// transaction.
func (s *Store) DeleteBusiness(ctx context.Context, businessID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteBusiness")
	defer span.End()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"recurrings", "transactions", "statements", "accounts", "categories"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE business_id = ?", businessID); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, businessID); err != nil {
			return fmt.Errorf("delete business: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM app_settings WHERE key = ? AND value = ?`, activeBusinessKey, businessID); err != nil {
			return fmt.Errorf("clear active business: %w", err)
		}
		return nil
	})
}

func (s *Store) GetActiveBusinessID(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetActiveBusinessID")
	defer span.End()

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, activeBusinessKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read active business: %w", err)
	}
	return id, nil
}

func (s *Store) SetActiveBusinessID(ctx context.Context, businessID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.SetActiveBusinessID")
	defer span.End()

	var err error
	if businessID == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM app_settings WHERE key = ?`, activeBusinessKey)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO app_settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			activeBusinessKey, businessID)
	}
	if err != nil {
		return fmt.Errorf("write active business: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row scanner) (*domain.Business, error) {
	var (
		b        domain.Business
		settings sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Currency, &b.Timezone, &b.CreatedAt, &settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan business: %w", err)
	}
	if settings.Valid && settings.String != "" {
		b.Settings = &domain.BusinessSettings{}
		if err := json.Unmarshal([]byte(settings.String), b.Settings); err != nil {
			return nil, fmt.Errorf("decode business settings: %w", err)
		}
	}
	return &b, nil
}

func encodeSettings(settings *domain.BusinessSettings) (sql.NullString, error) {
	if settings == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode business settings: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// isUniqueViolation matches the driver's constraint message rather than its
// numeric code so the store does not import driver internals.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
