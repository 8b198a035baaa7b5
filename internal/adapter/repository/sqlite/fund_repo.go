package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

type fundRepository struct {
	db *DB
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *DB) domain.FundRepository {
	return &fundRepository{db: db}
}

func (r *fundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fund, error) {
	var fund domain.Fund
	var baseCurrency sql.NullString

	err := r.db.QueryRowContext(ctx, `SELECT id, name, base_currency FROM funds WHERE id = ?`, id).
		Scan(&fund.ID, &fund.Name, &baseCurrency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fund %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fund by ID: %w", err)
	}
	fund.BaseCurrency = baseCurrency.String

	return &fund, nil
}

func (r *fundRepository) List(ctx context.Context) ([]*domain.Fund, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, base_currency FROM funds ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer rows.Close()

	funds := make([]*domain.Fund, 0)
	for rows.Next() {
		var fund domain.Fund
		var baseCurrency sql.NullString
		if err := rows.Scan(&fund.ID, &fund.Name, &baseCurrency); err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		fund.BaseCurrency = baseCurrency.String
		funds = append(funds, &fund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funds: %w", err)
	}

	return funds, nil
}

func (r *fundRepository) Create(ctx context.Context, fund *domain.Fund) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO funds (id, name, base_currency) VALUES (?, ?, ?)`,
		fund.ID, fund.Name, nullString(fund.BaseCurrency),
	)
	if err != nil {
		return fmt.Errorf("failed to create fund: %w", err)
	}
	return nil
}

func (r *fundRepository) SetBaseCurrency(ctx context.Context, id uuid.UUID, currency string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE funds SET base_currency = ? WHERE id = ?`, currency, id)
	if err != nil {
		return fmt.Errorf("failed to set base currency: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("fund %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
