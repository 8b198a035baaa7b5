package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// fundRepository implements domain.FundRepository
type fundRepository struct {
	db *DB
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *DB) domain.FundRepository {
	return &fundRepository{db: db}
}

// GetByID retrieves a fund by its ID
func (r *fundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fund, error) {
	query := `
		SELECT id, name, base_currency
		FROM funds
		WHERE id = $1
	`

	var fund domain.Fund
	var baseCurrency sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(&fund.ID, &fund.Name, &baseCurrency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fund %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fund by ID: %w", err)
	}
	fund.BaseCurrency = baseCurrency.String

	return &fund, nil
}

// List retrieves every fund ordered by name
func (r *fundRepository) List(ctx context.Context) ([]*domain.Fund, error) {
	query := `
		SELECT id, name, base_currency
		FROM funds
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
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

// Create creates a new fund
func (r *fundRepository) Create(ctx context.Context, fund *domain.Fund) error {
	query := `
		INSERT INTO funds (id, name, base_currency)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, fund.ID, fund.Name, nullString(fund.BaseCurrency))
	if err != nil {
		return fmt.Errorf("failed to create fund: %w", err)
	}

	return nil
}

// SetBaseCurrency assigns the base currency of a fund
func (r *fundRepository) SetBaseCurrency(ctx context.Context, id uuid.UUID, currency string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE funds SET base_currency = $2 WHERE id = $1`, id, currency)
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
