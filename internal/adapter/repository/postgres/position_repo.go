package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// positionRepository implements domain.PositionRepository
type positionRepository struct {
	db *DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *DB) domain.PositionRepository {
	return &positionRepository{db: db}
}

// Add appends a position snapshot
func (r *positionRepository) Add(ctx context.Context, p *domain.PositionSnapshot) error {
	query := `
		INSERT INTO position_snapshots (id, fund_id, ticker, shares, price, cost_basis, currency, observed_on, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.FundID,
		p.Ticker,
		p.Shares.String(),
		p.Price.String(),
		p.CostBasis.String(),
		p.Currency,
		p.Day(),
		p.ObservedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert position snapshot: %w", err)
	}

	return nil
}

// ListHistory retrieves every snapshot for a (fund, ticker)
func (r *positionRepository) ListHistory(ctx context.Context, fundID uuid.UUID, ticker string) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = $1 AND ticker = $2
		ORDER BY observed_on, observed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, fundID, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query position history: %w", err)
	}
	return scanPositions(rows)
}

// ListRange retrieves the snapshots whose day is in [from, to) with one indexed range scan
func (r *positionRepository) ListRange(ctx context.Context, fundID uuid.UUID, ticker string, from, to time.Time) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = $1 AND ticker = $2 AND observed_on >= $3 AND observed_on < $4
		ORDER BY observed_on, observed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, fundID, ticker, domain.DayOf(from), domain.DayOf(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query position range: %w", err)
	}
	return scanPositions(rows)
}

// ListByFund retrieves every snapshot of a fund
func (r *positionRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = $1
		ORDER BY ticker, observed_on, observed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund positions: %w", err)
	}
	return scanPositions(rows)
}

// ListUnconverted retrieves up to limit snapshots still missing their base-currency values
// The order is stable so an interrupted backfill resumes deterministically
func (r *positionRepository) ListUnconverted(ctx context.Context, fundID uuid.UUID, limit int) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = $1 AND total_value_base IS NULL
		ORDER BY observed_on, observed_at, id
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, fundID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unconverted positions: %w", err)
	}
	return scanPositions(rows)
}

// SaveConversion writes every base-currency column of one row in a single statement
// The row is only touched while total_value_base is still NULL
func (r *positionRepository) SaveConversion(ctx context.Context, id uuid.UUID, v *domain.ConvertedValues) (bool, error) {
	query := `
		UPDATE position_snapshots
		SET total_value_base = $2,
			cost_basis_base = $3,
			pnl_base = $4,
			exchange_rate = $5,
			rate_source = $6,
			rate_observed_at = $7
		WHERE id = $1 AND total_value_base IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		v.TotalValueBase.String(),
		v.CostBasisBase.String(),
		v.PnLBase.String(),
		v.ExchangeRate.String(),
		string(v.RateSource),
		nullTime(v.RateObservedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save conversion: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n == 1, nil
}
