package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

type positionRepository struct {
	db *DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *DB) domain.PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) Add(ctx context.Context, p *domain.PositionSnapshot) error {
	query := `
		INSERT INTO position_snapshots (id, fund_id, ticker, shares, price, cost_basis, currency, observed_on, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.FundID,
		p.Ticker,
		p.Shares.String(),
		p.Price.String(),
		p.CostBasis.String(),
		p.Currency,
		dayKey(p.ObservedAt),
		toNanos(p.ObservedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert position snapshot: %w", err)
	}
	return nil
}

func (r *positionRepository) ListHistory(ctx context.Context, fundID uuid.UUID, ticker string) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = ? AND ticker = ?
		ORDER BY observed_on, observed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, fundID, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query position history: %w", err)
	}
	return scanPositions(rows)
}

func (r *positionRepository) ListRange(ctx context.Context, fundID uuid.UUID, ticker string, from, to time.Time) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = ? AND ticker = ? AND observed_on >= ? AND observed_on < ?
		ORDER BY observed_on, observed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, fundID, ticker, dayKey(from), dayKey(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query position range: %w", err)
	}
	return scanPositions(rows)
}

func (r *positionRepository) ListByFund(ctx context.Context, fundID uuid.UUID) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = ?
		ORDER BY ticker, observed_on, observed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund positions: %w", err)
	}
	return scanPositions(rows)
}

func (r *positionRepository) ListUnconverted(ctx context.Context, fundID uuid.UUID, limit int) ([]*domain.PositionSnapshot, error) {
	query := `SELECT ` + positionColumns + `
		FROM position_snapshots
		WHERE fund_id = ? AND total_value_base IS NULL
		ORDER BY observed_on, observed_at, id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, fundID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unconverted positions: %w", err)
	}
	return scanPositions(rows)
}

// SaveConversion writes every base-currency column in one statement, only while unset
func (r *positionRepository) SaveConversion(ctx context.Context, id uuid.UUID, v *domain.ConvertedValues) (bool, error) {
	query := `
		UPDATE position_snapshots
		SET total_value_base = ?,
			cost_basis_base = ?,
			pnl_base = ?,
			exchange_rate = ?,
			rate_source = ?,
			rate_observed_at = ?
		WHERE id = ? AND total_value_base IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		v.TotalValueBase.String(),
		v.CostBasisBase.String(),
		v.PnLBase.String(),
		v.ExchangeRate.String(),
		string(v.RateSource),
		nullNanos(v.RateObservedAt),
		id,
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
