package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// exchangeRateRepository implements domain.ExchangeRateRepository
type exchangeRateRepository struct {
	db *DB
}

// NewExchangeRateRepository creates a new exchange rate repository
func NewExchangeRateRepository(db *DB) domain.ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

// Add appends an exchange rate observation
func (r *exchangeRateRepository) Add(ctx context.Context, rate *domain.ExchangeRateObservation) error {
	query := `
		INSERT INTO exchange_rates (id, from_currency, to_currency, rate, observed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		rate.ID,
		rate.FromCurrency,
		rate.ToCurrency,
		rate.Rate.String(),
		rate.ObservedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert exchange rate: %w", err)
	}

	return nil
}

// LatestAtOrBefore retrieves the most recent observation for a pair at or before at
func (r *exchangeRateRepository) LatestAtOrBefore(ctx context.Context, from, to string, at time.Time) (*domain.ExchangeRateObservation, error) {
	query := `
		SELECT id, from_currency, to_currency, rate, observed_at
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND observed_at <= $3
		ORDER BY observed_at DESC, id DESC
		LIMIT 1
	`

	var obs domain.ExchangeRateObservation
	var rateStr string

	err := r.db.QueryRowContext(ctx, query, from, to, at.UTC()).Scan(
		&obs.ID,
		&obs.FromCurrency,
		&obs.ToCurrency,
		&rateStr,
		&obs.ObservedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no %s rate at or before %s: %w", domain.PairKey(from, to), at.Format(time.RFC3339), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	obs.ObservedAt = obs.ObservedAt.UTC()

	// Parse rate (NUMERIC)
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate: %w", err)
	}
	obs.Rate = rate

	return &obs, nil
}
