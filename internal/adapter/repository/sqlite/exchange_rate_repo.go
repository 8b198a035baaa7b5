package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

type exchangeRateRepository struct {
	db *DB
}

// NewExchangeRateRepository creates a new exchange rate repository
func NewExchangeRateRepository(db *DB) domain.ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) Add(ctx context.Context, rate *domain.ExchangeRateObservation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (id, from_currency, to_currency, rate, observed_at) VALUES (?, ?, ?, ?, ?)`,
		rate.ID, rate.FromCurrency, rate.ToCurrency, rate.Rate.String(), toNanos(rate.ObservedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert exchange rate: %w", err)
	}
	return nil
}

func (r *exchangeRateRepository) LatestAtOrBefore(ctx context.Context, from, to string, at time.Time) (*domain.ExchangeRateObservation, error) {
	query := `
		SELECT id, from_currency, to_currency, rate, observed_at
		FROM exchange_rates
		WHERE from_currency = ? AND to_currency = ? AND observed_at <= ?
		ORDER BY observed_at DESC, id DESC
		LIMIT 1
	`

	var obs domain.ExchangeRateObservation
	var rateStr string
	var observedAt int64

	err := r.db.QueryRowContext(ctx, query, from, to, toNanos(at)).
		Scan(&obs.ID, &obs.FromCurrency, &obs.ToCurrency, &rateStr, &observedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no %s rate at or before %s: %w", domain.PairKey(from, to), at.Format(time.RFC3339), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	obs.ObservedAt = fromNanos(observedAt)

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate: %w", err)
	}
	obs.Rate = rate

	return &obs, nil
}
