package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRateObservation is one observed conversion rate FromCurrency -> ToCurrency
// The effective rate at an instant is the latest observation at or before it
type ExchangeRateObservation struct {
	ID           uuid.UUID
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal // 1 FromCurrency = Rate ToCurrency
	ObservedAt   time.Time
}

// Validate ensures the observation adheres to domain rules
// CRITICAL: a non-positive rate is data corruption, not a missing rate
func (r *ExchangeRateObservation) Validate() error {
	if r.FromCurrency == "" || r.ToCurrency == "" {
		return errors.New("exchange rate currencies cannot be empty")
	}

	if !r.Rate.IsPositive() {
		return &InvariantError{
			Date:   DayOf(r.ObservedAt),
			Reason: "non-positive exchange rate " + r.Rate.String() + " for " + r.Pair(),
		}
	}

	return nil
}

// Pair returns the FROM:TO key used for rate lookups and configured defaults
func (r *ExchangeRateObservation) Pair() string {
	return PairKey(r.FromCurrency, r.ToCurrency)
}

// PairKey builds the FROM:TO key for a currency pair
func PairKey(from, to string) string {
	return from + ":" + to
}
