package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
)

// Rate is a resolved conversion rate together with the fallback tier that produced it
type Rate struct {
	Value      decimal.Decimal
	Source     domain.RateSource
	ObservedAt *time.Time
}

// RateResolver resolves point-in-time exchange rates with a fallback chain
type RateResolver struct {
	RateRepo domain.ExchangeRateRepository
	engine   config.Engine
	log      zerolog.Logger
}

// NewRateResolver creates a new RateResolver instance
func NewRateResolver(rateRepo domain.ExchangeRateRepository, engine config.Engine, log zerolog.Logger) *RateResolver {
	return &RateResolver{
		RateRepo: rateRepo,
		engine:   engine,
		log:      log.With().Str("service", "rates").Logger(),
	}
}

// Resolve returns the rate from -> to effective on a calendar day
// Logic:
//  1. Latest observation at or before the end of that day
//  2. EXACT when it was observed on the day itself, PRIOR otherwise
//  3. No observation at all: configured default for the pair (DEFAULT, logged)
//
// A stored non-positive rate is an invariant violation, never a fallback trigger
func (r *RateResolver) Resolve(ctx context.Context, from, to string, day time.Time) (Rate, error) {
	day = domain.DayOf(day)

	obs, err := r.RateRepo.LatestAtOrBefore(ctx, from, to, domain.EndOfDay(day))
	if errors.Is(err, domain.ErrNotFound) {
		rate := r.engine.DefaultRate(from, to)
		r.log.Warn().
			Str("pair", domain.PairKey(from, to)).
			Str("date", day.Format(domain.DateLayout)).
			Str("rate", rate.String()).
			Msg("No exchange rate observed, using default rate")
		return Rate{Value: rate, Source: domain.RateSourceDefault}, nil
	}
	if err != nil {
		return Rate{}, fmt.Errorf("failed to look up %s rate: %w", domain.PairKey(from, to), err)
	}

	if err := obs.Validate(); err != nil {
		r.log.Error().Err(err).Str("rate_id", obs.ID.String()).Msg("Corrupt exchange rate")
		return Rate{}, err
	}

	observedAt := obs.ObservedAt
	source := domain.RateSourcePrior
	if domain.DayOf(observedAt).Equal(day) {
		source = domain.RateSourceExact
	}

	return Rate{Value: obs.Rate, Source: source, ObservedAt: &observedAt}, nil
}
