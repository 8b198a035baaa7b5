package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

// BaseCurrencySeeder assigns a default base currency to funds created without one
// Pre-conversion refuses to run for such funds, so this runs once at startup
type BaseCurrencySeeder struct {
	repo     domain.FundRepository
	currency string
	log      zerolog.Logger
}

// NewBaseCurrencySeeder creates a new BaseCurrencySeeder instance
func NewBaseCurrencySeeder(repo domain.FundRepository, currency string, log zerolog.Logger) *BaseCurrencySeeder {
	return &BaseCurrencySeeder{
		repo:     repo,
		currency: strings.ToUpper(strings.TrimSpace(currency)),
		log:      log.With().Str("service", "seeder").Logger(),
	}
}

// Seed ensures every fund has a base currency and returns how many funds it updated
// Funds that already have one are left untouched
func (s *BaseCurrencySeeder) Seed(ctx context.Context) (int, error) {
	if len(s.currency) != 3 {
		return 0, errors.New("default base currency must be a 3-letter code")
	}

	funds, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list funds: %w", err)
	}

	updated := 0
	for _, fund := range funds {
		if fund.HasBaseCurrency() {
			continue
		}

		if err := s.repo.SetBaseCurrency(ctx, fund.ID, s.currency); err != nil {
			return updated, fmt.Errorf("failed to set base currency of fund %s: %w", fund.ID, err)
		}
		updated++

		s.log.Info().Str("fund", fund.ID.String()).Str("base", s.currency).Msg("Assigned default base currency")
	}

	return updated, nil
}
