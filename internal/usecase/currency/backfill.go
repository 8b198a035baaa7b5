package currency

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
)

// BackfillService writes base-currency values onto position rows that lack them
type BackfillService struct {
	FundRepo     domain.FundRepository
	PositionRepo domain.PositionRepository
	Rates        RateSource

	batchSize int
	workers   int
	log       zerolog.Logger
}

// NewBackfillService creates a new BackfillService instance
func NewBackfillService(
	fundRepo domain.FundRepository,
	positionRepo domain.PositionRepository,
	rates RateSource,
	engine config.Engine,
	log zerolog.Logger,
) *BackfillService {
	return &BackfillService{
		FundRepo:     fundRepo,
		PositionRepo: positionRepo,
		Rates:        rates,
		batchSize:    engine.BackfillBatchSize,
		workers:      engine.BackfillWorkers,
		log:          log.With().Str("service", "backfill").Logger(),
	}
}

// Backfill converts every unconverted snapshot of a fund and returns how many rows it wrote
// Logic:
//   - Rows are read in pages, oldest observation first
//   - Each row is written by a single conditional update, so a rerun skips converted rows
//   - Cancellation is honoured between rows; a cancelled run keeps the rows already written
func (s *BackfillService) Backfill(ctx context.Context, fundID uuid.UUID) (int, error) {
	fund, err := s.FundRepo.GetByID(ctx, fundID)
	if err != nil {
		return 0, err
	}
	if !fund.HasBaseCurrency() {
		return 0, fmt.Errorf("fund %s: %w", fundID, domain.ErrBaseCurrencyUnset)
	}

	converter := NewConverter(newMemoRates(s.Rates))
	updated := 0

	for {
		page, err := s.PositionRepo.ListUnconverted(ctx, fundID, s.batchSize)
		if err != nil {
			return updated, fmt.Errorf("failed to list unconverted positions: %w", err)
		}
		if len(page) == 0 {
			break
		}

		written := 0
		for _, position := range page {
			if err := ctx.Err(); err != nil {
				s.log.Info().Str("fund", fundID.String()).Int("updated", updated).Msg("Backfill interrupted")
				return updated, err
			}

			if err := position.Validate(); err != nil {
				s.log.Error().Err(err).Str("position_id", position.ID.String()).Msg("Corrupt position row")
				return updated, err
			}

			values, err := converter.Convert(ctx, position, fund.BaseCurrency)
			if err != nil {
				return updated, err
			}

			ok, err := s.PositionRepo.SaveConversion(ctx, position.ID, values)
			if err != nil {
				return updated, fmt.Errorf("failed to save conversion for %s: %w", position.ID, err)
			}
			if ok {
				written++
			}
		}
		updated += written

		// Every row of the page was converted by someone else; nothing left to do
		if written == 0 || len(page) < s.batchSize {
			break
		}
	}

	s.log.Info().Str("fund", fundID.String()).Str("base", fund.BaseCurrency).Int("updated", updated).Msg("Backfill complete")
	return updated, nil
}

// BackfillAll backfills several funds concurrently, bounded by the configured worker count
// Funds share no rows, so they need no coordination beyond the result map
func (s *BackfillService) BackfillAll(ctx context.Context, fundIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	results := make(map[uuid.UUID]int, len(fundIDs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, fundID := range fundIDs {
		g.Go(func() error {
			n, err := s.Backfill(ctx, fundID)

			mu.Lock()
			results[fundID] = n
			mu.Unlock()

			if err != nil {
				return fmt.Errorf("backfill fund %s: %w", fundID, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
