package positions

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/fundlens-backend/internal/domain"
)

// Resolver derives the current position per (fund, ticker) from the position history
type Resolver struct {
	PositionRepo domain.PositionRepository
	log          zerolog.Logger
}

// NewResolver creates a new Resolver instance
func NewResolver(positionRepo domain.PositionRepository, log zerolog.Logger) *Resolver {
	return &Resolver{
		PositionRepo: positionRepo,
		log:          log.With().Str("service", "positions").Logger(),
	}
}

// Latest returns the current open position for a (fund, ticker)
// Returns nil with no error for unknown tickers and for closed positions
func (r *Resolver) Latest(ctx context.Context, fundID uuid.UUID, ticker string) (*domain.PositionSnapshot, error) {
	history, err := r.PositionRepo.ListHistory(ctx, fundID, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", ticker, err)
	}

	return ResolveLatest(history)
}

// LatestAll returns the current open position of every ticker held by a fund
// Tickers whose most recent snapshot has zero shares are omitted
func (r *Resolver) LatestAll(ctx context.Context, fundID uuid.UUID) (map[string]*domain.PositionSnapshot, error) {
	snapshots, err := r.PositionRepo.ListByFund(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions for fund %s: %w", fundID, err)
	}

	byTicker := GroupByTicker(snapshots)
	latest := make(map[string]*domain.PositionSnapshot, len(byTicker))
	for ticker, history := range byTicker {
		snap, err := ResolveLatest(history)
		if err != nil {
			r.log.Error().Err(err).Str("fund", fundID.String()).Str("ticker", ticker).Msg("Corrupt position history")
			return nil, err
		}
		if snap == nil {
			continue
		}
		latest[ticker] = snap
	}

	return latest, nil
}

// ResolveLatest picks the current snapshot from one ticker's history
// Logic:
//  1. Collapse same-day duplicates, keeping the latest ObservedAt
//  2. Take the most recent day
//  3. A zero-share snapshot on that day means the position is closed (nil)
//
// Negative shares anywhere in the history are an invariant violation
func ResolveLatest(history []*domain.PositionSnapshot) (*domain.PositionSnapshot, error) {
	var latest *domain.PositionSnapshot
	for _, snap := range history {
		if snap.Shares.IsNegative() {
			return nil, domain.NewInvariantError(snap.FundID, snap.Ticker, snap.Day(), "negative shares "+snap.Shares.String())
		}
		if latest == nil || newer(snap, latest) {
			latest = snap
		}
	}

	if latest == nil || latest.IsClosed() {
		return nil, nil
	}
	return latest, nil
}

// Dedupe collapses same-day duplicates (latest ObservedAt wins) and sorts by day ascending
func Dedupe(history []*domain.PositionSnapshot) []*domain.PositionSnapshot {
	byDay := make(map[int64]*domain.PositionSnapshot, len(history))
	for _, snap := range history {
		key := snap.Day().Unix()
		if current, ok := byDay[key]; !ok || snap.ObservedAt.After(current.ObservedAt) {
			byDay[key] = snap
		}
	}

	out := make([]*domain.PositionSnapshot, 0, len(byDay))
	for _, snap := range byDay {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ObservedAt.Before(out[j].ObservedAt)
	})
	return out
}

// GroupByTicker splits a fund's snapshots by ticker, preserving order
func GroupByTicker(snapshots []*domain.PositionSnapshot) map[string][]*domain.PositionSnapshot {
	grouped := make(map[string][]*domain.PositionSnapshot)
	for _, snap := range snapshots {
		grouped[snap.Ticker] = append(grouped[snap.Ticker], snap)
	}
	return grouped
}

// newer orders snapshots by observation day, then by timestamp within the day
func newer(a, b *domain.PositionSnapshot) bool {
	dayA, dayB := a.Day(), b.Day()
	if !dayA.Equal(dayB) {
		return dayA.After(dayB)
	}
	return a.ObservedAt.After(b.ObservedAt)
}
