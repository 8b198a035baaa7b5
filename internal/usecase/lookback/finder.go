package lookback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/positions"
)

// Policy selects how a comparison snapshot is chosen inside the window
type Policy int

const (
	// NearestBefore takes the most recent snapshot strictly before the as-of day
	NearestBefore Policy = iota
	// ClosestToTarget takes the snapshot closest to as-of minus the target offset,
	// preferring the earlier date on ties
	ClosestToTarget
)

func (p Policy) String() string {
	switch p {
	case NearestBefore:
		return "nearest-before"
	case ClosestToTarget:
		return "closest-to-target"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Window is the tolerance of a lookup, in calendar days before the as-of day
// A snapshot qualifies when MinDays <= asOf - date <= MaxDays
type Window struct {
	Policy  Policy
	MinDays int
	MaxDays int
}

// DailyWindow is the 1-day P&L window of the engine configuration
func DailyWindow(cfg config.Engine) Window {
	return Window{Policy: NearestBefore, MinDays: 1, MaxDays: cfg.DailyMaxGapDays}
}

// FiveDayWindow is the 5-day P&L window of the engine configuration
func FiveDayWindow(cfg config.Engine) Window {
	return Window{Policy: ClosestToTarget, MinDays: cfg.FiveDayMinDays, MaxDays: cfg.FiveDayMaxDays}
}

// Match is the historical snapshot selected for a lookback
type Match struct {
	Price      decimal.Decimal
	Date       time.Time
	PeriodDays int // calendar days between Date and the as-of day
}

// Finder looks up historical comparison prices within a tolerance window
type Finder struct {
	PositionRepo domain.PositionRepository
	log          zerolog.Logger
}

// NewFinder creates a new Finder instance
func NewFinder(positionRepo domain.PositionRepository, log zerolog.Logger) *Finder {
	return &Finder{
		PositionRepo: positionRepo,
		log:          log.With().Str("service", "lookback").Logger(),
	}
}

// Find returns the comparison price for (fund, ticker) as of a day, or nil when
// no snapshot falls inside the window. The candidates are read with one bounded
// range query.
func (f *Finder) Find(ctx context.Context, fundID uuid.UUID, ticker string, asOf time.Time, targetOffsetDays int, w Window) (*Match, error) {
	asOfDay := domain.DayOf(asOf)
	from := asOfDay.AddDate(0, 0, -w.MaxDays)

	candidates, err := f.PositionRepo.ListRange(ctx, fundID, ticker, from, asOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookback range for %s: %w", ticker, err)
	}

	match := Select(candidates, asOfDay, targetOffsetDays, w)
	if match == nil {
		f.log.Debug().
			Str("fund", fundID.String()).
			Str("ticker", ticker).
			Str("as_of", asOfDay.Format(domain.DateLayout)).
			Str("policy", w.Policy.String()).
			Msg("No comparison price within window")
	}
	return match, nil
}

// Select applies the window policy to an already-loaded history
// Same-day duplicates are collapsed first (latest timestamp wins)
func Select(history []*domain.PositionSnapshot, asOf time.Time, targetOffsetDays int, w Window) *Match {
	asOfDay := domain.DayOf(asOf)
	minDays := w.MinDays
	if minDays < 1 {
		minDays = 1
	}

	var best *domain.PositionSnapshot
	bestGap := 0
	for _, snap := range positions.Dedupe(history) {
		gap := domain.DaysBetween(snap.Day(), asOfDay)
		if gap < minDays || gap > w.MaxDays {
			continue
		}

		if best == nil || better(w.Policy, gap, bestGap, targetOffsetDays) {
			best = snap
			bestGap = gap
		}
	}

	if best == nil {
		return nil
	}
	return &Match{
		Price:      best.Price,
		Date:       best.Day(),
		PeriodDays: bestGap,
	}
}

// better reports whether a candidate gap beats the current best gap
func better(policy Policy, gap, bestGap, target int) bool {
	switch policy {
	case ClosestToTarget:
		dist, bestDist := abs(gap-target), abs(bestGap-target)
		if dist != bestDist {
			return dist < bestDist
		}
		// Tie: the earlier date (larger gap) wins
		return gap > bestGap
	default:
		return gap < bestGap
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
