package ownership

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/config"
	"github.com/simaogato/fundlens-backend/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ValuePlaces is the precision of the per-contributor value split
const ValuePlaces = 2

// Valuer reports how much a fund's holdings gained or lost, in base currency,
// between two instants, excluding trades made in between
type Valuer interface {
	MarketMovement(ctx context.Context, fundID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

// foldState is the running projection of a fund ledger
type foldState struct {
	applied    int       // number of ledger records folded in
	lastID     uuid.UUID // ID of the last folded record
	units      map[string]decimal.Decimal
	net        map[string]decimal.Decimal
	totalUnits decimal.Decimal
	value      decimal.Decimal // net money paid in plus market movement since
	valuedAt   time.Time       // instant value was last brought up to date
}

func newFoldState() *foldState {
	return &foldState{
		units: make(map[string]decimal.Decimal),
		net:   make(map[string]decimal.Decimal),
	}
}

// nav is the value of one unit, 1.0 while no units are outstanding
func (s *foldState) nav() decimal.Decimal {
	if !s.totalUnits.IsPositive() || !s.value.IsPositive() {
		return one
	}
	return s.value.Div(s.totalUnits)
}

// Engine projects the contributor ledger into per-contributor ownership
type Engine struct {
	ContributionRepo domain.ContributionRepository
	Valuer           Valuer

	tolerance decimal.Decimal
	now       func() time.Time
	log       zerolog.Logger

	mu    sync.Mutex
	cache map[uuid.UUID]*foldState
}

// NewEngine creates a new Engine instance
func NewEngine(contributionRepo domain.ContributionRepository, valuer Valuer, cfg config.Engine, log zerolog.Logger) *Engine {
	return &Engine{
		ContributionRepo: contributionRepo,
		Valuer:           valuer,
		tolerance:        cfg.OwnershipTolerancePct,
		now:              time.Now,
		log:              log.With().Str("service", "ownership").Logger(),
		cache:            make(map[uuid.UUID]*foldState),
	}
}

// Invalidate drops the memoized projection of a fund
func (e *Engine) Invalidate(fundID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cache, fundID)
}

// Ownership returns the current stake of every contributor holding units in a fund
// Contributors whose net contribution is <= 0 are omitted; a fund with no units
// outstanding returns an empty map
func (e *Engine) Ownership(ctx context.Context, fundID uuid.UUID) (map[string]domain.Stake, error) {
	state, err := e.project(ctx, fundID)
	if err != nil {
		return nil, err
	}

	stakes, err := e.stakes(fundID, state)
	if err != nil {
		return nil, err
	}
	if len(stakes) == 0 {
		return stakes, nil
	}

	movement, err := e.Valuer.MarketMovement(ctx, fundID, state.valuedAt, e.now())
	if err != nil {
		return nil, fmt.Errorf("failed to value fund %s: %w", fundID, err)
	}
	current := state.value.Add(movement)
	if current.IsNegative() {
		current = decimal.Zero
	}

	weights := make(map[string]decimal.Decimal, len(stakes))
	for contributor, stake := range stakes {
		weights[contributor] = stake.Units
	}
	values, err := SplitValue(current, weights, ValuePlaces)
	if err != nil {
		return nil, err
	}
	for contributor, stake := range stakes {
		stake.Value = values[contributor]
		stakes[contributor] = stake
	}

	return stakes, nil
}

// project returns the fold of the full ledger, reusing the memoized prefix when possible
func (e *Engine) project(ctx context.Context, fundID uuid.UUID) (*foldState, error) {
	records, err := e.ContributionRepo.ListByFund(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for fund %s: %w", fundID, err)
	}

	e.mu.Lock()
	cached := e.cache[fundID]
	e.mu.Unlock()

	state := newFoldState()
	start := 0
	if cached != nil && cached.applied <= len(records) && (cached.applied == 0 || records[cached.applied-1].ID == cached.lastID) {
		if cached.applied == len(records) {
			return cached, nil
		}
		state = cached.clone()
		start = cached.applied
	}

	for _, rec := range records[start:] {
		if err := e.apply(ctx, state, rec); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	e.cache[fundID] = state
	e.mu.Unlock()

	return state, nil
}

// apply folds one ledger record into the running state
// Logic:
//  1. Carry the fund value forward by the market movement since the last event
//  2. NAV = value / units outstanding, 1.0 with no units
//  3. CONTRIBUTION mints amount/NAV units, WITHDRAWAL burns them
//  4. A contributor whose net drops to <= 0 forfeits any residual units
//  5. With no units left the fund starts over from inception
func (e *Engine) apply(ctx context.Context, state *foldState, rec *domain.ContributionRecord) error {
	if state.totalUnits.IsPositive() {
		movement, err := e.Valuer.MarketMovement(ctx, rec.FundID, state.valuedAt, rec.RecordedAt)
		if err != nil {
			return fmt.Errorf("failed to value fund %s at %s: %w", rec.FundID, rec.RecordedAt.Format(time.RFC3339), err)
		}
		state.value = state.value.Add(movement)
	}
	if rec.RecordedAt.After(state.valuedAt) {
		state.valuedAt = rec.RecordedAt
	}

	nav := state.nav()
	units := rec.Amount.Div(nav)

	switch rec.Type {
	case domain.ContributionTypeContribution:
		state.units[rec.Contributor] = state.units[rec.Contributor].Add(units)
		state.totalUnits = state.totalUnits.Add(units)
		state.value = state.value.Add(rec.Amount)
	case domain.ContributionTypeWithdrawal:
		state.units[rec.Contributor] = state.units[rec.Contributor].Sub(units)
		state.totalUnits = state.totalUnits.Sub(units)
		state.value = state.value.Sub(rec.Amount)
	default:
		return domain.NewInvariantError(rec.FundID, "", domain.DayOf(rec.RecordedAt), "unknown ledger entry type "+string(rec.Type))
	}

	state.net[rec.Contributor] = state.net[rec.Contributor].Add(rec.SignedAmount())

	if !state.net[rec.Contributor].IsPositive() {
		residual := state.units[rec.Contributor]
		if !residual.IsZero() {
			e.log.Debug().
				Str("fund", rec.FundID.String()).
				Str("contributor", rec.Contributor).
				Str("units", residual.String()).
				Msg("Contributor left the fund, residual units forfeited")
		}
		state.totalUnits = state.totalUnits.Sub(residual)
		delete(state.units, rec.Contributor)
	}

	if !state.totalUnits.IsPositive() || state.value.IsNegative() {
		state.value = decimal.Zero
	}

	state.applied++
	state.lastID = rec.ID
	return nil
}

// stakes turns the projection into reportable stakes and checks the invariants
func (e *Engine) stakes(fundID uuid.UUID, state *foldState) (map[string]domain.Stake, error) {
	holders := make([]string, 0, len(state.units))
	outstanding := decimal.Zero
	for contributor, units := range state.units {
		if !state.net[contributor].IsPositive() {
			continue
		}
		if units.IsNegative() {
			err := domain.NewInvariantError(fundID, "", time.Time{}, fmt.Sprintf("contributor %s holds negative units %s", contributor, units))
			e.log.Error().Err(err).Msg("Ownership invariant violated")
			return nil, err
		}
		holders = append(holders, contributor)
		outstanding = outstanding.Add(units)
	}

	stakes := make(map[string]domain.Stake, len(holders))
	if !outstanding.IsPositive() {
		return stakes, nil
	}

	sort.Strings(holders)
	sum := decimal.Zero
	for _, contributor := range holders {
		units := state.units[contributor]
		pct := units.Div(outstanding).Mul(hundred)
		sum = sum.Add(pct)
		stakes[contributor] = domain.Stake{
			Contributor:     contributor,
			Units:           units,
			PctOfFund:       pct,
			NetContribution: state.net[contributor],
		}
	}

	if sum.Sub(hundred).Abs().GreaterThan(e.tolerance) {
		err := domain.NewInvariantError(fundID, "", time.Time{}, "ownership sums to "+sum.String()+"%")
		e.log.Error().Err(err).Msg("Ownership invariant violated")
		return nil, err
	}

	return stakes, nil
}

func (s *foldState) clone() *foldState {
	c := &foldState{
		applied:    s.applied,
		lastID:     s.lastID,
		units:      make(map[string]decimal.Decimal, len(s.units)),
		net:        make(map[string]decimal.Decimal, len(s.net)),
		totalUnits: s.totalUnits,
		value:      s.value,
		valuedAt:   s.valuedAt,
	}
	for k, v := range s.units {
		c.units[k] = v
	}
	for k, v := range s.net {
		c.net[k] = v
	}
	return c
}
