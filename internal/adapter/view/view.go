// Package view holds the wire representation shared by the gRPC and HTTP adapters.
// Decimals travel as strings; insufficient history travels as null, never 0.
package view

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
	"github.com/simaogato/fundlens-backend/internal/usecase/valuation"
)

// PnLReport is the wire form of domain.PnLReport
type PnLReport struct {
	FundID       string `json:"fund_id"`
	Ticker       string `json:"ticker"`
	Currency     string `json:"currency"`
	Shares       string `json:"shares"`
	CurrentPrice string `json:"current_price"`
	CurrentDate  string `json:"current_date"`
	CostBasis    string `json:"cost_basis"`
	MarketValue  string `json:"market_value"`

	DailyPnL      *string `json:"daily_pnl"`
	DailyPnLPct   *string `json:"daily_pnl_pct"`
	DailyPrevDate *string `json:"daily_prev_date"`

	FiveDayPnL         *string `json:"five_day_pnl"`
	FiveDayPnLPct      *string `json:"five_day_pnl_pct"`
	FiveDayPrevDate    *string `json:"five_day_prev_date"`
	FiveDayPeriodDays  *int    `json:"five_day_period_days"`
	FiveDayApproximate bool    `json:"five_day_approximate"`

	TotalUnrealizedPnL string `json:"total_unrealized_pnl"`
	ReturnPct          string `json:"return_pct"`
}

// Holding is the wire form of one valued position
type Holding struct {
	Ticker      string `json:"ticker"`
	Currency    string `json:"currency"`
	MarketValue string `json:"market_value"`
	ValueBase   string `json:"value_base"`
	RateSource  string `json:"rate_source"`
	Stored      bool   `json:"stored"`
}

// FundValue is the wire form of valuation.FundValuation
type FundValue struct {
	FundID       string     `json:"fund_id"`
	BaseCurrency string     `json:"base_currency"`
	Total        string     `json:"total"`
	Estimated    bool       `json:"estimated"`
	Holdings     []*Holding `json:"holdings"`
}

// Stake is the wire form of domain.Stake
type Stake struct {
	Contributor     string `json:"contributor"`
	Units           string `json:"units"`
	PctOfFund       string `json:"pct_of_fund"`
	NetContribution string `json:"net_contribution"`
	Value           string `json:"value"`
}

// NewPnLReport converts a domain report
func NewPnLReport(r *domain.PnLReport) *PnLReport {
	return &PnLReport{
		FundID:             r.FundID.String(),
		Ticker:             r.Ticker,
		Currency:           r.Currency,
		Shares:             r.Shares.String(),
		CurrentPrice:       r.CurrentPrice.String(),
		CurrentDate:        r.CurrentDate.Format(domain.DateLayout),
		CostBasis:          r.CostBasis.String(),
		MarketValue:        r.MarketValue.String(),
		DailyPnL:           nullable(r.DailyPnL),
		DailyPnLPct:        nullable(r.DailyPnLPct),
		DailyPrevDate:      dayString(r.DailyPrevDate),
		FiveDayPnL:         nullable(r.FiveDayPnL),
		FiveDayPnLPct:      nullable(r.FiveDayPnLPct),
		FiveDayPrevDate:    dayString(r.FiveDayPrevDate),
		FiveDayPeriodDays:  r.FiveDayPeriodDays,
		FiveDayApproximate: r.FiveDayApproximate(),
		TotalUnrealizedPnL: r.TotalUnrealizedPnL.String(),
		ReturnPct:          r.ReturnPct.String(),
	}
}

// NewPnLReports converts a list of domain reports, keeping their order
func NewPnLReports(reports []*domain.PnLReport) []*PnLReport {
	out := make([]*PnLReport, 0, len(reports))
	for _, r := range reports {
		out = append(out, NewPnLReport(r))
	}
	return out
}

// NewFundValue converts a fund valuation
func NewFundValue(v *valuation.FundValuation) *FundValue {
	holdings := make([]*Holding, 0, len(v.Holdings))
	for _, h := range v.Holdings {
		holdings = append(holdings, &Holding{
			Ticker:      h.Ticker,
			Currency:    h.Currency,
			MarketValue: h.MarketValue.String(),
			ValueBase:   h.ValueBase.String(),
			RateSource:  string(h.RateSource),
			Stored:      h.Stored,
		})
	}
	return &FundValue{
		FundID:       v.FundID.String(),
		BaseCurrency: v.BaseCurrency,
		Total:        v.Total.String(),
		Estimated:    v.Estimated,
		Holdings:     holdings,
	}
}

// NewStakes converts an ownership map into a list sorted by contributor
func NewStakes(stakes map[string]domain.Stake) []*Stake {
	out := make([]*Stake, 0, len(stakes))
	for _, s := range stakes {
		out = append(out, &Stake{
			Contributor:     s.Contributor,
			Units:           s.Units.String(),
			PctOfFund:       s.PctOfFund.StringFixed(4),
			NetContribution: s.NetContribution.String(),
			Value:           s.Value.StringFixed(2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contributor < out[j].Contributor })
	return out
}

func nullable(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func dayString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateLayout)
	return &s
}
