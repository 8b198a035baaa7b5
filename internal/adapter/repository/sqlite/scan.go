package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/fundlens-backend/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const positionColumns = `
	id, fund_id, ticker, shares, price, cost_basis, currency, observed_at,
	total_value_base, cost_basis_base, pnl_base, exchange_rate, rate_source, rate_observed_at
`

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func dayKey(t time.Time) string {
	return domain.DayOf(t).Format(domain.DateLayout)
}

func scanPosition(row rowScanner) (*domain.PositionSnapshot, error) {
	var p domain.PositionSnapshot
	var sharesStr, priceStr, costStr string
	var observedAt int64
	var totalBase, costBase, pnlBase, rate, source sql.NullString
	var rateObservedAt sql.NullInt64

	err := row.Scan(
		&p.ID,
		&p.FundID,
		&p.Ticker,
		&sharesStr,
		&priceStr,
		&costStr,
		&p.Currency,
		&observedAt,
		&totalBase,
		&costBase,
		&pnlBase,
		&rate,
		&source,
		&rateObservedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ObservedAt = fromNanos(observedAt)

	if p.Shares, err = decimal.NewFromString(sharesStr); err != nil {
		return nil, fmt.Errorf("failed to parse shares: %w", err)
	}
	if p.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	if p.CostBasis, err = decimal.NewFromString(costStr); err != nil {
		return nil, fmt.Errorf("failed to parse cost_basis: %w", err)
	}

	if !totalBase.Valid {
		return &p, nil
	}

	values := &domain.ConvertedValues{RateSource: domain.RateSource(source.String)}
	if values.TotalValueBase, err = decimal.NewFromString(totalBase.String); err != nil {
		return nil, fmt.Errorf("failed to parse total_value_base: %w", err)
	}
	if values.CostBasisBase, err = parseNullDecimal(costBase); err != nil {
		return nil, fmt.Errorf("failed to parse cost_basis_base: %w", err)
	}
	if values.PnLBase, err = parseNullDecimal(pnlBase); err != nil {
		return nil, fmt.Errorf("failed to parse pnl_base: %w", err)
	}
	if values.ExchangeRate, err = parseNullDecimal(rate); err != nil {
		return nil, fmt.Errorf("failed to parse exchange_rate: %w", err)
	}
	if rateObservedAt.Valid {
		at := fromNanos(rateObservedAt.Int64)
		values.RateObservedAt = &at
	}
	p.Converted = values

	return &p, nil
}

func scanPositions(rows *sql.Rows) ([]*domain.PositionSnapshot, error) {
	defer rows.Close()

	snapshots := make([]*domain.PositionSnapshot, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		snapshots = append(snapshots, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return snapshots, nil
}

func parseNullDecimal(s sql.NullString) (decimal.Decimal, error) {
	if !s.Valid {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s.String)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toNanos(*t)
}
