package cli

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// InsufficientHistory is printed in place of a NULL lookback figure
const InsufficientHistory = "insufficient history"

// FormatMoney renders an amount with the currency's symbol, grouping and minor units
func FormatMoney(value decimal.Decimal, code string) string {
	// money.New never returns a nil currency, unknown codes get a generic format
	cur := money.New(0, code).Currency()
	minor := value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatNullMoney renders a lookback amount, spelling out missing history
func FormatNullMoney(value decimal.NullDecimal, code string) string {
	if !value.Valid {
		return InsufficientHistory
	}
	return signed(value.Decimal, FormatMoney(value.Decimal, code))
}

// FormatPct renders a percentage with two decimals
func FormatPct(value decimal.Decimal) string {
	return value.StringFixed(2) + "%"
}

// FormatNullPct renders a lookback percentage, spelling out missing history
func FormatNullPct(value decimal.NullDecimal) string {
	if !value.Valid {
		return InsufficientHistory
	}
	return signed(value.Decimal, FormatPct(value.Decimal))
}

func signed(value decimal.Decimal, s string) string {
	if value.IsPositive() {
		return "+" + s
	}
	return s
}
