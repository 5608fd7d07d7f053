package commands

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatMoney renders amount in currency with its symbol and grouping.
func formatMoney(amount decimal.Decimal, currency string) string {
	// money.New never returns a nil currency, unlike GetCurrency.
	cur := *money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
