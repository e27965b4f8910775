// Package core defines the domain entities and money handling for moneta.
//
// Amounts are shopspring decimals to keep arithmetic exact; float64 only
// appears at the edges (percentages, JSON display values).
package core

import (
	"strings"

	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive decimal amount from user input. Both dot and
// comma decimal separators are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseRate parses a positive exchange rate.
func ParseRate(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return d, nil
}

// FormatAmount renders an amount with the currency's symbol and minor-unit
// convention ("€1,234.50"). Unknown codes fall back to a plain fixed-point
// rendering with the code appended.
func FormatAmount(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return amount.StringFixed(2) + " " + strings.ToUpper(code)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// RoundAmount rounds to the currency's minor-unit precision, defaulting to
// two decimal places for unknown codes.
func RoundAmount(amount decimal.Decimal, code string) decimal.Decimal {
	places := int32(2)
	if cur := money.GetCurrency(strings.ToUpper(code)); cur != nil {
		places = int32(cur.Fraction)
	}
	return amount.Round(places)
}
