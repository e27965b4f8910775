// Package finance implements the multi-currency aggregation engine: currency
// conversion through a base currency, account balances, budget status, goal
// progress, report series and recurring-transaction materialization.
//
// Everything in this package is a pure function over an immutable snapshot of
// the user's data. Conversion anomalies (missing rates, references to deleted
// currencies) never abort an aggregate; they degrade to the base currency and
// are recorded in a Diagnostics collector so callers can observe which rows
// were affected.
package finance

import (
	"strings"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

const (
	AnomalyMissingRate AnomalyKind = "missing_rate"
	AnomalyDanglingRef AnomalyKind = "dangling_reference"
)

type (
	AnomalyKind string

	// Anomaly describes one degraded conversion.
	Anomaly struct {
		Kind   AnomalyKind
		Code   string
		Detail string
	}

	// Diagnostics accumulates anomalies during an aggregation pass. A nil
	// *Diagnostics is valid and discards everything.
	Diagnostics struct {
		anomalies []Anomaly
	}

	// Table is a snapshot of the user's currency ledger keyed by code. The
	// base currency is the row flagged as default; its rate is forced to 1
	// regardless of what was stored.
	Table struct {
		base  string
		rates map[string]decimal.Decimal
		known map[string]struct{}
	}
)

func (d *Diagnostics) record(kind AnomalyKind, code, detail string) {
	if d == nil {
		return
	}
	d.anomalies = append(d.anomalies, Anomaly{Kind: kind, Code: code, Detail: detail})
}

// Anomalies returns everything recorded so far.
func (d *Diagnostics) Anomalies() []Anomaly {
	if d == nil {
		return nil
	}
	return d.anomalies
}

// Count returns the number of anomalies of the given kind.
func (d *Diagnostics) Count(kind AnomalyKind) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, a := range d.anomalies {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// NewTable builds a conversion table from the user's currencies. Rows with a
// non-positive rate are remembered as known codes but excluded from
// conversion, so they surface as missing_rate rather than dangling_reference.
func NewTable(currencies []core.Currency) *Table {
	t := &Table{
		rates: make(map[string]decimal.Decimal, len(currencies)),
		known: make(map[string]struct{}, len(currencies)),
	}
	for _, c := range currencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			continue
		}
		t.known[code] = struct{}{}
		if c.IsDefault && t.base == "" {
			t.base = code
			t.rates[code] = decimal.NewFromInt(1)
			continue
		}
		if c.ExchangeRate.IsPositive() {
			t.rates[code] = c.ExchangeRate
		}
	}
	// A ledger without a default row still needs a pivot; fall back to the
	// first usable code so aggregation keeps working.
	if t.base == "" {
		for _, c := range currencies {
			code := strings.ToUpper(strings.TrimSpace(c.Code))
			if code != "" {
				t.base = code
				t.rates[code] = decimal.NewFromInt(1)
				break
			}
		}
	}
	return t
}

// Base returns the base currency code. Empty only for an empty ledger.
func (t *Table) Base() string { return t.base }

// Rate returns the stored rate for a code when it is usable for conversion.
func (t *Table) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.rates[strings.ToUpper(code)]
	return r, ok
}

// Has reports whether the code exists in the ledger at all, usable or not.
func (t *Table) Has(code string) bool {
	_, ok := t.known[strings.ToUpper(code)]
	return ok
}

// Convert converts an amount between two currency codes by pivoting through
// the base currency. Equal codes return the amount untouched. A hop whose
// rate cannot be resolved is skipped (the amount is treated as already being
// in the base currency) and the anomaly is recorded; Convert never fails.
func (t *Table) Convert(amount decimal.Decimal, from, to string, diag *Diagnostics) decimal.Decimal {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount
	}

	base := amount
	if from != t.base {
		if r, ok := t.Rate(from); ok {
			base = amount.Div(r)
		} else {
			diag.record(t.anomalyKind(from), from, "source rate unresolved, amount kept in base currency")
		}
	}

	out := base
	if to != t.base {
		if r, ok := t.Rate(to); ok {
			out = base.Mul(r)
		} else {
			diag.record(t.anomalyKind(to), to, "target rate unresolved, amount kept in base currency")
		}
	}
	return out
}

// ToBase converts an amount from the given currency into the base currency.
func (t *Table) ToBase(amount decimal.Decimal, from string, diag *Diagnostics) decimal.Decimal {
	return t.Convert(amount, from, t.base, diag)
}

func (t *Table) anomalyKind(code string) AnomalyKind {
	if code == "" || !t.Has(code) {
		return AnomalyDanglingRef
	}
	return AnomalyMissingRate
}

// signedBase converts a transaction amount to the base currency and applies
// the income/outcome sign.
func signedBase(tx core.Transaction, t *Table, diag *Diagnostics) decimal.Decimal {
	v := t.ToBase(tx.Amount, tx.Currency, diag)
	if tx.Type == core.Outcome {
		return v.Neg()
	}
	return v
}
