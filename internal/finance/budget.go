package finance

import (
	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

// BudgetStatus is the derived state of one budget for its month. Spent and
// Remaining are expressed in the budget's own currency; Percentage is capped
// at 100 for display, overage is communicated by IsExceeded.
type BudgetStatus struct {
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
	Percentage  float64
	IsExceeded  bool
	IsNearLimit bool
	Currency    string
}

// PeriodBounds returns the inclusive first and last day of a budget month.
func PeriodBounds(year, month int) (core.Date, core.Date) {
	return core.NewDate(year, month, 1), core.NewDate(year, month, core.DaysInMonth(year, month))
}

// EvaluateBudget computes spent/remaining/percentage and the alert flags for
// one budget. Outcome transactions matching the budget's category inside the
// budget month are summed in the base currency, compared against the budget
// amount in base, then re-expressed in the budget's currency for display.
func EvaluateBudget(b core.Budget, txs []core.Transaction, t *Table, diag *Diagnostics) BudgetStatus {
	start, end := PeriodBounds(b.Year, b.Month)

	spentBase := decimal.Zero
	for _, tx := range txs {
		if tx.Type != core.Outcome || tx.CategoryID != b.CategoryID {
			continue
		}
		if tx.Date.Time.Before(start.Time) || tx.Date.Time.After(end.Time) {
			continue
		}
		spentBase = spentBase.Add(t.ToBase(tx.Amount, tx.Currency, diag))
	}

	budgetBase := t.ToBase(b.Amount, b.Currency, diag)
	remainingBase := budgetBase.Sub(spentBase)

	percentage := 0.0
	if budgetBase.IsPositive() {
		percentage = spentBase.Div(budgetBase).InexactFloat64() * 100
		if percentage < 0 {
			percentage = 0
		}
		if percentage > 100 {
			percentage = 100
		}
	}

	return BudgetStatus{
		Spent:       t.Convert(spentBase, t.Base(), b.Currency, diag),
		Remaining:   t.Convert(remainingBase, t.Base(), b.Currency, diag),
		Percentage:  percentage,
		IsExceeded:  spentBase.GreaterThan(budgetBase),
		IsNearLimit: percentage >= b.Threshold(),
		Currency:    b.Currency,
	}
}
