package finance

import (
	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

// BalanceSummary is the derived balance of one account.
type BalanceSummary struct {
	Balance          decimal.Decimal
	TransactionCount int
	Currency         string
}

// AccountBalance computes the balance of one account over the entire
// transaction history, converting every transaction into accountCurrency.
// Balances are always full-history so per-account figures reconcile with the
// global total shown on the dashboard. An empty accountCurrency means the
// base currency. Rows with an unresolvable currency degrade per the table's
// fallback policy, they never fail the aggregation.
func AccountBalance(accountID int64, txs []core.Transaction, t *Table, accountCurrency string, diag *Diagnostics) BalanceSummary {
	if accountCurrency == "" {
		accountCurrency = t.Base()
	}
	sum := decimal.Zero
	count := 0
	for _, tx := range txs {
		if tx.AccountID != accountID {
			continue
		}
		v := t.Convert(tx.Amount, tx.Currency, accountCurrency, diag)
		if tx.Type == core.Outcome {
			v = v.Neg()
		}
		sum = sum.Add(v)
		count++
	}
	return BalanceSummary{Balance: sum, TransactionCount: count, Currency: accountCurrency}
}

// TotalBalance computes the single global balance over all transactions,
// expressed in display (base when empty). The same conversion path as
// AccountBalance, so the two reconcile for any ledger.
func TotalBalance(txs []core.Transaction, t *Table, display string, diag *Diagnostics) decimal.Decimal {
	if display == "" {
		display = t.Base()
	}
	sum := decimal.Zero
	for _, tx := range txs {
		v := t.Convert(tx.Amount, tx.Currency, display, diag)
		if tx.Type == core.Outcome {
			v = v.Neg()
		}
		sum = sum.Add(v)
	}
	return sum
}
