package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedCurrencies(t *testing.T, repo *SQLiteRepository, userID int64) (usdID, eurID int64) {
	t.Helper()
	ctx := context.Background()
	usdID, err := repo.CreateCurrency(ctx, core.Currency{
		UserID: userID, Code: "USD", Symbol: "$", IsDefault: true, ExchangeRate: dec("1"),
	})
	if err != nil {
		t.Fatalf("create USD: %v", err)
	}
	eurID, err = repo.CreateCurrency(ctx, core.Currency{
		UserID: userID, Code: "EUR", Symbol: "€", ExchangeRate: dec("0.9"),
	})
	if err != nil {
		t.Fatalf("create EUR: %v", err)
	}
	return usdID, eurID
}

func TestSetDefaultCurrency(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, eurID := seedCurrencies(t, repo, 1)

	if err := repo.SetDefaultCurrency(ctx, 1, eurID); err != nil {
		t.Fatalf("SetDefaultCurrency: %v", err)
	}

	currencies, err := repo.ListCurrencies(ctx, 1)
	if err != nil {
		t.Fatalf("ListCurrencies: %v", err)
	}
	defaults := 0
	for _, c := range currencies {
		if c.IsDefault {
			defaults++
			if c.Code != "EUR" {
				t.Errorf("default = %s, want EUR", c.Code)
			}
			if !c.ExchangeRate.Equal(dec("1")) {
				t.Errorf("default rate = %v, want 1", c.ExchangeRate)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("default count = %d, want exactly 1", defaults)
	}
}

func TestSetDefaultCurrency_UnknownID(t *testing.T) {
	repo := newTestRepo(t)
	seedCurrencies(t, repo, 1)

	err := repo.SetDefaultCurrency(context.Background(), 1, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateRates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCurrencies(t, repo, 1)

	updated, err := repo.UpdateRates(ctx, 1, map[string]decimal.Decimal{
		"EUR": dec("0.95"),
		"USD": dec("2"),   // default, must stay 1
		"JPY": dec("150"), // not in the ledger, ignored
	})
	if err != nil {
		t.Fatalf("UpdateRates: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	currencies, _ := repo.ListCurrencies(ctx, 1)
	for _, c := range currencies {
		switch c.Code {
		case "USD":
			if !c.ExchangeRate.Equal(dec("1")) {
				t.Errorf("USD rate = %v, want 1 (default never updated)", c.ExchangeRate)
			}
		case "EUR":
			if !c.ExchangeRate.Equal(dec("0.95")) {
				t.Errorf("EUR rate = %v, want 0.95", c.ExchangeRate)
			}
		}
	}
}

func TestTransactionCurrencyResolution(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, eurID := seedCurrencies(t, repo, 1)

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:   1,
		Type:     core.Outcome,
		Amount:   dec("45.00"),
		Currency: "EUR",
		Date:     core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", got.Currency)
	}
	if !got.Amount.Equal(dec("45.00")) {
		t.Errorf("amount = %v, want 45.00", got.Amount)
	}
	if got.Date.Format("2006-01-02") != "2024-03-10" {
		t.Errorf("date = %s, want 2024-03-10", got.Date.Format("2006-01-02"))
	}

	// The code snapshot keeps resolving after the currency row is deleted.
	if err := repo.DeleteCurrency(ctx, 1, eurID); err != nil {
		t.Fatalf("DeleteCurrency: %v", err)
	}
	got, err = repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction after delete: %v", err)
	}
	if got.Currency != "EUR" {
		t.Errorf("currency after delete = %q, want EUR", got.Currency)
	}
}

func TestSoftDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCurrencies(t, repo, 1)

	id, _ := repo.CreateTransaction(ctx, core.Transaction{
		UserID: 1, Type: core.Income, Amount: dec("10"), Currency: "USD",
		Date: core.NewDate(2024, 1, 5),
	})

	if err := repo.SoftDeleteTransaction(ctx, 1, id); err != nil {
		t.Fatalf("SoftDeleteTransaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTransaction after soft delete = %v, want ErrNotFound", err)
	}
	if err := repo.SoftDeleteTransaction(ctx, 1, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}

	txs, err := repo.ListTransactions(ctx, 1)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("ListTransactions returned %d rows, want 0", len(txs))
	}
}

func TestListTransactionsBetween(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedCurrencies(t, repo, 1)

	for _, day := range []int{5, 15, 25} {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID: 1, Type: core.Outcome, Amount: dec("1"), Currency: "USD",
			Date: core.NewDate(2024, 6, day),
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	txs, err := repo.ListTransactionsBetween(ctx, 1, core.NewDate(2024, 6, 10), core.NewDate(2024, 6, 20))
	if err != nil {
		t.Fatalf("ListTransactionsBetween: %v", err)
	}
	if len(txs) != 1 || txs[0].Date.Day() != 15 {
		t.Errorf("got %d transactions, want exactly the June 15 one", len(txs))
	}
}

func TestBudgetUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := core.Budget{UserID: 1, CategoryID: 2, Year: 2024, Month: 6, Amount: dec("500"), Currency: "USD"}
	if _, err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, b); !errors.Is(err, ErrDuplicateBudget) {
		t.Errorf("duplicate create = %v, want ErrDuplicateBudget", err)
	}
	// A different month is fine.
	b.Month = 7
	if _, err := repo.CreateBudget(ctx, b); err != nil {
		t.Errorf("create for other month: %v", err)
	}
}

func TestGoalRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	deadline := core.NewDate(2025, 12, 31)
	id, err := repo.CreateGoal(ctx, core.Goal{
		UserID: 1, Title: "Vacation", TargetAmount: dec("5000"),
		CurrentAmount: dec("1200.50"), Currency: "USD",
		Deadline: &deadline, Status: core.GoalActive,
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	g, err := repo.GetGoal(ctx, 1, id)
	if err != nil {
		t.Fatalf("GetGoal: %v", err)
	}
	if !g.CurrentAmount.Equal(dec("1200.50")) {
		t.Errorf("current = %v, want 1200.50", g.CurrentAmount)
	}
	if g.Deadline == nil || g.Deadline.Format("2006-01-02") != "2025-12-31" {
		t.Errorf("deadline = %v, want 2025-12-31", g.Deadline)
	}

	g.CurrentAmount = dec("5000")
	g.Status = core.GoalCompleted
	if err := repo.UpdateGoal(ctx, g); err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	g, _ = repo.GetGoal(ctx, 1, id)
	if g.Status != core.GoalCompleted {
		t.Errorf("status = %s, want completed", g.Status)
	}

	if _, err := repo.GetGoal(ctx, 2, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user get = %v, want ErrNotFound", err)
	}
}

func TestRecurringAdvanceGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start := core.NewDate(2024, 1, 31)
	_, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID: 1, Type: core.Outcome, Amount: dec("15.99"), Currency: "USD",
		Frequency: core.Monthly, StartDate: start, NextDate: start, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	due, err := repo.ListDueRecurring(ctx, core.NewDate(2024, 2, 1))
	if err != nil {
		t.Fatalf("ListDueRecurring: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %d templates, want 1", len(due))
	}

	rec := due[0]
	rec.NextDate = core.NewDate(2024, 2, 29)
	advanced, err := repo.ApplyRecurringAdvance(ctx, rec, start)
	if err != nil {
		t.Fatalf("ApplyRecurringAdvance: %v", err)
	}
	if !advanced {
		t.Fatal("first advance did not apply")
	}

	// A stale guard (same old next date) must lose.
	advanced, err = repo.ApplyRecurringAdvance(ctx, rec, start)
	if err != nil {
		t.Fatalf("second ApplyRecurringAdvance: %v", err)
	}
	if advanced {
		t.Error("stale advance applied, guard did not hold")
	}

	if due, _ = repo.ListDueRecurring(ctx, core.NewDate(2024, 2, 1)); len(due) != 0 {
		t.Errorf("template still due after advance, next = %v", due[0].NextDate)
	}
}

func TestListDueRecurringSkipsEnded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	end := core.NewDate(2024, 3, 1)
	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID: 1, Type: core.Outcome, Amount: dec("5"), Currency: "USD",
		Frequency: core.Weekly, StartDate: core.NewDate(2024, 1, 1),
		NextDate: core.NewDate(2024, 2, 1), EndDate: &end, IsActive: true,
	}); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	if due, _ := repo.ListDueRecurring(ctx, core.NewDate(2024, 2, 15)); len(due) != 1 {
		t.Errorf("due before end date = %d, want 1", len(due))
	}
	if due, _ := repo.ListDueRecurring(ctx, core.NewDate(2024, 4, 1)); len(due) != 0 {
		t.Errorf("due after end date = %d, want 0", len(due))
	}
}
