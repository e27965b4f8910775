// Package storage persists moneta's entities in SQLite. Monetary amounts are
// stored as decimal strings and parsed back on read; derived figures
// (balances, budget status, report series) are never stored.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"moneta/internal/core"
)

// ErrDuplicateBudget is returned when a budget already exists for the same
// (user, category, year, month).
var ErrDuplicateBudget = errors.New("budget already exists for this category and period")

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

const dateFormat = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- currencies ----

func (r *SQLiteRepository) ListCurrencies(ctx context.Context, userID int64) ([]core.Currency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, code, name, symbol, is_default, exchange_rate
		 FROM currencies WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var out []core.Currency
	for rows.Next() {
		var c core.Currency
		var rate string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Code, &c.Name, &c.Symbol, &c.IsDefault, &rate); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		c.ExchangeRate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("parse exchange rate %q: %w", rate, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCurrency inserts a currency. When the new row is flagged as default
// the previous default is unset in the same transaction, preserving the
// one-default-per-user invariant.
func (r *SQLiteRepository) CreateCurrency(ctx context.Context, c core.Currency) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if c.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE currencies SET is_default = 0 WHERE user_id = ?`, c.UserID); err != nil {
			return 0, fmt.Errorf("unset previous default: %w", err)
		}
		c.ExchangeRate = decimal.NewFromInt(1)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO currencies (user_id, code, name, symbol, is_default, exchange_rate)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, strings.ToUpper(c.Code), c.Name, c.Symbol, c.IsDefault, c.ExchangeRate.String())
	if err != nil {
		return 0, fmt.Errorf("insert currency: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// SetDefaultCurrency atomically moves the default flag to the given currency
// and forces its rate to 1. Unset-then-set runs in one SQL transaction so
// concurrent callers cannot both end up holding the flag.
func (r *SQLiteRepository) SetDefaultCurrency(ctx context.Context, userID, currencyID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE currencies SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("unset previous default: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE currencies SET is_default = 1, exchange_rate = '1' WHERE user_id = ? AND id = ?`,
		userID, currencyID)
	if err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// UpdateRates merges freshly fetched rates into the stored table. Currencies
// absent from the fetch keep their previous rate; the default currency is
// never touched (its rate stays 1).
func (r *SQLiteRepository) UpdateRates(ctx context.Context, userID int64, fetched map[string]decimal.Decimal) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	updated := 0
	for code, rate := range fetched {
		if !rate.IsPositive() {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE currencies SET exchange_rate = ?
			 WHERE user_id = ? AND code = ? AND is_default = 0`,
			rate.String(), userID, strings.ToUpper(code))
		if err != nil {
			return 0, fmt.Errorf("update rate for %s: %w", code, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// DeleteCurrency removes a currency row. Transactions referencing it are left
// alone; reads resolve them as unknown and aggregation degrades to the base
// currency.
func (r *SQLiteRepository) DeleteCurrency(ctx context.Context, userID, currencyID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM currencies WHERE user_id = ? AND id = ?`, userID, currencyID)
	if err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCurrencyUserIDs returns every user id that owns at least one currency.
// The rates worker iterates these to refresh each user's table.
func (r *SQLiteRepository) ListCurrencyUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM currencies ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list currency user ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ---- transactions ----

const txColumns = `t.id, t.user_id, t.type, t.amount,
	COALESCE(c.code, t.currency_code) AS currency,
	t.category_id, t.account_id, t.tx_date, t.description`

const txJoin = `FROM transactions t LEFT JOIN currencies c ON c.id = t.currency_id`

// CreateTransaction inserts a ledger row. The currency code is resolved to a
// currency id when the user has such a row; the bare code is stored alongside
// either way, so rows keep a readable code even after their currency row is
// deleted.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var currencyID sql.NullInt64
	code := strings.ToUpper(t.Currency)
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM currencies WHERE user_id = ? AND code = ?`, t.UserID, code).
		Scan(&currencyID.Int64)
	if err == nil {
		currencyID.Valid = true
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("resolve currency: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, amount, currency_id, currency_code,
		                           category_id, account_id, tx_date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Type), t.Amount.String(), currencyID, code,
		t.CategoryID, t.AccountID, t.Date.Format(dateFormat), t.Description)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id, "user_id", t.UserID, "type", t.Type,
		"amount", t.Amount.String(), "date", t.Date.Format(dateFormat))
	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` `+txJoin+` WHERE t.id = ? AND t.deleted_at IS NULL`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	return t, err
}

// ListTransactions returns the user's full ledger, oldest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` `+txJoin+`
		 WHERE t.user_id = ? AND t.deleted_at IS NULL ORDER BY t.tx_date, t.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListTransactionsBetween returns the user's transactions in [from, to].
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, userID int64, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` `+txJoin+`
		 WHERE t.user_id = ? AND t.deleted_at IS NULL
		   AND t.tx_date >= ? AND t.tx_date <= ?
		 ORDER BY t.tx_date, t.id`,
		userID, from.Format(dateFormat), to.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("list transactions between: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND id = ? AND deleted_at IS NULL`, userID, id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var amount, date string
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &amount, &t.Currency,
		&t.CategoryID, &t.AccountID, &date, &t.Description); err != nil {
		return t, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if t.Date, err = parseDate(date); err != nil {
		return t, err
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- categories and accounts ----

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name) VALUES (?, ?)`, c.UserID, c.Name)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, currency_code, is_default
		 FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &a.IsDefault); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, currency_code, is_default
		 FROM accounts WHERE user_id = ? AND id = ?`, userID, id).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &a.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, currency_code, is_default)
		 VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, strings.ToUpper(a.Currency), a.IsDefault)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return res.LastInsertId()
}

// ---- budgets ----

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, year, month, amount, currency_code, alert_threshold)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Year, b.Month, b.Amount.String(),
		strings.ToUpper(b.Currency), b.Threshold())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateBudget
		}
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	var b core.Budget
	var amount string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, year, month, amount, currency_code, alert_threshold
		 FROM budgets WHERE user_id = ? AND id = ?`, userID, id).
		Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Year, &b.Month, &amount, &b.Currency, &b.AlertThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("get budget: %w", err)
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return b, fmt.Errorf("parse budget amount %q: %w", amount, err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, year, month, amount, currency_code, alert_threshold
		 FROM budgets WHERE user_id = ? ORDER BY year, month, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		var amount string
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Year, &b.Month,
			&amount, &b.Currency, &b.AlertThreshold); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse budget amount %q: %w", amount, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBudgetsForPeriod returns every budget of any user covering the given
// year and month. Used by the recurring worker to raise alerts after
// materialization.
func (r *SQLiteRepository) ListBudgetsForPeriod(ctx context.Context, year, month int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, year, month, amount, currency_code, alert_threshold
		 FROM budgets WHERE year = ? AND month = ? ORDER BY id`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets for period: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		var amount string
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Year, &b.Month,
			&amount, &b.Currency, &b.AlertThreshold); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse budget amount %q: %w", amount, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ---- goals ----

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, title, target_amount, current_amount, currency_code, deadline, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(),
		strings.ToUpper(g.Currency), deadlineValue(g.Deadline), string(g.Status))
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id int64) (core.Goal, error) {
	var g core.Goal
	var target, current string
	var deadline sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, target_amount, current_amount, currency_code, deadline, status
		 FROM goals WHERE user_id = ? AND id = ?`, userID, id).
		Scan(&g.ID, &g.UserID, &g.Title, &target, &current, &g.Currency, &deadline, &g.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	if err != nil {
		return g, fmt.Errorf("get goal: %w", err)
	}
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return g, fmt.Errorf("parse target amount %q: %w", target, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return g, fmt.Errorf("parse current amount %q: %w", current, err)
	}
	if deadline.Valid && deadline.String != "" {
		d, err := parseDate(deadline.String)
		if err != nil {
			return g, err
		}
		g.Deadline = &d
	}
	return g, nil
}

// UpdateGoal persists the mutable goal fields: current amount and status.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET current_amount = ?, status = ? WHERE user_id = ? AND id = ?`,
		g.CurrentAmount.String(), string(g.Status), g.UserID, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- recurring transactions ----

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rec core.RecurringTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions
		 (user_id, type, amount, currency_code, category_id, frequency,
		  start_date, end_date, next_date, is_active, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, string(rec.Type), rec.Amount.String(), strings.ToUpper(rec.Currency),
		rec.CategoryID, string(rec.Frequency), rec.StartDate.Format(dateFormat),
		deadlineValue(rec.EndDate), rec.NextDate.Format(dateFormat), rec.IsActive, rec.Description)
	if err != nil {
		return 0, fmt.Errorf("insert recurring transaction: %w", err)
	}
	return res.LastInsertId()
}

// ListDueRecurring returns every active template across all users whose next
// date is on or before asOf and whose end date has not passed.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount, currency_code, category_id, frequency,
		        start_date, end_date, next_date, is_active, description
		 FROM recurring_transactions
		 WHERE is_active = 1 AND next_date <= ?
		   AND (end_date IS NULL OR end_date >= ?)
		 ORDER BY user_id, id`,
		asOf.Format(dateFormat), asOf.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("list due recurring: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ApplyRecurringAdvance persists an advanced template guarded by the next
// date it was read with, so of two concurrent materializers only one wins.
// Returns false when the guard did not match.
func (r *SQLiteRepository) ApplyRecurringAdvance(ctx context.Context, rec core.RecurringTransaction, prevNext core.Date) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET next_date = ?, is_active = ?
		 WHERE id = ? AND next_date = ?`,
		rec.NextDate.Format(dateFormat), rec.IsActive, rec.ID, prevNext.Format(dateFormat))
	if err != nil {
		return false, fmt.Errorf("advance recurring: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanRecurring(rows *sql.Rows) (core.RecurringTransaction, error) {
	var rec core.RecurringTransaction
	var amount, start, next string
	var end sql.NullString
	if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &amount, &rec.Currency,
		&rec.CategoryID, &rec.Frequency, &start, &end, &next, &rec.IsActive, &rec.Description); err != nil {
		return rec, fmt.Errorf("scan recurring: %w", err)
	}
	var err error
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return rec, fmt.Errorf("parse recurring amount %q: %w", amount, err)
	}
	if rec.StartDate, err = parseDate(start); err != nil {
		return rec, err
	}
	if rec.NextDate, err = parseDate(next); err != nil {
		return rec, err
	}
	if end.Valid && end.String != "" {
		d, err := parseDate(end.String)
		if err != nil {
			return rec, err
		}
		rec.EndDate = &d
	}
	return rec, nil
}

func parseDate(s string) (core.Date, error) {
	// Dates may come back with a time component depending on how the driver
	// stored them; keep only the day.
	if len(s) > len(dateFormat) {
		s = s[:len(dateFormat)]
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.DateOf(t), nil
}

func deadlineValue(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.Format(dateFormat)
}
