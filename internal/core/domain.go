package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Outcome TransactionType = "outcome"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

// DefaultAlertThreshold is the budget alert percentage used when a budget
// does not carry an explicit threshold.
const DefaultAlertThreshold = 80.0

type (
	TransactionType string
	Frequency       string
	GoalStatus      string

	Date struct {
		time.Time
	}

	// Currency is one row of the per-user currency table. ExchangeRate is
	// expressed as units of this currency per one unit of the user's base
	// currency; the base currency itself always carries rate 1.
	Currency struct {
		ID           int64
		UserID       int64
		Code         string
		Name         string
		Symbol       string
		IsDefault    bool
		ExchangeRate decimal.Decimal
	}

	// Transaction is a single ledger entry. Amount is always positive; the
	// sign is derived from Type. Currency is a resolved code; it may refer
	// to a currency that no longer exists, which aggregation tolerates.
	Transaction struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Amount      decimal.Decimal
		Currency    string
		CategoryID  int64
		AccountID   int64 // 0 when the transaction is not tied to an account
		Date        Date
		Description string
	}

	Account struct {
		ID        int64
		UserID    int64
		Name      string
		Type      string
		Currency  string
		IsDefault bool
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
	}

	// Budget caps outcome spending for one category in one calendar month.
	// At most one budget exists per (user, category, year, month).
	Budget struct {
		ID             int64
		UserID         int64
		CategoryID     int64
		Year           int
		Month          int // 1-12
		Amount         decimal.Decimal
		Currency       string
		AlertThreshold float64
	}

	Goal struct {
		ID            int64
		UserID        int64
		Title         string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Currency      string
		Deadline      *Date
		Status        GoalStatus
	}

	// RecurringTransaction is a template that materializes into concrete
	// transactions. NextDate only ever moves forward.
	RecurringTransaction struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Amount      decimal.Decimal
		Currency    string
		CategoryID  int64
		Frequency   Frequency
		StartDate   Date
		EndDate     *Date
		NextDate    Date
		IsActive    bool
		Description string
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrInvalidCurrencyCode  = errors.New("invalid currency code")
	ErrInvalidRate          = errors.New("exchange rate must be positive")
	ErrInvalidTarget        = errors.New("target amount must be positive")
	ErrCurrentExceedsTarget = errors.New("current amount cannot exceed target amount")
	ErrNegativeCurrent      = errors.New("current amount cannot be negative")
	ErrInvalidThreshold     = errors.New("alert threshold must be within (0,100]")
	ErrInvalidTransition    = errors.New("invalid goal status transition")
	ErrEmptyTitle           = errors.New("empty title")
	ErrInvalidDateOrder     = errors.New("end date must not be before start date")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), int(t.UTC().Month()), t.UTC().Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time.AddDate(0, 0, n))
}

// AddMonthsClamped returns the date n calendar months later, clamping the day
// to the last day of the target month when the original day does not exist
// there (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonthsClamped(n int) Date {
	y, m, day := d.Time.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := DaysInMonth(first.Year(), int(first.Month()))
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// DaysUntil returns the number of whole days from d to x. Negative when x is
// in the past.
func (d Date) DaysUntil(x Date) int {
	return int(x.Time.Sub(d.Time).Hours() / 24)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Outcome:
		return nil
	}
	return ErrInvalidType
}

// Sign returns +1 for income and -1 for outcome.
func (t TransactionType) Sign() int {
	if t == Outcome {
		return -1
	}
	return 1
}

func (f Frequency) Validate() error {
	switch f {
	case Weekly, Monthly:
		return nil
	}
	return ErrInvalidFrequency
}

func (c Currency) Validate() error {
	code := strings.ToUpper(strings.TrimSpace(c.Code))
	if len(code) != 3 {
		return ErrInvalidCurrencyCode
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrencyCode
		}
	}
	if !c.ExchangeRate.IsPositive() {
		return ErrInvalidRate
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if len(tx.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if b.AlertThreshold != 0 && (b.AlertThreshold < 0 || b.AlertThreshold > 100) {
		return ErrInvalidThreshold
	}
	return nil
}

// Threshold returns the configured alert threshold, or the default when the
// budget does not carry one.
func (b Budget) Threshold() float64 {
	if b.AlertThreshold > 0 {
		return b.AlertThreshold
	}
	return DefaultAlertThreshold
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Title)) == 0 {
		return ErrEmptyTitle
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidTarget
	}
	if g.CurrentAmount.IsNegative() {
		return ErrNegativeCurrent
	}
	if g.CurrentAmount.GreaterThan(g.TargetAmount) {
		return ErrCurrentExceedsTarget
	}
	return nil
}

// Refresh promotes an active goal to completed once its target is reached.
// Cancelled and completed goals are never touched.
func (g *Goal) Refresh() {
	if g.Status == GoalActive && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalCompleted
	}
}

// Cancel transitions an active or completed goal to cancelled.
func (g *Goal) Cancel() error {
	switch g.Status {
	case GoalActive, GoalCompleted:
		g.Status = GoalCancelled
		return nil
	}
	return ErrInvalidTransition
}

// Reactivate transitions a completed or cancelled goal back to active.
func (g *Goal) Reactivate() error {
	switch g.Status {
	case GoalCompleted, GoalCancelled:
		g.Status = GoalActive
		return nil
	}
	return ErrInvalidTransition
}

func (r RecurringTransaction) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if r.EndDate != nil && r.EndDate.Time.Before(r.StartDate.Time) {
		return ErrInvalidDateOrder
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}
