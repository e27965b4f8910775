package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// UnknownCategory is the breakdown bucket for transactions whose category
// row no longer exists.
const UnknownCategory = "Unknown"

type (
	// Period selects a report window: a whole year when Month is 0, a single
	// month otherwise.
	Period struct {
		Year  int
		Month int
	}

	// ReportOptions drive BuildReport. DisplayCurrency re-expresses the final
	// aggregates (a single base->display hop); empty means base. GroupBy
	// re-buckets the balance chart for display and defaults to day. Today
	// anchors the "current month" choice for daily trends.
	ReportOptions struct {
		Period          Period
		DisplayCurrency string
		GroupBy         string
		Today           core.Date
	}

	// TrendPoint is one bucket of a bucketed series: the sums of activity
	// that fell inside the bucket, not a running total.
	TrendPoint struct {
		Label   string
		Income  decimal.Decimal
		Outcome decimal.Decimal
		Net     decimal.Decimal
	}

	// BalancePoint is one point of the cumulative balance series.
	BalancePoint struct {
		Label   string
		Date    core.Date
		Balance decimal.Decimal
	}

	CategoryAmount struct {
		Name   string
		Amount decimal.Decimal
	}

	Summary struct {
		TotalIncome      decimal.Decimal
		TotalOutcome     decimal.Decimal
		Net              decimal.Decimal
		Currency         string
		TransactionCount int
	}

	Insights struct {
		TopCategory          string
		TopCategoryAmount    decimal.Decimal
		AverageCategorySpend decimal.Decimal
		GrowthPercentage     float64
	}

	Report struct {
		MonthlyTrends     []TrendPoint
		DailyTrends       []TrendPoint
		BalanceChart      []BalancePoint
		CategoryBreakdown []CategoryAmount
		Summary           Summary
		Insights          Insights
		Anomalies         []Anomaly
	}
)

// Bounds returns the inclusive date range the period covers.
func (p Period) Bounds() (core.Date, core.Date) {
	if p.Month != 0 {
		return PeriodBounds(p.Year, p.Month)
	}
	return core.NewDate(p.Year, 1, 1), core.NewDate(p.Year, 12, 31)
}

// Previous returns the immediately preceding period: the prior month when a
// month is selected, the prior year otherwise.
func (p Period) Previous() Period {
	if p.Month == 0 {
		return Period{Year: p.Year - 1}
	}
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) contains(d core.Date) bool {
	start, end := p.Bounds()
	return !d.Time.Before(start.Time) && !d.Time.After(end.Time)
}

// BuildReport derives every report series for the selected period from the
// raw transaction set. All sums pivot through the base currency; the final
// aggregates are re-expressed in the display currency in one hop.
//
// The transaction slice should be the user's full ledger (not pre-filtered):
// the cumulative balance chart needs the pre-period history for its opening
// balance, and the growth insight needs the preceding period's activity.
func BuildReport(opts ReportOptions, txs []core.Transaction, categories map[int64]string, t *Table, diag *Diagnostics) Report {
	if opts.Today.IsZero() {
		opts.Today = core.DateOf(time.Now())
	}

	rep := Report{
		MonthlyTrends:     monthlyTrends(opts.Period.Year, txs, t, diag),
		DailyTrends:       dailyTrends(opts, txs, t, diag),
		BalanceChart:      balanceChart(opts, txs, t, diag),
		CategoryBreakdown: categoryBreakdown(opts.Period, txs, categories, t, diag),
	}
	rep.Summary = summarize(opts.Period, txs, t, diag)
	rep.Insights = insights(opts.Period, rep, txs, t, diag)

	if display := opts.DisplayCurrency; display != "" && display != t.Base() {
		redisplay(&rep, display, t, diag)
	} else {
		rep.Summary.Currency = t.Base()
	}
	rep.Anomalies = diag.Anomalies()
	return rep
}

// monthlyTrends always emits all 12 months of the report year, zero-filled,
// so chart x-axes stay stable across empty months.
func monthlyTrends(year int, txs []core.Transaction, t *Table, diag *Diagnostics) []TrendPoint {
	points := make([]TrendPoint, 12)
	for m := 0; m < 12; m++ {
		points[m] = TrendPoint{
			Label:   time.Month(m + 1).String()[:3],
			Income:  decimal.Zero,
			Outcome: decimal.Zero,
			Net:     decimal.Zero,
		}
	}
	for _, tx := range txs {
		if tx.Date.Year() != year {
			continue
		}
		v := t.ToBase(tx.Amount, tx.Currency, diag)
		p := &points[tx.Date.Month()-1]
		if tx.Type == core.Income {
			p.Income = p.Income.Add(v)
		} else {
			p.Outcome = p.Outcome.Add(v)
		}
		p.Net = p.Income.Sub(p.Outcome)
	}
	return points
}

// dailyTrends covers a single month: the selected one, or the current month
// when the report year is the current year and no month filter is active.
// One zero-filled bucket per calendar day.
func dailyTrends(opts ReportOptions, txs []core.Transaction, t *Table, diag *Diagnostics) []TrendPoint {
	month := opts.Period.Month
	if month == 0 {
		if opts.Period.Year != opts.Today.Year() {
			return nil
		}
		month = opts.Today.Month()
	}
	year := opts.Period.Year

	days := core.DaysInMonth(year, month)
	points := make([]TrendPoint, days)
	for d := 0; d < days; d++ {
		points[d] = TrendPoint{
			Label:   core.NewDate(year, month, d+1).Format("2006-01-02"),
			Income:  decimal.Zero,
			Outcome: decimal.Zero,
			Net:     decimal.Zero,
		}
	}
	for _, tx := range txs {
		if tx.Date.Year() != year || tx.Date.Month() != month {
			continue
		}
		v := t.ToBase(tx.Amount, tx.Currency, diag)
		p := &points[tx.Date.Day()-1]
		if tx.Type == core.Income {
			p.Income = p.Income.Add(v)
		} else {
			p.Outcome = p.Outcome.Add(v)
		}
		p.Net = p.Income.Sub(p.Outcome)
	}
	return points
}

// balanceChart walks every calendar day of the period, carrying a running
// total forward: a prefix sum over time, not a per-bucket sum. The series is
// seeded with the net of everything before the period so each point is a
// true balance. GroupBy week/month keeps the last point observed per bucket,
// since a cumulative series re-buckets by sampling, not by summing.
func balanceChart(opts ReportOptions, txs []core.Transaction, t *Table, diag *Diagnostics) []BalancePoint {
	start, end := opts.Period.Bounds()

	running := decimal.Zero
	perDay := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		v := signedBase(tx, t, diag)
		if tx.Date.Time.Before(start.Time) {
			running = running.Add(v)
			continue
		}
		if tx.Date.Time.After(end.Time) {
			continue
		}
		k := tx.Date.Format("2006-01-02")
		perDay[k] = perDay[k].Add(v)
	}

	var series []BalancePoint
	for d := start; !d.Time.After(end.Time); d = d.AddDays(1) {
		running = running.Add(perDay[d.Format("2006-01-02")])
		series = append(series, BalancePoint{
			Label:   d.Format("2006-01-02"),
			Date:    d,
			Balance: running,
		})
	}
	return regroup(series, opts.GroupBy)
}

func regroup(series []BalancePoint, groupBy string) []BalancePoint {
	var key func(core.Date) string
	switch groupBy {
	case GroupByWeek:
		key = func(d core.Date) string {
			y, w := d.ISOWeek()
			return fmt.Sprintf("%d-W%02d", y, w)
		}
	case GroupByMonth:
		key = func(d core.Date) string { return d.Format("2006-01") }
	default:
		return series
	}

	var out []BalancePoint
	for _, p := range series {
		k := key(p.Date)
		if len(out) > 0 && out[len(out)-1].Label == k {
			out[len(out)-1].Date = p.Date
			out[len(out)-1].Balance = p.Balance
			continue
		}
		out = append(out, BalancePoint{Label: k, Date: p.Date, Balance: p.Balance})
	}
	return out
}

// categoryBreakdown sums converted outcome amounts by category name, sorted
// descending; ties keep discovery order.
func categoryBreakdown(p Period, txs []core.Transaction, categories map[int64]string, t *Table, diag *Diagnostics) []CategoryAmount {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, tx := range txs {
		if tx.Type != core.Outcome || !p.contains(tx.Date) {
			continue
		}
		name, ok := categories[tx.CategoryID]
		if !ok || name == "" {
			name = UnknownCategory
			diag.record(AnomalyDanglingRef, "", "transaction references a missing category")
		}
		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] = totals[name].Add(t.ToBase(tx.Amount, tx.Currency, diag))
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryAmount{Name: name, Amount: totals[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

func summarize(p Period, txs []core.Transaction, t *Table, diag *Diagnostics) Summary {
	s := Summary{
		TotalIncome:  decimal.Zero,
		TotalOutcome: decimal.Zero,
		Net:          decimal.Zero,
	}
	for _, tx := range txs {
		if !p.contains(tx.Date) {
			continue
		}
		v := t.ToBase(tx.Amount, tx.Currency, diag)
		if tx.Type == core.Income {
			s.TotalIncome = s.TotalIncome.Add(v)
		} else {
			s.TotalOutcome = s.TotalOutcome.Add(v)
		}
		s.TransactionCount++
	}
	s.Net = s.TotalIncome.Sub(s.TotalOutcome)
	return s
}

// insights derives the headline figures: top spending category, average
// spend per distinct category, and outcome growth against the preceding
// period (preceding month for a month report, preceding year otherwise).
// Growth is 0 when the previous period had no outcome.
func insights(p Period, rep Report, txs []core.Transaction, t *Table, diag *Diagnostics) Insights {
	ins := Insights{
		TopCategoryAmount:    decimal.Zero,
		AverageCategorySpend: decimal.Zero,
	}
	if len(rep.CategoryBreakdown) > 0 {
		ins.TopCategory = rep.CategoryBreakdown[0].Name
		ins.TopCategoryAmount = rep.CategoryBreakdown[0].Amount
		ins.AverageCategorySpend = rep.Summary.TotalOutcome.
			Div(decimal.NewFromInt(int64(len(rep.CategoryBreakdown))))
	}

	prev := summarize(p.Previous(), txs, t, diag)
	if prev.TotalOutcome.IsPositive() {
		ins.GrowthPercentage = rep.Summary.TotalOutcome.Sub(prev.TotalOutcome).
			Div(prev.TotalOutcome).InexactFloat64() * 100
	}
	return ins
}

// redisplay converts the report's final aggregates from base to the display
// currency in a single hop. Bucketed series, the balance chart, the
// breakdown and the summary are all re-expressed; percentages are unitless
// and stay as they are.
func redisplay(rep *Report, display string, t *Table, diag *Diagnostics) {
	base := t.Base()
	conv := func(v decimal.Decimal) decimal.Decimal {
		return t.Convert(v, base, display, diag)
	}
	for i := range rep.MonthlyTrends {
		rep.MonthlyTrends[i].Income = conv(rep.MonthlyTrends[i].Income)
		rep.MonthlyTrends[i].Outcome = conv(rep.MonthlyTrends[i].Outcome)
		rep.MonthlyTrends[i].Net = conv(rep.MonthlyTrends[i].Net)
	}
	for i := range rep.DailyTrends {
		rep.DailyTrends[i].Income = conv(rep.DailyTrends[i].Income)
		rep.DailyTrends[i].Outcome = conv(rep.DailyTrends[i].Outcome)
		rep.DailyTrends[i].Net = conv(rep.DailyTrends[i].Net)
	}
	for i := range rep.BalanceChart {
		rep.BalanceChart[i].Balance = conv(rep.BalanceChart[i].Balance)
	}
	for i := range rep.CategoryBreakdown {
		rep.CategoryBreakdown[i].Amount = conv(rep.CategoryBreakdown[i].Amount)
	}
	rep.Summary.TotalIncome = conv(rep.Summary.TotalIncome)
	rep.Summary.TotalOutcome = conv(rep.Summary.TotalOutcome)
	rep.Summary.Net = conv(rep.Summary.Net)
	rep.Summary.Currency = display
	rep.Insights.TopCategoryAmount = conv(rep.Insights.TopCategoryAmount)
	rep.Insights.AverageCategorySpend = conv(rep.Insights.AverageCategorySpend)
}
