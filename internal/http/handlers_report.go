package http

import (
	"net/http"
	"strings"
	"time"

	"moneta/internal/core"
	"moneta/internal/finance"
)

type (
	trendPointDTO struct {
		Label   string `json:"label"`
		Income  string `json:"income"`
		Outcome string `json:"outcome"`
		Net     string `json:"net"`
	}

	balancePointDTO struct {
		Label   string `json:"label"`
		Date    string `json:"date"`
		Balance string `json:"balance"`
	}

	categoryAmountDTO struct {
		Name   string `json:"name"`
		Amount string `json:"amount"`
	}

	anomalyDTO struct {
		Kind   string `json:"kind"`
		Code   string `json:"code,omitempty"`
		Detail string `json:"detail"`
	}

	reportResponse struct {
		MonthlyTrends     []trendPointDTO     `json:"monthly_trends"`
		DailyTrends       []trendPointDTO     `json:"daily_trends,omitempty"`
		BalanceChart      []balancePointDTO   `json:"balance_chart"`
		CategoryBreakdown []categoryAmountDTO `json:"category_breakdown"`
		Summary           struct {
			TotalIncome      string `json:"total_income"`
			TotalOutcome     string `json:"total_outcome"`
			Net              string `json:"net"`
			Currency         string `json:"currency"`
			TransactionCount int    `json:"transaction_count"`
		} `json:"summary"`
		Insights struct {
			TopCategory          string  `json:"top_category,omitempty"`
			TopCategoryAmount    string  `json:"top_category_amount"`
			AverageCategorySpend string  `json:"average_category_spend"`
			GrowthPercentage     float64 `json:"growth_percentage"`
		} `json:"insights"`
		Anomalies []anomalyDTO `json:"anomalies,omitempty"`
	}
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	year, month := parseYearMonth(r)
	groupBy := strings.TrimSpace(r.URL.Query().Get("group_by"))
	switch groupBy {
	case "", finance.GroupByDay, finance.GroupByWeek, finance.GroupByMonth:
	default:
		writeError(w, http.StatusBadRequest, "invalid group_by, expected day, week or month")
		return
	}

	opts := finance.ReportOptions{
		Period:          finance.Period{Year: year, Month: month},
		DisplayCurrency: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency"))),
		GroupBy:         groupBy,
		Today:           core.DateOf(time.Now()),
	}

	rep, err := s.reports.Build(r.Context(), uid, opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(rep))
}

func reportToResponse(rep finance.Report) reportResponse {
	var out reportResponse
	out.MonthlyTrends = trendsToDTO(rep.MonthlyTrends)
	out.DailyTrends = trendsToDTO(rep.DailyTrends)
	for _, p := range rep.BalanceChart {
		out.BalanceChart = append(out.BalanceChart, balancePointDTO{
			Label:   p.Label,
			Date:    p.Date.Format("2006-01-02"),
			Balance: p.Balance.StringFixed(2),
		})
	}
	for _, c := range rep.CategoryBreakdown {
		out.CategoryBreakdown = append(out.CategoryBreakdown, categoryAmountDTO{
			Name:   c.Name,
			Amount: c.Amount.StringFixed(2),
		})
	}
	out.Summary.TotalIncome = rep.Summary.TotalIncome.StringFixed(2)
	out.Summary.TotalOutcome = rep.Summary.TotalOutcome.StringFixed(2)
	out.Summary.Net = rep.Summary.Net.StringFixed(2)
	out.Summary.Currency = rep.Summary.Currency
	out.Summary.TransactionCount = rep.Summary.TransactionCount
	out.Insights.TopCategory = rep.Insights.TopCategory
	out.Insights.TopCategoryAmount = rep.Insights.TopCategoryAmount.StringFixed(2)
	out.Insights.AverageCategorySpend = rep.Insights.AverageCategorySpend.StringFixed(2)
	out.Insights.GrowthPercentage = rep.Insights.GrowthPercentage
	for _, a := range rep.Anomalies {
		out.Anomalies = append(out.Anomalies, anomalyDTO{
			Kind:   string(a.Kind),
			Code:   a.Code,
			Detail: a.Detail,
		})
	}
	return out
}

func trendsToDTO(points []finance.TrendPoint) []trendPointDTO {
	out := make([]trendPointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointDTO{
			Label:   p.Label,
			Income:  p.Income.StringFixed(2),
			Outcome: p.Outcome.StringFixed(2),
			Net:     p.Net.StringFixed(2),
		})
	}
	return out
}

type balanceResponse struct {
	Accounts []accountBalanceDTO `json:"accounts"`
	Total    struct {
		Balance          string `json:"balance"`
		Formatted        string `json:"formatted"`
		Currency         string `json:"currency"`
		TransactionCount int    `json:"transaction_count"`
	} `json:"total"`
	Anomalies []anomalyDTO `json:"anomalies,omitempty"`
}

type accountBalanceDTO struct {
	AccountID        int64  `json:"account_id"`
	Name             string `json:"name"`
	Balance          string `json:"balance"`
	Formatted        string `json:"formatted"`
	Currency         string `json:"currency"`
	TransactionCount int    `json:"transaction_count"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	overview, anomalies, err := s.reports.Balances(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var out balanceResponse
	for _, a := range overview.Accounts {
		out.Accounts = append(out.Accounts, accountBalanceDTO{
			AccountID:        a.Account.ID,
			Name:             a.Account.Name,
			Balance:          a.Balance.Balance.StringFixed(2),
			Formatted:        core.FormatAmount(a.Balance.Balance, a.Balance.Currency),
			Currency:         a.Balance.Currency,
			TransactionCount: a.Balance.TransactionCount,
		})
	}
	out.Total.Balance = overview.Total.Balance.StringFixed(2)
	out.Total.Formatted = core.FormatAmount(overview.Total.Balance, overview.Total.Currency)
	out.Total.Currency = overview.Total.Currency
	out.Total.TransactionCount = overview.Total.TransactionCount
	for _, a := range anomalies {
		out.Anomalies = append(out.Anomalies, anomalyDTO{
			Kind:   string(a.Kind),
			Code:   a.Code,
			Detail: a.Detail,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
