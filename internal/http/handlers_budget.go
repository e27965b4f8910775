package http

import (
	"net/http"
	"strconv"

	"moneta/internal/core"
	"moneta/internal/services"
)

type budgetRequest struct {
	CategoryID     int64   `json:"category_id"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	AlertThreshold float64 `json:"alert_threshold"`
}

type budgetStatusResponse struct {
	BudgetID    int64   `json:"budget_id"`
	CategoryID  int64   `json:"category_id"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Amount      string  `json:"amount"`
	Spent       string  `json:"spent"`
	Remaining   string  `json:"remaining"`
	Percentage  float64 `json:"percentage"`
	IsExceeded  bool    `json:"is_exceeded"`
	IsNearLimit bool    `json:"is_near_limit"`
	Currency    string  `json:"currency"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	id, err := s.budgets.Create(r.Context(), core.Budget{
		UserID:         uid,
		CategoryID:     req.CategoryID,
		Year:           req.Year,
		Month:          req.Month,
		Amount:         amount,
		Currency:       req.Currency,
		AlertThreshold: req.AlertThreshold,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// handleBudgetStatus evaluates either one budget (?id=) or all of them.
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	var (
		evaluated []services.BudgetWithStatus
		err       error
	)
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid budget id")
			return
		}
		var one services.BudgetWithStatus
		one, _, err = s.budgets.Status(r.Context(), uid, id)
		evaluated = []services.BudgetWithStatus{one}
	} else {
		evaluated, _, err = s.budgets.StatusAll(r.Context(), uid)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]budgetStatusResponse, 0, len(evaluated))
	for _, e := range evaluated {
		out = append(out, budgetStatusResponse{
			BudgetID:    e.Budget.ID,
			CategoryID:  e.Budget.CategoryID,
			Year:        e.Budget.Year,
			Month:       e.Budget.Month,
			Amount:      e.Budget.Amount.String(),
			Spent:       e.Status.Spent.String(),
			Remaining:   e.Status.Remaining.String(),
			Percentage:  e.Status.Percentage,
			IsExceeded:  e.Status.IsExceeded,
			IsNearLimit: e.Status.IsNearLimit,
			Currency:    e.Status.Currency,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
