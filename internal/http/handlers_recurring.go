package http

import (
	"net/http"
	"time"

	"moneta/internal/core"
)

type recurringRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	CategoryID  int64  `json:"category_id"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req recurringRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}

	rec := core.RecurringTransaction{
		UserID:      uid,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Currency:    req.Currency,
		CategoryID:  req.CategoryID,
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
		IsActive:    true,
		Description: req.Description,
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
			return
		}
		rec.EndDate = &end
	}

	id, err := s.recurring.Create(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type processResponse struct {
	Created  int              `json:"created"`
	Skipped  int              `json:"skipped"`
	Failures []processFailure `json:"failures,omitempty"`
}

type processFailure struct {
	UserID int64  `json:"user_id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// handleProcessRecurring triggers a materialization pass on demand, same as
// the recurring worker's tick. Per-entry failures come back in the body; the
// call itself only fails when the due list cannot be loaded.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	summary, err := s.recurring.ProcessDue(r.Context(), core.DateOf(time.Now()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reports.Invalidate()

	resp := processResponse{Created: summary.Created, Skipped: summary.Skipped}
	for _, f := range summary.Failures {
		resp.Failures = append(resp.Failures, processFailure{
			UserID: f.UserID,
			Date:   f.Date.Format("2006-01-02"),
			Reason: f.Reason,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
