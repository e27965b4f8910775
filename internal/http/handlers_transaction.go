package http

import (
	"net/http"

	"moneta/internal/core"
)

type transactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	CategoryID  int64  `json:"category_id"`
	AccountID   int64  `json:"account_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	CategoryID  int64  `json:"category_id"`
	AccountID   int64  `json:"account_id,omitempty"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	id, err := s.transactions.Create(r.Context(), core.Transaction{
		UserID:      uid,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Currency:    req.Currency,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	txs, err := s.transactions.List(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionResponse{
			ID:          t.ID,
			Type:        string(t.Type),
			Amount:      t.Amount.String(),
			Currency:    t.Currency,
			CategoryID:  t.CategoryID,
			AccountID:   t.AccountID,
			Date:        t.Date.Format("2006-01-02"),
			Description: t.Description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := s.transactions.Delete(r.Context(), uid, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reports.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
