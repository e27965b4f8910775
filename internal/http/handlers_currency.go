package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

type currencyRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	IsDefault    bool   `json:"is_default"`
	ExchangeRate string `json:"exchange_rate"`
}

type currencyResponse struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	IsDefault    bool   `json:"is_default"`
	ExchangeRate string `json:"exchange_rate"`
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	currencies, err := s.currencies.List(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]currencyResponse, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, currencyResponse{
			ID:           c.ID,
			Code:         c.Code,
			Name:         c.Name,
			Symbol:       c.Symbol,
			IsDefault:    c.IsDefault,
			ExchangeRate: c.ExchangeRate.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req currencyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rate, err := core.ParseRate(req.ExchangeRate)
	if err != nil {
		if !req.IsDefault {
			writeServiceError(w, r, err)
			return
		}
		// The default row's rate is forced to 1 regardless of input.
		rate = decimal.NewFromInt(1)
	}

	id, err := s.currencies.Create(r.Context(), core.Currency{
		UserID:       uid,
		Code:         req.Code,
		Name:         req.Name,
		Symbol:       req.Symbol,
		IsDefault:    req.IsDefault,
		ExchangeRate: rate,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteCurrency(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid currency id")
		return
	}
	if err := s.currencies.Delete(r.Context(), uid, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reports.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDefaultCurrency(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		CurrencyID int64 `json:"currency_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.currencies.SetDefault(r.Context(), uid, req.CurrencyID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.reports.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	updated, err := s.currencies.RefreshRates(r.Context(), uid)
	if err != nil {
		// Stored rates are untouched on failure; tell the caller the provider
		// is the problem, not their data.
		writeError(w, http.StatusBadGateway, "rate refresh failed: "+err.Error())
		return
	}
	s.reports.Invalidate()
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
