package http

import (
	"net/http"
	"time"

	"moneta/internal/core"
)

type goalRequest struct {
	Title         string `json:"title"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	Currency      string `json:"currency"`
	Deadline      string `json:"deadline"`
}

type goalResponse struct {
	ID                 int64   `json:"id"`
	Title              string  `json:"title"`
	TargetAmount       string  `json:"target_amount"`
	CurrentAmount      string  `json:"current_amount"`
	Currency           string  `json:"currency"`
	Deadline           string  `json:"deadline,omitempty"`
	Status             string  `json:"status"`
	ProgressPercentage float64 `json:"progress_percentage"`
	DaysRemaining      *int    `json:"days_remaining,omitempty"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeServiceError(w, r, core.ErrInvalidTarget)
		return
	}

	g := core.Goal{
		UserID:       uid,
		Title:        req.Title,
		TargetAmount: target,
		Currency:     req.Currency,
		Status:       core.GoalActive,
	}
	if req.CurrentAmount != "" {
		current, err := core.ParseAmount(req.CurrentAmount)
		if err != nil {
			writeServiceError(w, r, core.ErrInvalidAmount)
			return
		}
		g.CurrentAmount = current
	}
	if req.Deadline != "" {
		d, err := parseDate(req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline, expected YYYY-MM-DD")
			return
		}
		g.Deadline = &d
	}

	id, err := s.goals.Create(r.Context(), g)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	gp, err := s.goals.Progress(r.Context(), uid, id, core.DateOf(time.Now()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goalToResponse(gp.Goal, gp.Progress.ProgressPercentage, gp.Progress.DaysRemaining))
}

func (s *Server) handleGoalContribute(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	g, err := s.goals.Contribute(r.Context(), uid, id, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goalToResponse(g, 0, nil))
}

func (s *Server) handleGoalCancel(w http.ResponseWriter, r *http.Request) {
	s.handleGoalTransition(w, r, "cancel")
}

func (s *Server) handleGoalReactivate(w http.ResponseWriter, r *http.Request) {
	s.handleGoalTransition(w, r, "reactivate")
}

func (s *Server) handleGoalTransition(w http.ResponseWriter, r *http.Request, action string) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	var g core.Goal
	if action == "cancel" {
		g, err = s.goals.Cancel(r.Context(), uid, id)
	} else {
		g, err = s.goals.Reactivate(r.Context(), uid, id)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goalToResponse(g, 0, nil))
}

func goalToResponse(g core.Goal, progress float64, days *int) goalResponse {
	resp := goalResponse{
		ID:                 g.ID,
		Title:              g.Title,
		TargetAmount:       g.TargetAmount.String(),
		CurrentAmount:      g.CurrentAmount.String(),
		Currency:           g.Currency,
		Status:             string(g.Status),
		ProgressPercentage: progress,
		DaysRemaining:      days,
	}
	if g.Deadline != nil {
		resp.Deadline = g.Deadline.Format("2006-01-02")
	}
	return resp
}
