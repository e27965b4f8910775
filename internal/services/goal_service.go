package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/finance"
	"moneta/internal/storage"
)

// GoalService manages savings goals and derives their progress.
type GoalService struct {
	storage *storage.SQLiteRepository
}

func NewGoalService(st *storage.SQLiteRepository) *GoalService {
	return &GoalService{storage: st}
}

func (s *GoalService) Create(ctx context.Context, g core.Goal) (int64, error) {
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("validate goal: %w", err)
	}
	return s.storage.CreateGoal(ctx, g)
}

// GoalWithProgress pairs a goal with its derived progress.
type GoalWithProgress struct {
	Goal     core.Goal
	Progress finance.GoalProgress
}

func (s *GoalService) Progress(ctx context.Context, userID, goalID int64, asOf core.Date) (GoalWithProgress, error) {
	g, err := s.storage.GetGoal(ctx, userID, goalID)
	if err != nil {
		return GoalWithProgress{}, fmt.Errorf("get goal: %w", err)
	}
	return GoalWithProgress{Goal: g, Progress: finance.EvaluateGoal(g, asOf)}, nil
}

// Contribute adds an amount to the goal's saved total, completing the goal
// when the target is reached. Contributions to cancelled goals are rejected.
func (s *GoalService) Contribute(ctx context.Context, userID, goalID int64, amount decimal.Decimal) (core.Goal, error) {
	if !amount.IsPositive() {
		return core.Goal{}, core.ErrInvalidAmount
	}
	g, err := s.storage.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if g.Status == core.GoalCancelled {
		return core.Goal{}, core.ErrInvalidTransition
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if g.CurrentAmount.GreaterThan(g.TargetAmount) {
		g.CurrentAmount = g.TargetAmount
	}
	g.Refresh()

	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if g.Status == core.GoalCompleted {
		slog.InfoContext(ctx, "Goal completed", "goal_id", g.ID, "user_id", userID)
	}
	return g, nil
}

// Cancel moves a goal to cancelled.
func (s *GoalService) Cancel(ctx context.Context, userID, goalID int64) (core.Goal, error) {
	return s.transition(ctx, userID, goalID, (*core.Goal).Cancel)
}

// Reactivate moves a completed or cancelled goal back to active.
func (s *GoalService) Reactivate(ctx context.Context, userID, goalID int64) (core.Goal, error) {
	return s.transition(ctx, userID, goalID, (*core.Goal).Reactivate)
}

func (s *GoalService) transition(ctx context.Context, userID, goalID int64, step func(*core.Goal) error) (core.Goal, error) {
	g, err := s.storage.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if err := step(&g); err != nil {
		return core.Goal{}, err
	}
	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}
