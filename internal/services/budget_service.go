package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/finance"
	"moneta/internal/storage"
)

// BudgetService evaluates budget status and raises threshold alerts.
type BudgetService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewBudgetService(st *storage.SQLiteRepository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{storage: st, amqpClient: amqpClient}
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("validate budget: %w", err)
	}
	return s.storage.CreateBudget(ctx, b)
}

func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

// BudgetWithStatus pairs a budget with its derived status.
type BudgetWithStatus struct {
	Budget core.Budget
	Status finance.BudgetStatus
}

// Status evaluates one budget against the user's ledger.
func (s *BudgetService) Status(ctx context.Context, userID, budgetID int64) (BudgetWithStatus, []finance.Anomaly, error) {
	b, err := s.storage.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return BudgetWithStatus{}, nil, fmt.Errorf("get budget: %w", err)
	}
	evaluated, anomalies, err := s.evaluate(ctx, []core.Budget{b})
	if err != nil {
		return BudgetWithStatus{}, nil, err
	}
	return evaluated[0], anomalies, nil
}

// StatusAll evaluates every budget of the user.
func (s *BudgetService) StatusAll(ctx context.Context, userID int64) ([]BudgetWithStatus, []finance.Anomaly, error) {
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list budgets: %w", err)
	}
	return s.evaluate(ctx, budgets)
}

func (s *BudgetService) evaluate(ctx context.Context, budgets []core.Budget) ([]BudgetWithStatus, []finance.Anomaly, error) {
	if len(budgets) == 0 {
		return nil, nil, nil
	}
	userID := budgets[0].UserID

	currencies, err := s.storage.ListCurrencies(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list currencies: %w", err)
	}
	txs, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}

	table := finance.NewTable(currencies)
	var diag finance.Diagnostics
	out := make([]BudgetWithStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetWithStatus{
			Budget: b,
			Status: finance.EvaluateBudget(b, txs, table, &diag),
		})
	}
	return out, diag.Anomalies(), nil
}

// CheckAlerts evaluates the user's budgets for one month and publishes an
// alert for each budget at or over its threshold. Failures are logged and
// swallowed; alerting must never break the write path that triggered it.
func (s *BudgetService) CheckAlerts(ctx context.Context, userID int64, year, month int) {
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budgets for alert check",
			"user_id", userID, "error", err)
		return
	}
	var period []core.Budget
	for _, b := range budgets {
		if b.Year == year && b.Month == month {
			period = append(period, b)
		}
	}
	if len(period) == 0 {
		return
	}

	evaluated, _, err := s.evaluate(ctx, period)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to evaluate budgets for alert check",
			"user_id", userID, "error", err)
		return
	}

	for _, e := range evaluated {
		if !e.Status.IsNearLimit && !e.Status.IsExceeded {
			continue
		}
		err := s.amqpClient.PublishBudgetAlert(ctx,
			e.Budget.ID, userID, e.Status.Percentage, e.Status.IsExceeded)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				"budget_id", e.Budget.ID, "user_id", userID, "error", err)
			continue
		}
		slog.WarnContext(ctx, "Budget alert raised",
			"budget_id", e.Budget.ID,
			"user_id", userID,
			"percentage", e.Status.Percentage,
			"exceeded", e.Status.IsExceeded)
	}
}
