package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/storage"
)

// TransactionService persists ledger entries and announces them over AMQP.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	budgets    *BudgetService
}

func NewTransactionService(st *storage.SQLiteRepository, amqpClient *amqp.Client, budgets *BudgetService) *TransactionService {
	return &TransactionService{storage: st, amqpClient: amqpClient, budgets: budgets}
}

// Create validates and saves a transaction, then publishes the created event
// and checks budget alerts. Event and alert failures are logged, not
// returned; the local save is what matters.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.amqpClient.PublishTransactionCreated(ctx, id, t.UserID, amqp.SourceManual); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "user_id", t.UserID, "error", err)
	}

	if s.budgets != nil && t.Type == core.Outcome {
		s.budgets.CheckAlerts(ctx, t.UserID, t.Date.Year(), t.Date.Month())
	}
	return id, nil
}

func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.storage.SoftDeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}
