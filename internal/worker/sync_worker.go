// Package worker hosts the background loops: the AMQP-driven export worker
// and the periodic recurring and rate-refresh tickers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/amqp"
	"moneta/internal/export"
	"moneta/internal/storage"
)

// SyncWorker mirrors created transactions to the configured export backend
// as transaction.created events arrive.
type SyncWorker struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	exporter   export.TransactionAppender
}

func NewSyncWorker(st *storage.SQLiteRepository, amqpClient *amqp.Client, exporter export.TransactionAppender) *SyncWorker {
	return &SyncWorker{storage: st, amqpClient: amqpClient, exporter: exporter}
}

// Run consumes events until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	return w.amqpClient.Consume(ctx, amqp.Handler{
		OnTransactionCreated: func(msg *amqp.TransactionCreatedMessage) error {
			return w.handleTransactionCreated(ctx, msg)
		},
		OnBudgetAlert: func(msg *amqp.BudgetAlertMessage) error {
			// Alerts have no side effect here yet; log them so they show up
			// somewhere operators look.
			slog.WarnContext(ctx, "Budget alert received",
				"budget_id", msg.BudgetID,
				"user_id", msg.UserID,
				"percentage", msg.Percentage,
				"exceeded", msg.Exceeded)
			return nil
		},
	})
}

func (w *SyncWorker) handleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between publish and consume; nothing to mirror.
		slog.InfoContext(ctx, "Skipping export of vanished transaction", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", msg.ID, err)
	}

	ref, err := w.exporter.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("export transaction %d: %w", msg.ID, err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", msg.ID,
		"user_id", msg.UserID,
		"source", msg.Source,
		"ref", ref)
	return nil
}
