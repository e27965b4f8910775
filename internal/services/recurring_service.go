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

// RecurringService materializes due recurring templates into transactions.
type RecurringService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	budgets    *BudgetService
}

func NewRecurringService(st *storage.SQLiteRepository, amqpClient *amqp.Client, budgets *BudgetService) *RecurringService {
	return &RecurringService{storage: st, amqpClient: amqpClient, budgets: budgets}
}

// Create validates and stores a new template. A zero next date starts the
// series at the start date.
func (s *RecurringService) Create(ctx context.Context, r core.RecurringTransaction) (int64, error) {
	if r.NextDate.IsZero() {
		r.NextDate = r.StartDate
	}
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("validate recurring transaction: %w", err)
	}
	return s.storage.CreateRecurring(ctx, r)
}

type (
	// ProcessFailure records one occurrence that could not be persisted. The
	// pass keeps going; the occurrence will be retried on the next run since
	// the template only advances when its update lands.
	ProcessFailure struct {
		UserID int64
		Date   core.Date
		Reason string
	}

	// ProcessSummary is the outcome of one materialization run.
	ProcessSummary struct {
		Created  int
		Skipped  int
		Failures []ProcessFailure
	}
)

// ProcessDue materializes every due occurrence across all users as of the
// given date. Each created transaction is announced over AMQP; budget alerts
// are checked for every month that received new outcome spending. Failures
// on individual entries are collected, never raised.
func (s *RecurringService) ProcessDue(ctx context.Context, asOf core.Date) (ProcessSummary, error) {
	due, err := s.storage.ListDueRecurring(ctx, asOf)
	if err != nil {
		return ProcessSummary{}, fmt.Errorf("list due recurring: %w", err)
	}
	if len(due) == 0 {
		return ProcessSummary{}, nil
	}

	prevNext := make(map[int64]core.Date, len(due))
	byUser := make(map[int64][]core.RecurringTransaction)
	for _, r := range due {
		prevNext[r.ID] = r.NextDate
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	var summary ProcessSummary
	for userID, recs := range byUser {
		existing, err := s.storage.ListTransactions(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load ledger for materialization",
				"user_id", userID, "error", err)
			summary.Failures = append(summary.Failures, ProcessFailure{
				UserID: userID, Date: asOf, Reason: fmt.Sprintf("load ledger: %v", err),
			})
			continue
		}

		res := finance.ProcessDue(recs, asOf, existing)
		summary.Skipped += len(res.Skipped)

		// Templates advance only when every insert landed, so a failed
		// occurrence is retried next run instead of silently lost.
		persistFailed := false
		alertMonths := make(map[[2]int]bool)
		for _, tx := range res.Created {
			id, err := s.storage.CreateTransaction(ctx, tx)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to persist materialized transaction",
					"user_id", tx.UserID, "date", tx.Date.Format("2006-01-02"), "error", err)
				summary.Failures = append(summary.Failures, ProcessFailure{
					UserID: tx.UserID, Date: tx.Date, Reason: err.Error(),
				})
				persistFailed = true
				continue
			}
			summary.Created++

			if err := s.amqpClient.PublishTransactionCreated(ctx, id, tx.UserID, amqp.SourceRecurring); err != nil {
				slog.ErrorContext(ctx, "Failed to publish materialized transaction event",
					"id", id, "user_id", tx.UserID, "error", err)
			}
			if tx.Type == core.Outcome {
				alertMonths[[2]int{tx.Date.Year(), tx.Date.Month()}] = true
			}
		}

		for _, rec := range res.Updated {
			if persistFailed {
				continue
			}
			advanced, err := s.storage.ApplyRecurringAdvance(ctx, rec, prevNext[rec.ID])
			if err != nil {
				slog.ErrorContext(ctx, "Failed to advance recurring template",
					"recurring_id", rec.ID, "error", err)
				summary.Failures = append(summary.Failures, ProcessFailure{
					UserID: rec.UserID, Date: rec.NextDate, Reason: err.Error(),
				})
				continue
			}
			if !advanced {
				slog.WarnContext(ctx, "Recurring template advanced by another run",
					"recurring_id", rec.ID)
			}
		}

		if s.budgets != nil {
			for ym := range alertMonths {
				s.budgets.CheckAlerts(ctx, userID, ym[0], ym[1])
			}
		}
	}

	slog.InfoContext(ctx, "Recurring materialization finished",
		"as_of", asOf.Format("2006-01-02"),
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failures", len(summary.Failures))
	return summary, nil
}
