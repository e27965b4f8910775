package worker

import (
	"context"
	"log/slog"
	"time"

	"moneta/internal/core"
	"moneta/internal/services"
	"moneta/internal/storage"
)

// RecurringWorker periodically materializes due recurring transactions.
type RecurringWorker struct {
	recurring *services.RecurringService
	interval  time.Duration
}

func NewRecurringWorker(recurring *services.RecurringService, interval time.Duration) *RecurringWorker {
	return &RecurringWorker{recurring: recurring, interval: interval}
}

// Run processes once immediately, then on every tick until ctx is cancelled.
func (w *RecurringWorker) Run(ctx context.Context) error {
	w.processOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.processOnce(ctx)
		}
	}
}

func (w *RecurringWorker) processOnce(ctx context.Context) {
	summary, err := w.recurring.ProcessDue(ctx, core.DateOf(time.Now()))
	if err != nil {
		slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
		return
	}
	if len(summary.Failures) > 0 {
		slog.WarnContext(ctx, "Recurring processing finished with failures",
			"created", summary.Created,
			"skipped", summary.Skipped,
			"failures", len(summary.Failures))
	}
}

// RatesWorker periodically refreshes exchange rates for every user that owns
// a currency table.
type RatesWorker struct {
	storage    *storage.SQLiteRepository
	currencies *services.CurrencyService
	interval   time.Duration
}

func NewRatesWorker(st *storage.SQLiteRepository, currencies *services.CurrencyService, interval time.Duration) *RatesWorker {
	return &RatesWorker{storage: st, currencies: currencies, interval: interval}
}

func (w *RatesWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

func (w *RatesWorker) refreshAll(ctx context.Context) {
	userIDs, err := w.storage.ListCurrencyUserIDs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list users for rate refresh", "error", err)
		return
	}
	for _, userID := range userIDs {
		if _, err := w.currencies.RefreshRates(ctx, userID); err != nil {
			// Stored rates stay as they were; the next tick retries.
			slog.WarnContext(ctx, "Rate refresh failed, keeping previous rates",
				"user_id", userID, "error", err)
		}
	}
}
