package worker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/export/memory"
	"moneta/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHandleTransactionCreated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: 1, Type: core.Outcome, Amount: decimal.RequireFromString("12.50"),
		Currency: "USD", Date: core.NewDate(2024, 5, 2), Description: "Coffee",
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	store := memory.New()
	w := NewSyncWorker(repo, nil, store)

	msg := amqp.NewTransactionCreatedMessage(id, 1, amqp.SourceManual)
	if err := w.handleTransactionCreated(ctx, msg); err != nil {
		t.Fatalf("handleTransactionCreated: %v", err)
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("exported = %d items, want 1", len(items))
	}
	if items[0].Description != "Coffee" {
		t.Errorf("exported description = %q, want Coffee", items[0].Description)
	}
}

func TestHandleTransactionCreated_VanishedRow(t *testing.T) {
	repo := newTestRepo(t)
	store := memory.New()
	w := NewSyncWorker(repo, nil, store)

	// A transaction deleted between publish and consume is dropped, not
	// retried forever.
	msg := amqp.NewTransactionCreatedMessage(9999, 1, amqp.SourceManual)
	if err := w.handleTransactionCreated(context.Background(), msg); err != nil {
		t.Errorf("handleTransactionCreated = %v, want nil for missing row", err)
	}
	if len(store.Items()) != 0 {
		t.Error("something was exported for a missing row")
	}
}
