package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

func TestAppend(t *testing.T) {
	s := New()
	tx := core.Transaction{
		UserID:   1,
		Type:     core.Outcome,
		Amount:   decimal.RequireFromString("12.50"),
		Currency: "USD",
		Date:     core.NewDate(2024, 3, 10),
	}

	ref, err := s.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}
	if got := s.Items(); len(got) != 1 || !got[0].Amount.Equal(tx.Amount) {
		t.Errorf("Items() = %+v, want the appended transaction", got)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.Append(context.Background(), core.Transaction{
		Type:   core.Income,
		Amount: decimal.Zero,
		Date:   core.NewDate(2024, 1, 1),
	})
	if err == nil {
		t.Error("Append accepted a zero amount")
	}
	if len(s.Items()) != 0 {
		t.Error("invalid transaction was stored")
	}
}
