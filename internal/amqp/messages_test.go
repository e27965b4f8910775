package amqp

import (
	"context"
	"errors"
	"testing"
)

func TestDispatch(t *testing.T) {
	c := &Client{}

	var gotTx *TransactionCreatedMessage
	var gotAlert *BudgetAlertMessage
	h := Handler{
		OnTransactionCreated: func(m *TransactionCreatedMessage) error { gotTx = m; return nil },
		OnBudgetAlert:        func(m *BudgetAlertMessage) error { gotAlert = m; return nil },
	}

	body, err := wrap(KindTransactionCreated, NewTransactionCreatedMessage(42, 7, SourceRecurring))
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if err := c.dispatch(body, h); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if gotTx == nil || gotTx.ID != 42 || gotTx.UserID != 7 || gotTx.Source != SourceRecurring {
		t.Errorf("transaction handler got %+v", gotTx)
	}

	body, err = wrap(KindBudgetAlert, NewBudgetAlertMessage(3, 7, 92.5, false))
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if err := c.dispatch(body, h); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if gotAlert == nil || gotAlert.BudgetID != 3 || gotAlert.Percentage != 92.5 {
		t.Errorf("alert handler got %+v", gotAlert)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	c := &Client{}
	want := errors.New("export down")
	h := Handler{
		OnTransactionCreated: func(*TransactionCreatedMessage) error { return want },
	}

	body, _ := wrap(KindTransactionCreated, NewTransactionCreatedMessage(1, 1, SourceManual))
	if err := c.dispatch(body, h); !errors.Is(err, want) {
		t.Errorf("dispatch = %v, want handler error", err)
	}
}

func TestDispatchDropsMalformed(t *testing.T) {
	c := &Client{}
	h := Handler{
		OnTransactionCreated: func(*TransactionCreatedMessage) error {
			t.Error("handler called for malformed message")
			return nil
		},
	}

	// Undecodable bodies and unknown kinds are dropped, never retried.
	if err := c.dispatch([]byte("not json"), h); err != nil {
		t.Errorf("dispatch garbage = %v, want nil (dropped)", err)
	}
	if err := c.dispatch([]byte(`{"kind":"unknown.kind","payload":{}}`), h); err != nil {
		t.Errorf("dispatch unknown kind = %v, want nil (dropped)", err)
	}
}

func TestPublishOnNilClient(t *testing.T) {
	var c *Client
	if err := c.PublishTransactionCreated(context.Background(), 1, 1, SourceManual); err != nil {
		t.Errorf("nil client publish = %v, want nil", err)
	}
	if err := c.PublishBudgetAlert(context.Background(), 1, 1, 80, false); err != nil {
		t.Errorf("nil client alert = %v, want nil", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("nil client close = %v, want nil", err)
	}
}
