package amqp

import (
	"encoding/json"
	"time"
)

const (
	SourceManual    = "manual"
	SourceRecurring = "recurring"
)

// TransactionCreatedMessage announces a newly persisted transaction. Source
// tells the consumer whether it came from the API or from recurring
// materialization.
type TransactionCreatedMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionCreatedMessage(id, userID int64, source string) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		ID:        id,
		UserID:    userID,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var m TransactionCreatedMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// BudgetAlertMessage is emitted when a budget crosses its alert threshold or
// is exceeded after new spending lands.
type BudgetAlertMessage struct {
	BudgetID   int64     `json:"budget_id"`
	UserID     int64     `json:"user_id"`
	Percentage float64   `json:"percentage"`
	Exceeded   bool      `json:"exceeded"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(budgetID, userID int64, percentage float64, exceeded bool) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:   budgetID,
		UserID:     userID,
		Percentage: percentage,
		Exceeded:   exceeded,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var m BudgetAlertMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Envelope wraps every published message so a single queue can carry both
// kinds. Payload is decoded according to Kind.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

const (
	KindTransactionCreated = "transaction.created"
	KindBudgetAlert        = "budget.alert"
)

func wrap(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Kind: kind, Payload: raw})
}
