package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage announces a newly persisted ledger row.
// Consumers interested in the full record fetch it by id.
type TransactionRecordedMessage struct {
	TxID        string    `json:"tx_id"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(txID, kind, category string, amountCents int64) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		TxID:        txID,
		Kind:        kind,
		Category:    category,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON creates a message from JSON bytes.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetExceededMessage announces that a category's month-to-date expense
// total went past its configured limit.
type BudgetExceededMessage struct {
	Category     string    `json:"category"`
	OverageCents int64     `json:"overage_cents"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewBudgetExceededMessage(category string, overageCents int64, year, month int) *BudgetExceededMessage {
	return &BudgetExceededMessage{
		Category:     category,
		OverageCents: overageCents,
		Year:         year,
		Month:        month,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BudgetExceededMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetExceededMessageFromJSON creates a message from JSON bytes.
func BudgetExceededMessageFromJSON(data []byte) (*BudgetExceededMessage, error) {
	var msg BudgetExceededMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
