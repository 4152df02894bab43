package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseCreatedMessage announces a committed insert to external
// consumers. It carries the day bucket so a consumer can refresh derived
// reports without fetching the record first.
type ExpenseCreatedMessage struct {
	ID          int64     `json:"id"`
	Day         int64     `json:"day"` // day bucket start, epoch millis
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseCreatedMessage(id, day, amountCents int64, category string) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:          id,
		Day:         day,
		AmountCents: amountCents,
		Category:    category,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON creates a message from JSON bytes
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
