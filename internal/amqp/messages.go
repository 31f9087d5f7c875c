package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"catat/internal/core"
)

// ExpenseRecorded is emitted once a record has been written to the store.
type ExpenseRecorded struct {
	EventID    string    `json:"event_id"`
	RecordRef  string    `json:"record_ref"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Amount     int64     `json:"amount"`
	Date       time.Time `json:"date"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewExpenseRecorded builds the event for a stored expense.
func NewExpenseRecorded(ref string, e core.Expense) *ExpenseRecorded {
	return &ExpenseRecorded{
		EventID:    uuid.NewString(),
		RecordRef:  ref,
		Title:      e.Title,
		Category:   e.Category,
		Amount:     e.Amount,
		Date:       e.Date.UTC(),
		RecordedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRecordedFromJSON decodes an event body.
func ExpenseRecordedFromJSON(data []byte) (*ExpenseRecorded, error) {
	var msg ExpenseRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Expense returns the recorded expense carried by the event.
func (m *ExpenseRecorded) Expense() core.Expense {
	return core.Expense{
		Title:    m.Title,
		Date:     m.Date.UTC(),
		Category: m.Category,
		Amount:   m.Amount,
	}
}
