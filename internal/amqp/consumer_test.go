package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"catat/internal/core"
)

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(multiple, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestDispatch(t *testing.T) {
	e := core.Expense{Title: "Coffee", Category: "Food", Amount: 20000, Date: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	body, err := NewExpenseRecorded("ref-1", e).ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantAck     bool
		wantRequeue bool
		wantHandled bool
	}{
		{name: "success acks", body: body, wantAck: true, wantHandled: true},
		{name: "handler failure requeues", body: body, handlerErr: errors.New("db locked"), wantRequeue: true, wantHandled: true},
		{name: "bad body is dropped", body: []byte("{not json"), wantHandled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			handled := false
			dispatch(context.Background(), tt.body, ack, func(ctx context.Context, msg *ExpenseRecorded) error {
				handled = true
				got := msg.Expense()
				if got.Title != e.Title || got.Category != e.Category || got.Amount != e.Amount || !got.Date.Equal(e.Date) {
					t.Fatalf("unexpected expense %+v", got)
				}
				return tt.handlerErr
			})

			if handled != tt.wantHandled {
				t.Fatalf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if ack.acked != tt.wantAck {
				t.Fatalf("acked = %v, want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && !ack.nacked {
				t.Fatalf("expected a nack")
			}
			if ack.requeued != tt.wantRequeue {
				t.Fatalf("requeued = %v, want %v", ack.requeued, tt.wantRequeue)
			}
		})
	}
}
