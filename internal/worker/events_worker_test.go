package worker

import (
	"context"
	"testing"

	"budgetbook/internal/amqp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want eventKind
	}{
		{
			name: "transaction recorded",
			body: mustJSON(t, amqp.NewTransactionRecordedMessage("TX001", "expense", "Food", 1500)),
			want: eventTransactionRecorded,
		},
		{
			name: "budget exceeded",
			body: mustJSON(t, amqp.NewBudgetExceededMessage("Books", 5000, 2025, 3)),
			want: eventBudgetExceeded,
		},
		{
			name: "unrelated payload",
			body: []byte(`{"hello":"world"}`),
			want: eventUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classify(tt.body)
			if err != nil {
				t.Fatalf("classify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := classify([]byte("not json")); err == nil {
		t.Error("classify() on invalid JSON should error")
	}
}

func TestHandle(t *testing.T) {
	w := NewEventsWorker(nil, nil)
	ctx := context.Background()

	if err := w.handle(ctx, mustJSON(t, amqp.NewTransactionRecordedMessage("TX002", "income", "", 100000))); err != nil {
		t.Errorf("handle(transaction) error = %v", err)
	}
	if err := w.handle(ctx, mustJSON(t, amqp.NewBudgetExceededMessage("Books", 5000, 2025, 3))); err != nil {
		t.Errorf("handle(budget) error = %v", err)
	}
	if err := w.handle(ctx, []byte(`{"hello":"world"}`)); err == nil {
		t.Error("handle(unknown) should error")
	}
}

type jsonable interface {
	ToJSON() ([]byte, error)
}

func mustJSON(t *testing.T, m jsonable) []byte {
	t.Helper()
	b, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	return b
}
