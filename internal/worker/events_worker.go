// Package worker consumes ledger events from the queue. It backs the
// budget-worker binary, which turns budget overruns into durable alert
// log lines without blocking the API process.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/log"
)

// EventsWorker drains the ledger event queue and dispatches by payload
// shape. Both message types share one routing key.
type EventsWorker struct {
	client *amqp.Client
	logs   *log.StructuredLogger
}

func NewEventsWorker(client *amqp.Client, logger *log.Logger) *EventsWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &EventsWorker{
		client: client,
		logs:   log.NewStructuredLogger(logger.WithComponent(log.ComponentAMQP)),
	}
}

// Run consumes until the context is cancelled or the delivery channel
// closes. Malformed messages are rejected without requeue so they cannot
// poison the queue.
func (w *EventsWorker) Run(ctx context.Context) error {
	deliveries, err := w.client.Consume(ctx)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Events worker started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := w.handle(ctx, d.Body); err != nil {
				w.logs.LogError(ctx, "Failed to handle event", err, log.ComponentAMQP, log.OpList, log.NewFields())
				if err := d.Nack(false, false); err != nil {
					slog.ErrorContext(ctx, "Failed to nack message", "error", err)
				}
				continue
			}
			if err := d.Ack(false); err != nil {
				slog.ErrorContext(ctx, "Failed to ack message", "error", err)
			}
		}
	}
}

func (w *EventsWorker) handle(ctx context.Context, body []byte) error {
	kind, err := classify(body)
	if err != nil {
		return err
	}

	switch kind {
	case eventBudgetExceeded:
		msg, err := amqp.BudgetExceededMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("decode budget message: %w", err)
		}
		w.logs.LogBudgetExceeded(ctx, msg.Category, msg.OverageCents, msg.Year, msg.Month)
		return nil
	case eventTransactionRecorded:
		msg, err := amqp.TransactionRecordedMessageFromJSON(body)
		if err != nil {
			return fmt.Errorf("decode transaction message: %w", err)
		}
		w.logs.LogTransactionRecorded(ctx, msg.TxID, msg.Kind, msg.Category, msg.AmountCents)
		return nil
	default:
		return fmt.Errorf("unrecognized event payload")
	}
}

type eventKind int

const (
	eventUnknown eventKind = iota
	eventTransactionRecorded
	eventBudgetExceeded
)

// classify sniffs the payload shape; the publisher sends both message
// types with the same routing key.
func classify(body []byte) (eventKind, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return eventUnknown, fmt.Errorf("decode event: %w", err)
	}
	if _, ok := fields["overage_cents"]; ok {
		return eventBudgetExceeded, nil
	}
	if _, ok := fields["tx_id"]; ok {
		return eventTransactionRecorded, nil
	}
	return eventUnknown, nil
}
