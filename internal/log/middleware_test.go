package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newCaptureLogger(buf *bytes.Buffer) *Logger {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return New(Config{Handler: handler, Component: ComponentApp})
}

func decodeFirstLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line, _, _ := strings.Cut(buf.String(), "\n")
	if line == "" {
		t.Fatal("no log output captured")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	return rec
}

func TestLogTransactionRecorded(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newCaptureLogger(&buf))

	sl.LogTransactionRecorded(context.Background(), "TX001", "expense", "Food", 1500)

	rec := decodeFirstLine(t, &buf)
	if rec[FieldTxID] != "TX001" {
		t.Errorf("tx_id = %v, want TX001", rec[FieldTxID])
	}
	if rec[FieldKind] != "expense" {
		t.Errorf("kind = %v, want expense", rec[FieldKind])
	}
	if rec[FieldAmountCents] != float64(1500) {
		t.Errorf("amount_cents = %v, want 1500", rec[FieldAmountCents])
	}
	if rec[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentLedger)
	}
}

func TestLogBudgetExceeded(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newCaptureLogger(&buf))

	sl.LogBudgetExceeded(context.Background(), "Books", 5000, 2025, 3)

	rec := decodeFirstLine(t, &buf)
	if rec["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", rec["level"])
	}
	if rec[FieldCategory] != "Books" {
		t.Errorf("category = %v, want Books", rec[FieldCategory])
	}
	if rec[FieldOverageCents] != float64(5000) {
		t.Errorf("overage_cents = %v, want 5000", rec[FieldOverageCents])
	}
	if rec[FieldYear] != float64(2025) || rec[FieldMonth] != float64(3) {
		t.Errorf("month = %v-%v, want 2025-3", rec[FieldYear], rec[FieldMonth])
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newCaptureLogger(&buf))

	sl.LogError(context.Background(), "Failed to handle event", errors.New("boom"), ComponentAMQP, OpList, NewFields())

	rec := decodeFirstLine(t, &buf)
	if rec["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", rec["level"])
	}
	if rec[FieldError] != "boom" {
		t.Errorf("error = %v, want boom", rec[FieldError])
	}
	if rec[FieldComponent] != ComponentAMQP {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentAMQP)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := newCaptureLogger(&buf)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handled")
	})
	withID := RequestIDMiddleware(func(*http.Request) string { return "req-42" })
	h := Middleware(logger)(withID(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	rec := decodeFirstLine(t, &buf)
	if rec[FieldRequestID] != "req-42" {
		t.Errorf("request_id = %v, want req-42", rec[FieldRequestID])
	}
}
