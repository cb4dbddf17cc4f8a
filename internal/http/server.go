// Package http exposes the ledger, budgets, reports and exchange rates
// as a JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"budgetbook/internal/log"
	"budgetbook/internal/middleware/trace"
	"budgetbook/internal/rates"
	"budgetbook/internal/services"
)

// Server wires the service layer to HTTP handlers.
type Server struct {
	svc    *services.LedgerService
	rates  *rates.Cache
	logger *log.Logger
	http   *http.Server
}

func NewServer(addr string, svc *services.LedgerService, rateCache *rates.Cache, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		svc:    svc,
		rates:  rateCache,
		logger: logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	traced := trace.NewMiddleware(trace.ClientIP)
	withRequestID := log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.RequestIDFromContext(r.Context())
	})
	handler := log.Middleware(logger)(traced.Middleware(withRequestID(mux)))

	s.http = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)

	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/transactions/undo", s.handleUndo)
	mux.HandleFunc("/api/transfers", s.handleTransfer)

	mux.HandleFunc("/api/budgets", s.handleBudgets)

	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/breakdown", s.handleBreakdown)
	mux.HandleFunc("/api/forecast", s.handleForecast)
	mux.HandleFunc("/api/daily", s.handleDaily)
	mux.HandleFunc("/api/savings", s.handleSavings)
	mux.HandleFunc("/api/export", s.handleExport)

	mux.HandleFunc("/api/convert", s.handleConvert)
	mux.HandleFunc("/api/rates/refresh", s.handleRateRefresh)
}

// Start begins serving. It blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}

// Handler exposes the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// transactionID extracts the id path segment from /api/transactions/{id}.
func transactionID(path string) string {
	id := strings.TrimPrefix(path, "/api/transactions/")
	if i := strings.IndexByte(id, '/'); i >= 0 {
		id = id[:i]
	}
	return id
}
