package http

import (
	"net/http"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/services"
)

func addInputFrom(req createTransactionRequest, date time.Time, amount core.Money) services.AddInput {
	return services.AddInput{
		Date:        date,
		Kind:        core.ParseKind(req.Type),
		Category:    sanitizeInput(req.Category),
		Amount:      amount,
		Description: sanitizeInput(req.Description),
	}
}

// transactionJSON is the wire form of a ledger row. Amounts travel as
// decimal strings so clients never see float cents.
type transactionJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	AmountRM    string `json:"amount_rm"`
	Description string `json:"description"`
}

type budgetAlertJSON struct {
	Category  string `json:"category"`
	LimitRM   string `json:"limit_rm"`
	SpentRM   string `json:"spent_rm"`
	OverageRM string `json:"overage_rm"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Date:        tx.Date.Format(core.DateLayout),
		Type:        string(tx.Kind),
		Category:    tx.Category,
		AmountRM:    tx.Amount.String(),
		Description: tx.Description,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, stats, err := s.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"coerced_rows": stats.Coerced,
	})
}

type createTransactionRequest struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	AmountRM    string `json:"amount_rm"`
	Description string `json:"description"`
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	amount, err := core.ParseMoney(req.AmountRM)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date, expected YYYY-MM-DD"})
		return
	}

	saved, alert, err := s.svc.Add(r.Context(), addInputFrom(req, date, amount))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := map[string]any{"transaction": toTransactionJSON(saved)}
	if alert != nil {
		resp["budget_alert"] = budgetAlertJSON{
			Category:  alert.Category,
			LimitRM:   alert.Limit.String(),
			SpentRM:   alert.Spent.String(),
			OverageRM: alert.Overage.String(),
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(transactionID(r.URL.Path))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing transaction id"})
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateTransaction(w, r, id)
	case http.MethodDelete:
		s.deleteTransaction(w, r, id)
	default:
		writeMethodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

type updateTransactionRequest struct {
	Date        *string `json:"date"`
	Type        *string `json:"type"`
	Category    *string `json:"category"`
	AmountRM    *string `json:"amount_rm"`
	Description *string `json:"description"`
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var p ledger.Patch
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid date, expected YYYY-MM-DD"})
			return
		}
		p.Date = &d
	}
	if req.Type != nil {
		k := core.ParseKind(*req.Type)
		p.Kind = &k
	}
	if req.Category != nil {
		c := sanitizeInput(*req.Category)
		p.Category = &c
	}
	if req.AmountRM != nil {
		a, err := core.ParseMoney(*req.AmountRM)
		if err != nil {
			writeError(w, r, err)
			return
		}
		p.Amount = &a
	}
	if req.Description != nil {
		d := sanitizeInput(*req.Description)
		p.Description = &d
	}

	if err := s.svc.Update(r.Context(), id, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.svc.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	restored, err := s.svc.UndoRemove(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": toTransactionJSON(restored)})
}

type transferRequest struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountRM    string `json:"amount_rm"`
	Description string `json:"description"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	amount, err := core.ParseMoney(req.AmountRM)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := s.svc.UseSavings(r.Context(), sanitizeInput(req.From), sanitizeInput(req.To), amount, sanitizeInput(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"withdrawal": toTransactionJSON(pair[0]),
		"expense":    toTransactionJSON(pair[1]),
	})
}
