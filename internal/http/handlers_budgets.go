package http

import (
	"net/http"
	"sort"

	"budgetbook/internal/core"
)

type budgetJSON struct {
	Category string `json:"category"`
	LimitRM  string `json:"limit_rm"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBudgets(w, r)
	case http.MethodPut:
		s.setBudget(w, r)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	limits, err := s.svc.Budgets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetJSON, 0, len(limits))
	for category, limit := range limits {
		out = append(out, budgetJSON{Category: category, LimitRM: limit.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}

func (s *Server) setBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetJSON
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	limit, err := core.ParseMoney(req.LimitRM)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.SetBudget(r.Context(), sanitizeInput(req.Category), limit); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetJSON{Category: sanitizeInput(req.Category), LimitRM: limit.String()})
}
