package http

import (
	"net/http"
	"strings"
	"time"

	"budgetbook/internal/core"
)

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	amountStr := r.URL.Query().Get("amount")
	target := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("to")))
	if amountStr == "" || target == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount and to are required"})
		return
	}
	amount, err := core.ParseMoney(amountStr)
	if err != nil {
		writeError(w, r, err)
		return
	}

	converted, rate, err := s.rates.Convert(r.Context(), amount, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"base":      s.rates.Base(),
		"target":    target,
		"amount":    amount.String(),
		"rate":      rate,
		"converted": converted.String(),
	})
}

func (s *Server) handleRateRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	snap, err := s.rates.Refresh(r.Context(), true)
	if err != nil {
		// The previous snapshot stays in effect on a failed refresh.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":      "refresh failed",
			"base":       snap.Base,
			"fetched_at": formatFetchedAt(snap.FetchedAt),
			"currencies": len(snap.Rates),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"base":       snap.Base,
		"fetched_at": formatFetchedAt(snap.FetchedAt),
		"currencies": len(snap.Rates),
	})
}

func formatFetchedAt(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
