package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"budgetbook/internal/core"
)

var exportHeader = []string{"date", "type", "category", "amount_rm", "description", "tx_id"}

// ExportMonth writes the month's transactions as CSV in a
// spreadsheet-friendly column order. The ledger file itself is never the
// export target.
func (s *LedgerService) ExportMonth(ctx context.Context, w io.Writer, year int, month time.Month) (int, error) {
	txs, _, err := s.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("write export header: %w", err)
	}
	count := 0
	for _, tx := range txs {
		if !tx.InMonth(year, month) {
			continue
		}
		row := []string{
			tx.Date.Format(core.DateLayout),
			string(tx.Kind),
			tx.Category,
			tx.Amount.String(),
			tx.Description,
			tx.ID,
		}
		if err := cw.Write(row); err != nil {
			return count, fmt.Errorf("write export row: %w", err)
		}
		count++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush export: %w", err)
	}
	return count, nil
}
