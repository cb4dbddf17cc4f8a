package ledger

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"budgetbook/internal/core"
)

// fileSchema tags the recognized on-disk header shapes. The layout changed
// across application revisions, so startup sniffs the header once and
// upgrades old files instead of destroying them.
type fileSchema int

const (
	schemaCanonical fileSchema = iota
	schemaLegacyV1             // tx_id,type,amount_rm,desc (no date, no category)
	schemaUnknown
)

// legacyV1Header is the four-column layout from the revision before dates
// and categories existed.
var legacyV1Header = []string{"tx_id", "type", "amount_rm", "desc"}

// columnAliases maps alternative header spellings seen in the wild to
// canonical column names, for the best-effort unknown-header upgrade.
var columnAliases = map[string]string{
	"tx_id":       "tx_id",
	"id":          "tx_id",
	"date":        "date",
	"day":         "date",
	"type":        "type",
	"kind":        "type",
	"category":    "category",
	"amount_rm":   "amount_rm",
	"amount":      "amount_rm",
	"amount_myr":  "amount_rm",
	"value":       "amount_rm",
	"desc":        "desc",
	"description": "desc",
	"note":        "desc",
}

// MigrateSchema detects the header shape and upgrades the file to the
// canonical layout. Canonical files are untouched, so running it twice is
// byte-stable. Intended to run once at startup, after EnsureStorage.
func (s *Store) MigrateSchema() error {
	rows, err := s.readAll()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(rows) == 0 {
		return writeCSV(s.path, [][]string{canonicalHeader})
	}

	switch detectSchema(rows[0]) {
	case schemaCanonical:
		return nil
	case schemaLegacyV1:
		return s.upgradeLegacyV1(rows)
	default:
		return s.upgradeUnknown(rows)
	}
}

func detectSchema(header []string) fileSchema {
	if headerEqual(header, canonicalHeader) {
		return schemaCanonical
	}
	if headerEqual(header, legacyV1Header) {
		return schemaLegacyV1
	}
	return schemaUnknown
}

// upgradeLegacyV1 inserts today's date and the "General" category into
// every row of the four-column layout.
func (s *Store) upgradeLegacyV1(rows [][]string) error {
	day := today(s.now()).Format(core.DateLayout)

	out := make([][]string, 0, len(rows))
	out = append(out, canonicalHeader)
	for _, row := range rows[1:] {
		// legacy order: tx_id, type, amount_rm, desc
		out = append(out, []string{
			cell(row, 0),
			day,
			cell(row, 1),
			core.DefaultCategory,
			cell(row, 2),
			cell(row, 3),
		})
	}
	return writeCSV(s.path, out)
}

// upgradeUnknown maps whatever columns it can recognize by name onto the
// canonical layout, synthesizing ids and dates where the file has none.
func (s *Store) upgradeUnknown(rows [][]string) error {
	mapped := make(map[string]int, len(canonicalHeader))
	for i, name := range rows[0] {
		canon, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := mapped[canon]; !dup {
			mapped[canon] = i
		}
	}

	day := today(s.now()).Format(core.DateLayout)

	out := make([][]string, 0, len(rows))
	out = append(out, canonicalHeader)
	for n, row := range rows[1:] {
		pick := func(canon string) string {
			if i, ok := mapped[canon]; ok {
				return cell(row, i)
			}
			return ""
		}

		id := strings.TrimSpace(pick("tx_id"))
		if id == "" {
			id = fmt.Sprintf("TX%03d", n+1)
		}
		date := strings.TrimSpace(pick("date"))
		if date == "" {
			date = day
		}
		out = append(out, []string{
			id,
			date,
			pick("type"),
			pick("category"),
			pick("amount_rm"),
			pick("desc"),
		})
	}
	return writeCSV(s.path, out)
}

func headerEqual(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.ToLower(strings.TrimSpace(got[i])) != want[i] {
			return false
		}
	}
	return true
}
