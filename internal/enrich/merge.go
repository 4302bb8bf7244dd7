// =============================================================================
// MC Generator - Billing-Management Merge
// =============================================================================
//
// Enriches the billing balance with the billing-management workbook before it
// is cached:
//   1. Locate the unit, due date and status columns in the billing header by
//      accent- and case-insensitive name
//   2. Index billing rows by unit code (first occurrence wins)
//   3. Left-join every base row on its trimmed unit code
//   4. Add the due date column and let a non-empty billing status override
//      the base status
//
// A billing sheet without the unit column, or with neither a due date nor a
// status column, leaves the base untouched.
//
// =============================================================================

package enrich

import (
	"strings"
	"unicode"

	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/logging"
	"github.com/ginjaninja78/mcgen/internal/reader"
	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/ginjaninja78/mcgen/internal/xlsxparser"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DueDateLayout renders due dates.
const DueDateLayout = "02/01/2006"

var (
	unitHeaders    = []string{"instalacao", "uc", "no. uc"}
	dueDateHeaders = []string{"vencimento", "data de vencimento"}
	statusHeaders  = []string{"status", "status financeiro"}
)

// billingEntry is the data taken from one billing row.
type billingEntry struct {
	due    types.Value
	status string
}

// Merge returns base enriched with the billing sheet. base is not modified.
//
// PARAMETERS:
//   - base: The loaded billing balance.
//   - billing: The billing-management grid; row 1 is its header.
//   - cfg: Join, due date and status column names in the base.
//   - logger: Progress and warnings. Nil discards.
func Merge(base *types.Table, billing *xlsxparser.Grid, cfg config.BillingMerge, logger logging.Logger) *types.Table {
	logger = logging.OrNop(logger)

	if billing == nil || len(billing.Rows) == 0 {
		logger.Warnf("Billing sheet is empty, continuing with the balance only")
		return base
	}

	header := headerIndex(billing.Rows[0])
	unitCol := lookup(header, unitHeaders)
	dueCol := lookup(header, dueDateHeaders)
	statusCol := lookup(header, statusHeaders)

	if unitCol < 0 || (dueCol < 0 && statusCol < 0) {
		logger.Warnf("Key columns not found in the billing sheet: unit=%v, due date=%v, status=%v",
			unitCol >= 0, dueCol >= 0, statusCol >= 0)
		return base
	}
	if !base.HasColumn(cfg.JoinColumn) {
		logger.Warnf("Join column '%s' not found in the balance, skipping the merge", cfg.JoinColumn)
		return base
	}

	entries := make(map[string]billingEntry)
	for r := 1; r < len(billing.Rows); r++ {
		key := joinKey(billing.Cell(r, unitCol))
		if key == "" {
			continue
		}
		if _, dup := entries[key]; dup {
			continue
		}
		entries[key] = billingEntry{
			due:    dueDate(billing.Cell(r, dueCol)),
			status: strings.TrimSpace(billing.Cell(r, statusCol)),
		}
	}
	logger.Infof("Merging %d billing records into %d balance records", len(entries), base.Len())

	out := &types.Table{Columns: append([]string(nil), base.Columns...)}
	if dueCol >= 0 {
		out.AddColumn(cfg.DueDateColumn)
	}
	if statusCol >= 0 {
		out.AddColumn(cfg.StatusColumn)
	}

	matched := 0
	for _, row := range base.Rows {
		values := make(map[string]types.Value, len(row.Values)+2)
		for k, v := range row.Values {
			values[k] = v
		}

		entry, ok := entries[joinKey(row.Get(cfg.JoinColumn).String())]
		if ok {
			matched++
			if dueCol >= 0 {
				values[cfg.DueDateColumn] = entry.due
			}
			if entry.status != "" {
				values[cfg.StatusColumn] = types.Text(entry.status)
			}
		}

		row.Values = values
		out.Rows = append(out.Rows, row)
	}

	logger.Infof("Merge finished: %d of %d records matched", matched, out.Len())
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

// Fold lowercases s, trims it and removes diacritics.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := Fold(h)
		if _, ok := index[key]; !ok && key != "" {
			index[key] = i
		}
	}
	return index
}

// lookup returns the position of the first candidate present, or -1.
func lookup(header map[string]int, candidates []string) int {
	for _, c := range candidates {
		if i, ok := header[c]; ok {
			return i
		}
	}
	return -1
}

func joinKey(s string) string {
	return reader.NormalizeDocument(strings.TrimSpace(s))
}

func dueDate(raw string) types.Value {
	if strings.TrimSpace(raw) == "" {
		return types.Empty()
	}
	if t, ok := reader.ParseDate(raw); ok {
		return types.Text(t.Format(DueDateLayout))
	}
	return types.Text(strings.TrimSpace(raw))
}
