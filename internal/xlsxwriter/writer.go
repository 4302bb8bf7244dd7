// =============================================================================
// MC Generator - Template Writer
// =============================================================================
//
// This module writes filtered billing rows into the calculation memo template.
//
// WRITE PROCESS:
//   1. Open a fresh copy of the template from its bytes
//   2. Read row 1 of the active sheet as the template headers (trimmed)
//   3. Start after the last row with content (row 2 for an empty template)
//   4. For each input row, write every mapped column whose template header
//      exists, applying the column transforms
//   5. Style parent rows, copy the reference row style to new rows and keep
//      the currency number format on monetary cells
//   6. Serialise the workbook to memory
//
// COLUMN TRANSFORMS (by source column type):
//   - date     : MM/YYYY text
//   - document : CPF XXX.XXX.XXX-XX or CNPJ XX.XXX.XXX/XXXX-XX
//   - currency : number with the "#,##0.00" format
//   - empty    : blank cell
//
// =============================================================================

package xlsxwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/logging"
	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/xuri/excelize/v2"
)

// CurrencyFormat is the number format applied to monetary cells.
const CurrencyFormat = "#,##0.00"

// ParentFill is the background colour of grouped invoice rows.
const ParentFill = "FFF2CC"

// referenceRow is the template row whose style new rows inherit.
const referenceRow = 2

// =============================================================================
// WRITER STRUCTURE
// =============================================================================

// TemplateWriter fills the template. It holds only immutable inputs, so one
// writer may serve concurrent Generate calls.
type TemplateWriter struct {
	template []byte
	types    config.ColumnTypes
	logger   logging.Logger
}

// New creates a writer for the given template bytes.
//
// PARAMETERS:
//   - template: The template workbook. It is never modified.
//   - columnTypes: Declared source column types, used to pick transforms.
//   - logger: Progress logger. Nil discards.
func New(template []byte, columnTypes config.ColumnTypes, logger logging.Logger) *TemplateWriter {
	return &TemplateWriter{
		template: template,
		types:    columnTypes,
		logger:   logging.OrNop(logger),
	}
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate writes table into a copy of the template and returns the xlsx
// bytes.
//
// PARAMETERS:
//   - table: The rows to write. Row.Parent selects the parent style.
//   - pairs: Source -> template column pairs, in write order.
//
// RETURNS:
//   - The serialised workbook.
//   - An error if the template cannot be opened or written.
func (w *TemplateWriter) Generate(table *types.Table, pairs []config.ColumnPair) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(w.template))
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, fmt.Errorf("template has no active sheet")
	}

	existing, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read template rows: %w", err)
	}

	headers := templateHeaders(existing)
	startRow, err := firstFreeRow(f, sheet, len(existing))
	if err != nil {
		return nil, err
	}

	type target struct {
		source string
		col    int
		kind   config.ColumnType
	}
	var targets []target
	for _, p := range pairs {
		col, ok := headers[strings.TrimSpace(p.Target)]
		if !ok || !table.HasColumn(p.Source) {
			continue
		}
		targets = append(targets, target{source: p.Source, col: col, kind: w.types.TypeOf(p.Source)})
	}

	styles := newStyleCache(f)
	refStyles := make(map[int]int, len(targets))
	for _, t := range targets {
		cell, err := excelize.CoordinatesToCellName(t.col, referenceRow)
		if err != nil {
			return nil, err
		}
		id, err := f.GetCellStyle(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference style of %s: %w", cell, err)
		}
		refStyles[t.col] = id
	}

	current := startRow
	for _, row := range table.Rows {
		for _, t := range targets {
			cell, err := excelize.CoordinatesToCellName(t.col, current)
			if err != nil {
				return nil, err
			}

			if value, ok := renderValue(row.Get(t.source), t.kind); ok {
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return nil, fmt.Errorf("failed to write %s: %w", cell, err)
				}
			}

			base, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to read style of %s: %w", cell, err)
			}
			if !row.Parent && current > referenceRow && refStyles[t.col] != 0 {
				base = refStyles[t.col]
			}

			style, err := styles.derive(base, row.Parent, t.kind == config.TypeCurrency)
			if err != nil {
				return nil, err
			}
			if style != 0 {
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return nil, fmt.Errorf("failed to style %s: %w", cell, err)
				}
			}
		}
		current++
	}

	w.logger.Infof("Sheet generated with %d data rows", current-startRow)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialise workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// templateHeaders maps trimmed row 1 headers to 1-based column numbers.
func templateHeaders(rows [][]string) map[string]int {
	headers := make(map[string]int)
	if len(rows) == 0 {
		return headers
	}
	for i, h := range rows[0] {
		if name := strings.TrimSpace(h); name != "" {
			headers[name] = i + 1
		}
	}
	return headers
}

// firstFreeRow returns the row after the last row with content. A template
// holding only its header starts at row 2 when A2 is empty.
func firstFreeRow(f *excelize.File, sheet string, lastRow int) (int, error) {
	start := lastRow + 1
	if start <= referenceRow {
		a2, err := f.GetCellValue(sheet, "A2")
		if err != nil {
			return 0, fmt.Errorf("failed to read A2: %w", err)
		}
		if a2 == "" {
			start = referenceRow
		}
	}
	return start, nil
}

// renderValue applies the column transform. ok is false for empty values,
// which leave the cell blank.
func renderValue(v types.Value, kind config.ColumnType) (interface{}, bool) {
	if v.IsEmpty() {
		return nil, false
	}
	switch kind {
	case config.TypeDate:
		if v.Kind == types.KindDate {
			return FormatDate(v), true
		}
	case config.TypeDocument:
		return FormatDocument(v.String()), true
	}

	switch v.Kind {
	case types.KindNumber:
		return v.Number, true
	case types.KindDate:
		return v.Time, true
	default:
		return v.Text, true
	}
}

// =============================================================================
// FORMATTERS
// =============================================================================

// FormatDate renders a date as MM/YYYY.
func FormatDate(v types.Value) string {
	return v.Time.Format(types.PeriodLayout)
}

// FormatDocument formats a Brazilian taxpayer number. 11 digits are a CPF,
// 14 digits a CNPJ, and 12 or 13 digits a CNPJ that lost its leading zeros.
// Anything else is returned unchanged.
func FormatDocument(s string) string {
	digits := strings.NewReplacer(".", "", "-", "", "/", "", " ", "").Replace(strings.TrimSpace(s))
	for _, r := range digits {
		if r < '0' || r > '9' {
			return s
		}
	}

	switch n := len(digits); {
	case n == 11:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	case n == 12 || n == 13:
		digits = strings.Repeat("0", 14-n) + digits
		fallthrough
	case n == 14:
		return digits[:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:]
	default:
		return s
	}
}

// =============================================================================
// STYLES
// =============================================================================

type styleKey struct {
	base     int
	parent   bool
	currency bool
}

// styleCache derives and memoises styles within one workbook.
type styleCache struct {
	f       *excelize.File
	derived map[styleKey]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, derived: make(map[styleKey]int)}
}

// derive returns base with the parent font and fill and/or the currency
// format applied. With neither, base is returned as is.
func (c *styleCache) derive(base int, parent, currency bool) (int, error) {
	if !parent && !currency {
		return base, nil
	}
	key := styleKey{base: base, parent: parent, currency: currency}
	if id, ok := c.derived[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if base != 0 {
		s, err := c.f.GetStyle(base)
		if err != nil {
			return 0, fmt.Errorf("failed to read style %d: %w", base, err)
		}
		style = s
	}

	if parent {
		style.Font = &excelize.Font{Bold: true, Size: 11}
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{ParentFill}}
	}
	if currency {
		format := CurrencyFormat
		style.NumFmt = 0
		style.CustomNumFmt = &format
	}

	id, err := c.f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("failed to create style: %w", err)
	}
	c.derived[key] = id
	return id, nil
}
