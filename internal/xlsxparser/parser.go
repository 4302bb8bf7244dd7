// =============================================================================
// MC Generator - Workbook Grid Parser
// =============================================================================
//
// This module turns a source workbook into a raw grid of strings: one slice
// per sheet row, one string per cell. Header detection, typing and column
// validation happen later in the reader; this layer only knows about files.
//
// SUPPORTED FORMATS:
//   - .xlsx / .xlsm : excelize, raw cell values (dates stay Excel serials,
//                     numbers stay unformatted)
//   - .xls          : shakinm/xlsReader (legacy BIFF workbooks)
//
// Whatever the extension says, excelize is tried first and the legacy reader
// second, so a mislabelled file still opens.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// GRID STRUCTURE
// =============================================================================

// Grid is the raw cell content of one sheet.
type Grid struct {
	// Sheet is the name of the sheet that was actually read.
	Sheet string

	// Requested is the sheet name that was asked for.
	Requested string

	// Fallback is set when the requested sheet does not exist and the first
	// sheet was read instead.
	Fallback bool

	// Rows holds the cell strings. Rows may have different lengths; trailing
	// empty cells are not guaranteed to be present.
	Rows [][]string
}

// Cell returns the cell at (row, col), 0-based, or "" when out of range.
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	r := g.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Read parses workbook bytes. excelize is tried first; if it rejects the
// bytes the legacy .xls reader is tried.
func Read(data []byte, sheet string) (*Grid, error) {
	grid, err := readXLSX(data, sheet)
	if err == nil {
		return grid, nil
	}

	grid, xlsErr := readXLS(data, sheet)
	if xlsErr == nil {
		return grid, nil
	}

	return nil, fmt.Errorf("unsupported workbook file format: %v; legacy reader: %v", err, xlsErr)
}

// readXLSX reads an Office Open XML workbook with excelize.
func readXLSX(data []byte, sheet string) (*Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	name, found := pickSheet(sheets, sheet)

	// Raw values keep Excel date serials and unformatted numbers, which the
	// typed parsers in the reader understand.
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet '%s': %w", name, err)
	}

	return &Grid{Sheet: name, Requested: sheet, Fallback: !found && sheet != "", Rows: rows}, nil
}

// readXLS reads a legacy BIFF workbook.
func readXLS(data []byte, sheet string) (*Grid, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open .xls workbook: %w", err)
	}

	n := workbook.GetNumberSheets()
	if n == 0 {
		return nil, fmt.Errorf("the .xls workbook has no sheets")
	}

	index := 0
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := workbook.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %d of .xls workbook: %w", i, err)
		}
		names = append(names, s.GetName())
	}
	picked, found := pickSheet(names, sheet)
	for i, name := range names {
		if name == picked {
			index = i
			break
		}
	}

	s, err := workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s' of .xls workbook: %w", picked, err)
	}

	var rows [][]string
	for _, row := range s.GetRows() {
		var cells []string
		for _, cell := range row.GetCols() {
			cells = append(cells, cell.GetString())
		}
		rows = append(rows, cells)
	}

	return &Grid{Sheet: picked, Requested: sheet, Fallback: !found && sheet != "", Rows: rows}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// pickSheet returns want when it is one of names, otherwise the first name.
// found reports whether want was matched.
func pickSheet(names []string, want string) (name string, found bool) {
	for _, n := range names {
		if n == want {
			return n, true
		}
	}
	// Sheet names are often typed with stray spaces.
	for _, n := range names {
		if want != "" && strings.TrimSpace(n) == strings.TrimSpace(want) {
			return n, true
		}
	}
	return names[0], false
}

// IsRowEmpty checks if a row contains only empty cells.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
