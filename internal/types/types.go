// =============================================================================
// MC Generator - Shared Types
// =============================================================================
//
// This package contains the in-memory table shared by the reader, the
// template writer, the enrichment merge and the Parquet cache. Keeping it in
// its own package avoids import cycles between those modules.
//
// TABLE MODEL:
//   - Table : ordered column names + rows
//   - Row   : client/period labels, the parent flag and every loaded column
//   - Value : one typed cell (empty, text, number or date)
//
// =============================================================================

package types

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// VALUE
// =============================================================================

// Kind identifies the type held by a Value.
type Kind int

const (
	// KindEmpty is the null representation: a blank or missing cell.
	KindEmpty Kind = iota
	// KindText is a plain string.
	KindText
	// KindNumber is a float64 (monetary and numeric columns).
	KindNumber
	// KindDate is a calendar date.
	KindDate
)

// PeriodLayout is the label layout used for date-typed periods and for the
// date transform of the template writer.
const PeriodLayout = "01/2006"

// Value is a single typed cell.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

// Empty returns the null value.
func Empty() Value { return Value{} }

// Text returns a text value. Blank strings become Empty.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Empty()
	}
	return Value{Kind: KindText, Text: s}
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// IsEmpty reports whether the value is null.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// String renders the value as a label. Dates use PeriodLayout, numbers the
// shortest decimal representation.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return strings.TrimSpace(v.Text)
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindDate:
		return v.Time.Format(PeriodLayout)
	default:
		return ""
	}
}

// =============================================================================
// ROW AND TABLE
// =============================================================================

// Row is one billing record.
type Row struct {
	// Client is the label of the configured client column.
	Client string

	// Period is the label of the configured period column.
	Period string

	// Parent marks a grouped invoice row. It is a rendering instruction only
	// and never comes from the source file.
	Parent bool

	// Values holds every loaded column keyed by its trimmed header, including
	// enrichment columns that are not known at compile time.
	Values map[string]Value
}

// Get returns the value stored under column, or Empty.
func (r Row) Get(column string) Value {
	if r.Values == nil {
		return Empty()
	}
	return r.Values[column]
}

// Table is an ordered, row-oriented table.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends name to the column list unless it is already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Clone copies the table structure. Rows are copied by value so flags can be
// changed on the copy; value maps are shared and must be treated as read-only.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	copy(out.Rows, t.Rows)
	return out
}

// Where returns a copy holding only the rows for which keep returns true.
// Row order and all columns are preserved.
func (t *Table) Where(keep func(Row) bool) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
