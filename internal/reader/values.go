package reader

import (
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are the text renderings accepted for date columns, tried in
// order after the Excel serial form.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"01/2006",
	"1/2006",
	"2006-01",
}

// ParseCell converts a raw grid cell according to the declared column type.
// Cells that cannot be parsed as their declared type are kept as text, so no
// source content is lost.
func ParseCell(raw string, kind config.ColumnType) types.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return types.Empty()
	}

	switch kind {
	case config.TypeDate:
		if t, ok := ParseDate(s); ok {
			return types.Date(t)
		}
	case config.TypeCurrency, config.TypeNumeric:
		if d, ok := ParseDecimal(s); ok {
			return types.Number(d.InexactFloat64())
		}
	case config.TypeDocument:
		return types.Text(NormalizeDocument(s))
	}
	return types.Text(raw)
}

// ParseDate accepts an Excel serial date or one of the known text layouts.
func ParseDate(s string) (time.Time, bool) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Serials below 1 are times of day, not dates.
		if f < 1 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDecimal parses monetary and numeric cells written with either Brazilian
// ("1.234,56", "R$ 1.234,56") or plain ("1234.56", "1,234.56") separators.
// Parenthesised values are negative.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "R$")
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// NormalizeDocument turns numeric renderings of a CPF/CNPJ ("1.2345678901E10",
// "12345678901.0") into plain digits. Formatted documents are left as they are.
func NormalizeDocument(s string) string {
	if strings.ContainsAny(s, "/-") {
		return s
	}
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	if !d.Equal(d.Truncate(0)) {
		return s
	}
	return d.Truncate(0).String()
}

// ComparePeriods orders period labels. Labels in MM/YYYY form are ordered
// chronologically and come before any other label; the rest are ordered
// lexically.
func ComparePeriods(a, b string) int {
	ta, errA := time.Parse(types.PeriodLayout, a)
	tb, errB := time.Parse(types.PeriodLayout, b)
	switch {
	case errA == nil && errB == nil:
		return ta.Compare(tb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
