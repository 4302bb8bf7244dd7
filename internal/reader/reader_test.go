package reader

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/mcgen/internal/cache"
	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/ginjaninja78/mcgen/internal/validation"
	"github.com/xuri/excelize/v2"
)

var baseHeader = []string{
	"Referencia", " No. UC", "CPF/CNPJ", "Razao Social ", "Distribuidora",
	"Cred. Consumido Raizen", "Desconto Contratado", "Status Pos-Faturamento",
	"Boleto Raizen", "Tarifa Raizen", "Custo c/ GD", "Custo s/ GD",
	"Ganho total Padrão", "Excecao Fat.", "Coluna Ignorada",
}

func jan() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
func feb() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }

func dataRow(ref time.Time, uc, doc, client string, boleto float64, flag string) []interface{} {
	return []interface{}{
		ref, uc, doc, client, "CEMIG",
		1500, "15%", "Pago",
		boleto, 0.89, 1200.5, 1500.75,
		300.25, flag, "x",
	}
}

// buildWorkbook writes title rows, the header and the data rows into an
// in-memory workbook.
func buildWorkbook(t *testing.T, sheet string, titleRows int, header []string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}

	r := 1
	for i := 0; i < titleRows; i++ {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", r), "Balanco Operacional - relatorio"); err != nil {
			t.Fatal(err)
		}
		r++
	}
	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", r), &hdr); err != nil {
		t.Fatal(err)
	}
	r++
	for _, row := range rows {
		row := row
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", r), &row); err != nil {
			t.Fatal(err)
		}
		r++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func defaultMapping(t *testing.T) *config.Mapping {
	t.Helper()
	m, err := config.DefaultMapping()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func sampleRows() [][]interface{} {
	return [][]interface{}{
		dataRow(jan(), "1001", "12345678000190", "Cliente Alpha", 100.5, ""),
		dataRow(feb(), "1001", "12345678000190", "Cliente Alpha", 110.5, "Agrupamento"),
		dataRow(jan(), "2002", "12345678901", "Cliente Beta", 50, ""),
		{nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil},
		dataRow(feb(), "3003", "98765432000110", "Cliente Gama", 70, ""),
	}
}

func loadSample(t *testing.T) *BaseReader {
	t.Helper()
	data := buildWorkbook(t, "Balanco Operacional", 3, baseHeader, sampleRows())
	r, err := Load(Source{Name: "base.xlsm", Data: data}, defaultMapping(t), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

func TestLoadDetectsHeaderAndTypes(t *testing.T) {
	r := loadSample(t)
	table := r.Table()

	if table.Len() != 4 {
		t.Fatalf("expected 4 records (blank row skipped), got %d", table.Len())
	}
	if table.HasColumn("Coluna Ignorada") {
		t.Error("unmapped column should not be projected")
	}
	if !table.HasColumn("Excecao Fat.") {
		t.Error("grouping column should be projected")
	}

	first := table.Rows[0]
	if v := first.Get("Referencia"); v.Kind != types.KindDate || v.String() != "01/2026" {
		t.Errorf("Referencia = %+v", v)
	}
	if v := first.Get("Boleto Raizen"); v.Kind != types.KindNumber || v.Number != 100.5 {
		t.Errorf("Boleto Raizen = %+v", v)
	}
	if v := first.Get("No. UC"); v.String() != "1001" {
		t.Errorf("No. UC = %+v", v)
	}
	if first.Client != "Cliente Alpha" || first.Period != "01/2026" {
		t.Errorf("labels = %q/%q", first.Client, first.Period)
	}
	if first.Parent {
		t.Error("loaded rows must not be flagged as parents")
	}
}

func TestClientsAndPeriods(t *testing.T) {
	r := loadSample(t)

	clients := r.Clients()
	want := []string{"Cliente Alpha", "Cliente Beta", "Cliente Gama"}
	if !reflect.DeepEqual(clients, want) {
		t.Errorf("Clients = %v", clients)
	}
	if again := r.Clients(); !reflect.DeepEqual(again, clients) {
		t.Errorf("Clients not idempotent: %v vs %v", again, clients)
	}

	periods := r.Periods()
	if !reflect.DeepEqual(periods, []string{"01/2026", "02/2026"}) {
		t.Errorf("Periods = %v", periods)
	}
	if again := r.Periods(); !reflect.DeepEqual(again, periods) {
		t.Errorf("Periods not idempotent: %v vs %v", again, periods)
	}
}

func TestFilter(t *testing.T) {
	r := loadSample(t)

	tests := []struct {
		name    string
		clients []string
		periods []string
		want    int
	}{
		{"single client and period", []string{"Cliente Alpha"}, []string{"01/2026"}, 1},
		{"client all periods", []string{"Cliente Alpha"}, nil, 2},
		{"period all clients", nil, []string{"01/2026"}, 2},
		{"unrestricted", nil, nil, 4},
		{"unknown client", []string{"Ninguem"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Filter(tt.clients, tt.periods)
			if got.Len() != tt.want {
				t.Errorf("Filter returned %d rows, want %d", got.Len(), tt.want)
			}
			if !reflect.DeepEqual(got.Columns, r.Table().Columns) {
				t.Errorf("Filter dropped columns: %v", got.Columns)
			}
		})
	}

	// Order is preserved.
	got := r.Filter([]string{"Cliente Alpha", "Cliente Gama"}, nil)
	var order []string
	for _, row := range got.Rows {
		order = append(order, row.Client+" "+row.Period)
	}
	want := []string{"Cliente Alpha 01/2026", "Cliente Alpha 02/2026", "Cliente Gama 02/2026"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v", order)
	}
}

func TestLoadMissingColumn(t *testing.T) {
	header := append([]string(nil), baseHeader...)
	header[9] = "Tarifa"

	data := buildWorkbook(t, "Balanco Operacional", 0, header, sampleRows())
	_, err := Load(Source{Name: "base.xlsx", Data: data}, defaultMapping(t), Options{})

	var mce *validation.MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if !reflect.DeepEqual(mce.Missing, []string{"Tarifa Raizen"}) {
		t.Errorf("Missing = %v", mce.Missing)
	}
	if !strings.Contains(err.Error(), "Tarifa Raizen") {
		t.Errorf("error does not name the missing column: %v", err)
	}
}

func TestLoadHeaderNotFound(t *testing.T) {
	data := buildWorkbook(t, "Balanco Operacional", 25, baseHeader, sampleRows())
	_, err := Load(Source{Name: "base.xlsx", Data: data}, defaultMapping(t), Options{})

	var hnf *validation.HeaderNotFoundError
	if !errors.As(err, &hnf) {
		t.Fatalf("expected HeaderNotFoundError, got %v", err)
	}
}

func TestLoadDuplicateHeaderFallsBackToFullLoad(t *testing.T) {
	header := append(append([]string(nil), baseHeader...), "Boleto Raizen")
	rows := sampleRows()
	for i := range rows {
		if i == 3 {
			rows[i] = append(rows[i], nil)
			continue
		}
		rows[i] = append(rows[i], 999)
	}

	dup, err := Load(Source{Name: "base.xlsx", Data: buildWorkbook(t, "Balanco Operacional", 1, header, rows)}, defaultMapping(t), Options{})
	if err != nil {
		t.Fatalf("Load with duplicate header: %v", err)
	}
	plain := loadSample(t)

	if !dup.Table().HasColumn("Boleto Raizen.1") || !dup.Table().HasColumn("Coluna Ignorada") {
		t.Errorf("expected every column loaded, got %v", dup.Table().Columns)
	}
	if dup.Table().Len() != plain.Table().Len() {
		t.Fatalf("row counts differ: %d vs %d", dup.Table().Len(), plain.Table().Len())
	}
	for i := range plain.Table().Rows {
		for _, col := range defaultMapping(t).SourceColumns() {
			a := dup.Table().Rows[i].Get(col)
			b := plain.Table().Rows[i].Get(col)
			if a != b {
				t.Errorf("row %d column %q differs: %+v vs %+v", i, col, a, b)
			}
		}
	}
}

func TestLoadFallsBackToFirstSheet(t *testing.T) {
	data := buildWorkbook(t, "Planilha1", 0, baseHeader, sampleRows())
	r, err := Load(Source{Name: "base.xlsx", Data: data}, defaultMapping(t), Options{Sheet: "Balanco Operacional"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Table().Len() != 4 {
		t.Errorf("expected 4 rows, got %d", r.Table().Len())
	}
}

func TestLoadCSV(t *testing.T) {
	csv := "Exportado em 01/02/2026\n" +
		strings.Join(baseHeader, ";") + "\n" +
		"01/2026;1001;12.345.678/0001-90;Cliente Alpha;CEMIG;1500;15%;Pago;R$ 1.234,56;0,89;1200,5;1500,75;300,25;;x\n"

	r, err := Load(Source{Name: "base.csv", Data: []byte(csv)}, defaultMapping(t), Options{CSV: config.CSVSettings{Delimiter: ";"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	row := r.Table().Rows[0]
	if v := row.Get("Boleto Raizen"); v.Kind != types.KindNumber || v.Number != 1234.56 {
		t.Errorf("Boleto Raizen = %+v", v)
	}
	if row.Period != "01/2026" {
		t.Errorf("Period = %q", row.Period)
	}
	if v := row.Get("CPF/CNPJ"); v.String() != "12.345.678/0001-90" {
		t.Errorf("CPF/CNPJ = %+v", v)
	}
}

func TestLoadParquetCache(t *testing.T) {
	plain := loadSample(t)
	data, err := cache.Encode(plain.Table())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	r, err := Load(Source{Name: cache.FileName, Data: data}, defaultMapping(t), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(r.Clients(), plain.Clients()) {
		t.Errorf("Clients = %v, want %v", r.Clients(), plain.Clients())
	}
	if !reflect.DeepEqual(r.Periods(), plain.Periods()) {
		t.Errorf("Periods = %v, want %v", r.Periods(), plain.Periods())
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"R$ 1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"10,5", "10.5", true},
		{"1.234.567", "1234567", true},
		{"(12,50)", "-12.5", true},
		{"1.5E+3", "1500", true},
		{"-", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		d, ok := ParseDecimal(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDecimal(%q) ok = %v", tt.in, ok)
			continue
		}
		if ok && d.String() != tt.want {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tt.in, d.String(), tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"46023", "2026-01-01"},
		{"2026-02-01", "2026-02-01"},
		{"15/03/2026", "2026-03-15"},
		{"04/2026", "2026-04-01"},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if !ok {
			t.Errorf("ParseDate(%q) failed", tt.in)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
	if _, ok := ParseDate("janeiro"); ok {
		t.Error("expected free text not to parse")
	}
}

func TestParseCellKeepsUnparseableText(t *testing.T) {
	v := ParseCell("a definir", config.TypeCurrency)
	if v.Kind != types.KindText || v.String() != "a definir" {
		t.Errorf("ParseCell = %+v", v)
	}
	if v := ParseCell("   ", config.TypeDate); !v.IsEmpty() {
		t.Errorf("blank cell = %+v", v)
	}
}

func TestNormalizeDocument(t *testing.T) {
	tests := map[string]string{
		"12345678901":        "12345678901",
		"12345678901.0":      "12345678901",
		"1.2345678000190E13": "12345678000190",
		"123.456.789-01":     "123.456.789-01",
		"12.345.678/0001-90": "12.345.678/0001-90",
	}
	for in, want := range tests {
		if got := NormalizeDocument(in); got != want {
			t.Errorf("NormalizeDocument(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComparePeriods(t *testing.T) {
	if ComparePeriods("12/2025", "01/2026") >= 0 {
		t.Error("12/2025 should sort before 01/2026")
	}
	if ComparePeriods("01/2026", "Outros") >= 0 {
		t.Error("dated labels should sort before free text")
	}
	if ComparePeriods("b", "a") <= 0 {
		t.Error("free text should sort lexically")
	}
}
