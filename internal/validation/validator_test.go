package validation

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

var markers = []string{"No. UC", "CPF/CNPJ"}

func TestDetectHeaderAtArbitraryRow(t *testing.T) {
	for k := 0; k < 20; k++ {
		rows := make([][]string, 0, k+2)
		for i := 0; i < k; i++ {
			rows = append(rows, []string{"Relatorio", "", "No. UC"})
		}
		rows = append(rows, []string{" Referencia ", " No. UC", "CPF/CNPJ  ", "Razao Social"})
		rows = append(rows, []string{"01/2026", "1", "2", "Cliente"})

		got, err := DetectHeader(rows, markers, 20)
		if err != nil {
			t.Fatalf("k=%d: DetectHeader: %v", k, err)
		}
		if got != k {
			t.Errorf("k=%d: header detected at %d", k, got)
		}
	}
}

func TestDetectHeaderBeyondScanBound(t *testing.T) {
	rows := make([][]string, 0, 25)
	for i := 0; i < 20; i++ {
		rows = append(rows, []string{"filler"})
	}
	rows = append(rows, []string{"No. UC", "CPF/CNPJ"})

	_, err := DetectHeader(rows, markers, 20)
	var hnf *HeaderNotFoundError
	if !errors.As(err, &hnf) {
		t.Fatalf("expected HeaderNotFoundError, got %v", err)
	}
	if hnf.ScanRows != 20 || !reflect.DeepEqual(hnf.Markers, markers) {
		t.Errorf("unexpected error details %+v", hnf)
	}
	if !strings.Contains(err.Error(), "20") || !strings.Contains(err.Error(), "No. UC") {
		t.Errorf("message lacks details: %q", err)
	}
}

func TestDetectHeaderEmptyGrid(t *testing.T) {
	if _, err := DetectHeader(nil, markers, 20); err == nil {
		t.Error("expected an error for an empty grid")
	}
}

func TestNormalizeHeader(t *testing.T) {
	got := NormalizeHeader([]string{" UC ", "Valor", "", "Valor", "Valor.1", "Valor"})
	want := []string{"UC", "Valor", "Unnamed: 2", "Valor.1", "Valor.1.1", "Valor.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeHeader = %v, want %v", got, want)
	}
}

func TestNormalizeHeaderDistinct(t *testing.T) {
	got := NormalizeHeader([]string{"a", "a", "a", " a "})
	seen := map[string]bool{}
	for _, g := range got {
		if seen[g] {
			t.Fatalf("duplicate name %q in %v", g, got)
		}
		seen[g] = true
	}
	if got[0] != "a" || got[1] != "a.1" || got[2] != "a.2" || got[3] != "a.3" {
		t.Errorf("unexpected names %v", got)
	}
}

func TestDuplicates(t *testing.T) {
	got := Duplicates([]string{"UC", " Valor", "Valor ", "Nome"}, []string{"UC", "Valor"})
	if !reflect.DeepEqual(got, []string{"Valor"}) {
		t.Errorf("Duplicates = %v", got)
	}
}

func TestValidateColumns(t *testing.T) {
	if err := ValidateColumns([]string{"a", "b", "c"}, []string{"a", "c"}); err != nil {
		t.Errorf("unexpected error %v", err)
	}

	found := []string{"No. UC", "CPF/CNPJ", "Boleto Raizen R$"}
	err := ValidateColumns(found, []string{"No. UC", "Boleto Raizen", "Tarifa Raizen"})
	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if !reflect.DeepEqual(mce.Missing, []string{"Boleto Raizen", "Tarifa Raizen"}) {
		t.Errorf("Missing = %v", mce.Missing)
	}
	if !reflect.DeepEqual(mce.Found, found) {
		t.Errorf("Found = %v", mce.Found)
	}
	if s := mce.Suggestions["Boleto Raizen"]; s != "Boleto Raizen R$" {
		t.Errorf("suggestion for Boleto Raizen = %q", s)
	}
	for _, name := range []string{"Boleto Raizen", "Tarifa Raizen", "CPF/CNPJ"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("message does not name %q: %s", name, err)
		}
	}
}
