package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ginjaninja78/mcgen/internal/config"
)

func TestPrintVersion(t *testing.T) {
	m, err := config.DefaultMapping()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printVersion(&buf, config.Default(), m)
	out := buf.String()

	for _, want := range []string{
		"mcgen " + Version,
		"Mapping:  embedded default",
		"Markers:  No. UC, CPF/CNPJ (first 20 rows)",
		"Template: mc.xlsx expects 13 headers",
		"  Razão Social\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrintVersionMappingFile(t *testing.T) {
	m, err := config.DefaultMapping()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.MappingFile = "mapping.yaml"

	var buf bytes.Buffer
	printVersion(&buf, cfg, m)
	if !strings.Contains(buf.String(), "Mapping:  mapping.yaml") {
		t.Errorf("mapping source not shown:\n%s", buf.String())
	}
}
