package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestGenerateOutputFileName(t *testing.T) {
	tests := []struct {
		format string
		ext    string
		params map[string]string
		want   string
	}{
		{"MC_{client}_{period}.xlsx", ".xlsx", map[string]string{"client": "Cliente Alpha", "period": "01/2026"}, "MC_Cliente_Alpha_01-2026.xlsx"},
		{"MC_{client}", ".xlsx", map[string]string{"client": "Beta"}, "MC_Beta.xlsx"},
		{"lote.zip", ".zip", nil, "lote.zip"},
		{"lote.xlsx", ".zip", nil, "lote.zip"},
	}
	for _, tt := range tests {
		if got := GenerateOutputFileName(tt.format, tt.ext, tt.params); got != tt.want {
			t.Errorf("GenerateOutputFileName(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}

	got := GenerateOutputFileName("MC_{timestamp}_{uuid}", ".xlsx", nil)
	if !regexp.MustCompile(`^MC_\d{8}_\d{6}_[0-9a-f-]{36}\.xlsx$`).MatchString(got) {
		t.Errorf("unexpected generated name %q", got)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"  Cliente  Alpha ": "Cliente_Alpha",
		"01/2026":           "01-2026",
		`a:b*c?"d"`:         "abcd",
		"Razão Social":      "Razão_Social",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileManager(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "out"), filepath.Join(root, "cache"))

	if err := fm.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if !FileExists(fm.CacheDir) {
		t.Error("cache directory not created")
	}

	path, err := fm.WriteOutput("MC.xlsx", []byte("data"))
	if err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Errorf("read back %q, %v", got, err)
	}
	if FileExists(path + ".tmp") {
		t.Error("temporary file left behind")
	}
}
