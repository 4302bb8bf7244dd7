// =============================================================================
// MC Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generator:
//   - Directory management
//   - Output file naming
//   - Writing generated workbooks and batch archives
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the generator.
type FileManager struct {
	// OutputDir is the directory where generated workbooks are placed.
	OutputDir string

	// CacheDir holds the consolidated Parquet cache.
	CacheDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, cacheDir string) *FileManager {
	return &FileManager{
		OutputDir: outputDir,
		CacheDir:  cacheDir,
	}
}

// EnsureDirectories creates all required directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.CacheDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteOutput writes data to name inside the output directory. The file is
// written under a temporary name first so readers never see a partial file.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails.
func (fm *FileManager) WriteOutput(name string, data []byte) (string, error) {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(fm.OutputDir, filepath.Base(name))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move output file into place: %w", err)
	}
	return path, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {client}    - Client name (sanitised)
//               {period}    - Period label (sanitised)
//   - ext: The extension to enforce, e.g. ".xlsx".
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "MC_{client}_{period}.xlsx"
//   params: {"client": "Cliente Alpha", "period": "01/2026"}
//   output: "MC_Cliente_Alpha_01-2026.xlsx"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = SanitizeName(value)
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result = strings.TrimSuffix(result, filepath.Ext(result)) + ext
	}
	return result
}

var unsafeChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f]+`)

// SanitizeName makes a value safe to use inside a file name. Slashes become
// dashes ("01/2026" -> "01-2026") and whitespace runs become underscores.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "-", "\\", "-").Replace(s)
	s = unsafeChars.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), "_")
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
