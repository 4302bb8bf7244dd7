// =============================================================================
// MC Generator - CSV Parser Module
// =============================================================================
//
// This module reads CSV exports of the billing balance into the same raw grid
// the workbook parser produces. Exports from the billing system are usually
// semicolon separated and encoded as ISO-8859-1 or Windows-1252.
//
// FEATURES:
//   - Configurable delimiter (";", ",", tab, pipe)
//   - Character set conversion via golang.org/x/text
//   - UTF-8 byte order mark removal
//   - Lenient quoting and variable field counts
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/xlsxparser"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads CSV content and returns it as a grid.
//
// PARAMETERS:
//   - r: The CSV content.
//   - settings: Delimiter and encoding.
//
// RETURNS:
//   - A grid holding every record. The Sheet field is left empty.
//   - An error if the content cannot be decoded or parsed.
//
// PARSING PROCESS:
//   1. Wrap the input with the decoder for the configured encoding
//   2. Strip a UTF-8 byte order mark
//   3. Configure the CSV reader with the configured delimiter
//   4. Read every record
func Parse(r io.Reader, settings config.CSVSettings) (*xlsxparser.Grid, error) {
	decoder, err := getDecoder(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReader(r)
	var src io.Reader = reader
	if decoder != nil {
		src = transform.NewReader(reader, decoder.NewDecoder())
	} else if err := skipBOM(reader); err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	csvReader := csv.NewReader(src)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	return &xlsxparser.Grid{Rows: allRows}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	// Handle special cases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	case ",", "comma":
		reader.Comma = ','
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = []rune(settings.Delimiter)[0]
		} else {
			reader.Comma = ';'
		}
	}

	// Exports are not always rectangular.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// getDecoder returns the charmap for a configured encoding, or nil for UTF-8.
func getDecoder(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return nil, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported CSV encoding %q", name)
	}
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r *bufio.Reader) error {
	head, err := r.Peek(3)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, err := r.Discard(3)
		return err
	}
	return nil
}
