// =============================================================================
// MC Generator - Consolidated Parquet Cache
// =============================================================================
//
// The consolidated base (billing balance merged with the billing-management
// sheet) is stored as Parquet so later runs skip the slow workbook parse.
//
// FILE LAYOUT:
//   The table has an open set of columns, so it is stored in long form: one
//   record per non-empty cell plus one header record (row = -1) per column,
//   which keeps the column order and columns that are entirely empty.
//
// =============================================================================

package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// FileName is the name of the cache file inside the cache directory.
const FileName = "base_consolidada.parquet"

const headerRow = -1

// cellRecord is one Parquet record.
type cellRecord struct {
	Row    int64   `parquet:"name=row, type=INT64"`
	Col    int32   `parquet:"name=col, type=INT32"`
	Column string  `parquet:"name=column, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind   int32   `parquet:"name=kind, type=INT32"`
	Text   string  `parquet:"name=text, type=BYTE_ARRAY, convertedtype=UTF8"`
	Number float64 `parquet:"name=number, type=DOUBLE"`
	Time   int64   `parquet:"name=time, type=INT64"`
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode serialises a table to Parquet bytes.
func Encode(table *types.Table) ([]byte, error) {
	var buf bytes.Buffer
	fw := writerfile.NewWriterFile(&buf)
	pw, err := writer.NewParquetWriter(fw, new(cellRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, name := range table.Columns {
		rec := &cellRecord{Row: headerRow, Col: int32(i), Column: name}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("parquet write: %w", err)
		}
	}

	for r, row := range table.Rows {
		for c, name := range table.Columns {
			v := row.Get(name)
			if v.IsEmpty() {
				continue
			}
			rec := &cellRecord{Row: int64(r), Col: int32(c), Column: name, Kind: int32(v.Kind)}
			switch v.Kind {
			case types.KindText:
				rec.Text = v.Text
			case types.KindNumber:
				rec.Number = v.Number
			case types.KindDate:
				rec.Time = v.Time.UnixMilli()
			}
			if err := pw.Write(rec); err != nil {
				pw.WriteStop()
				return nil, fmt.Errorf("parquet write: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("parquet flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode rebuilds a table from Parquet bytes written by Encode. Row labels
// and flags are left empty; the reader recomputes them.
func Decode(data []byte) (*types.Table, error) {
	pf := buffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(pf, new(cellRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("parquet open: %w", err)
	}
	defer pr.ReadStop()

	records := make([]cellRecord, int(pr.GetNumRows()))
	if len(records) > 0 {
		if err := pr.Read(&records); err != nil {
			return nil, fmt.Errorf("parquet read: %w", err)
		}
	}

	table := &types.Table{}
	columns := map[int32]string{}
	maxRow := int64(-1)
	for _, rec := range records {
		if rec.Row == headerRow {
			columns[rec.Col] = rec.Column
			continue
		}
		if rec.Row > maxRow {
			maxRow = rec.Row
		}
	}
	for i := int32(0); i < int32(len(columns)); i++ {
		name, ok := columns[i]
		if !ok {
			return nil, fmt.Errorf("cache is missing the header of column %d", i)
		}
		table.Columns = append(table.Columns, name)
	}

	table.Rows = make([]types.Row, maxRow+1)
	for i := range table.Rows {
		table.Rows[i].Values = make(map[string]types.Value)
	}
	for _, rec := range records {
		if rec.Row == headerRow {
			continue
		}
		var v types.Value
		switch types.Kind(rec.Kind) {
		case types.KindText:
			v = types.Value{Kind: types.KindText, Text: rec.Text}
		case types.KindNumber:
			v = types.Number(rec.Number)
		case types.KindDate:
			v = types.Date(time.UnixMilli(rec.Time).UTC())
		default:
			continue
		}
		table.Rows[rec.Row].Values[rec.Column] = v
	}

	return table, nil
}

// =============================================================================
// STORE
// =============================================================================

// Store keeps the cache file in a directory.
type Store struct {
	Dir string
}

// Path returns the cache file path.
func (s Store) Path() string {
	return filepath.Join(s.Dir, FileName)
}

// Save writes the table, replacing any previous cache atomically.
func (s Store) Save(table *types.Table) error {
	data, err := Encode(table)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}

// Load reads the cached table.
func (s Store) Load() (*types.Table, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	return Decode(data)
}

// UpdatedAt reports when the cache was last written. ok is false when there
// is no cache yet.
func (s Store) UpdatedAt() (t time.Time, ok bool, err error) {
	info, err := os.Stat(s.Path())
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to stat cache: %w", err)
	}
	return info.ModTime(), true, nil
}
