// =============================================================================
// MC Generator - Base Reader
// =============================================================================
//
// The base reader loads the billing balance into an in-memory table:
//   1. Read the raw grid (xlsx/xlsm/xls workbook, CSV export or Parquet cache)
//   2. Detect the header row from the marker columns
//   3. Project the columns the mapping needs, or every column when the
//      projection is ambiguous (a needed header appears twice)
//   4. Validate that every mapped source column is present
//   5. Parse cells by declared column type and skip fully blank rows
//
// The loaded table is never modified afterwards; Filter hands out copies.
//
// =============================================================================

package reader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/ginjaninja78/mcgen/internal/cache"
	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/csvparser"
	"github.com/ginjaninja78/mcgen/internal/logging"
	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/ginjaninja78/mcgen/internal/validation"
	"github.com/ginjaninja78/mcgen/internal/xlsxparser"
)

// =============================================================================
// SOURCE AND OPTIONS
// =============================================================================

// Source is a named blob of source bytes. The name only selects the format
// by its extension.
type Source struct {
	Name string
	Data []byte
}

// SourceFromFile reads a source from disk.
func SourceFromFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read source file: %w", err)
	}
	return Source{Name: filepath.Base(path), Data: data}, nil
}

// Options controls how a source is read.
type Options struct {
	// Sheet is the sheet holding the billing balance.
	// Default: "Balanco Operacional"
	Sheet string

	// CSV is used for .csv sources.
	CSV config.CSVSettings

	// Logger receives progress and warnings. Nil discards.
	Logger logging.Logger
}

// =============================================================================
// BASE READER
// =============================================================================

// BaseReader holds a loaded, validated table.
type BaseReader struct {
	table   *types.Table
	mapping *config.Mapping
	logger  logging.Logger
}

// Load reads and validates a source.
//
// PARAMETERS:
//   - src: The source bytes and file name.
//   - mapping: The column mapping table.
//   - opts: Sheet, CSV settings and logger.
//
// RETURNS:
//   - The loaded reader.
//   - *validation.HeaderNotFoundError when no header row is found.
//   - *validation.MissingColumnsError when mapped columns are absent.
//   - A wrapped error when the source cannot be read at all.
func Load(src Source, mapping *config.Mapping, opts Options) (*BaseReader, error) {
	logger := logging.OrNop(opts.Logger)
	if opts.Sheet == "" {
		opts.Sheet = "Balanco Operacional"
	}

	ext := strings.ToLower(filepath.Ext(src.Name))
	if ext == ".parquet" {
		logger.Infof("Loading consolidated cache %s", src.Name)
		table, err := cache.Decode(src.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to load cache %s: %w", src.Name, err)
		}
		return FromTable(table, mapping, logger)
	}

	var (
		grid *xlsxparser.Grid
		err  error
	)
	if ext == ".csv" {
		grid, err = csvparser.Parse(bytes.NewReader(src.Data), opts.CSV)
	} else {
		grid, err = xlsxparser.Read(src.Data, opts.Sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name, err)
	}
	if grid.Fallback {
		logger.Warnf("Sheet '%s' not found in %s, using first sheet '%s'", grid.Requested, src.Name, grid.Sheet)
	}

	table, err := LoadGrid(grid, mapping, logger)
	if err != nil {
		return nil, err
	}

	logger.Infof("Base loaded with %d records and %d columns", table.Len(), len(table.Columns))
	return &BaseReader{table: table, mapping: mapping, logger: logger}, nil
}

// FromTable wraps an already typed table (Parquet cache, enrichment output).
// Labels are recomputed and the mapped columns validated.
func FromTable(table *types.Table, mapping *config.Mapping, logger logging.Logger) (*BaseReader, error) {
	logger = logging.OrNop(logger)
	if err := validation.ValidateColumns(table.Columns, mapping.SourceColumns()); err != nil {
		return nil, err
	}

	out := table.Clone()
	for i := range out.Rows {
		out.Rows[i].Client = out.Rows[i].Get(mapping.ClientColumn).String()
		out.Rows[i].Period = out.Rows[i].Get(mapping.PeriodColumn).String()
		out.Rows[i].Parent = false
	}

	logger.Infof("Base loaded with %d records and %d columns", out.Len(), len(out.Columns))
	return &BaseReader{table: out, mapping: mapping, logger: logger}, nil
}

// LoadGrid builds the typed table from a raw grid.
func LoadGrid(grid *xlsxparser.Grid, mapping *config.Mapping, logger logging.Logger) (*types.Table, error) {
	logger = logging.OrNop(logger)

	headerRow, err := validation.DetectHeader(grid.Rows, mapping.Header.Markers, mapping.Header.ScanRows)
	if err != nil {
		return nil, err
	}
	logger.Infof("Header detected at row %d", headerRow+1)

	header := grid.Rows[headerRow]
	names, indices := project(header, mapping.LoadColumns(), logger)

	if err := validation.ValidateColumns(names, mapping.SourceColumns()); err != nil {
		return nil, err
	}

	kinds := make([]config.ColumnType, len(names))
	for i, n := range names {
		kinds[i] = mapping.Types.TypeOf(n)
	}

	table := &types.Table{Columns: names}
	for r := headerRow + 1; r < len(grid.Rows); r++ {
		cells := make([]string, len(indices))
		for i, idx := range indices {
			cells[i] = grid.Cell(r, idx)
		}
		if xlsxparser.IsRowEmpty(cells) {
			continue
		}

		values := make(map[string]types.Value, len(names))
		for i, cell := range cells {
			values[names[i]] = ParseCell(cell, kinds[i])
		}

		row := types.Row{Values: values}
		row.Client = row.Get(mapping.ClientColumn).String()
		row.Period = row.Get(mapping.PeriodColumn).String()
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// project selects the header positions to load. When any wanted header is
// duplicated the selection is ambiguous and every column is loaded instead.
func project(header []string, wanted []string, logger logging.Logger) ([]string, []int) {
	if dups := validation.Duplicates(header, wanted); len(dups) > 0 {
		logger.Warnf("Selective read failed (duplicated columns: %s), loading all columns", strings.Join(dups, ", "))
		names := validation.NormalizeHeader(header)
		indices := make([]int, len(names))
		for i := range indices {
			indices[i] = i
		}
		return names, indices
	}

	want := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		want[w] = true
	}

	var names []string
	var indices []int
	for i, h := range header {
		name := strings.TrimSpace(h)
		if want[name] {
			names = append(names, name)
			indices = append(indices, i)
		}
	}
	return names, indices
}

// =============================================================================
// QUERIES
// =============================================================================

// Table returns the loaded table. It must be treated as read-only.
func (r *BaseReader) Table() *types.Table {
	return r.table
}

// Mapping returns the mapping the table was validated against.
func (r *BaseReader) Mapping() *config.Mapping {
	return r.mapping
}

// Clients returns the sorted distinct non-empty client labels.
func (r *BaseReader) Clients() []string {
	if !r.table.HasColumn(r.mapping.ClientColumn) {
		return []string{}
	}
	out := distinct(r.table, func(row types.Row) string { return row.Client })
	sort.Strings(out)
	return out
}

// Periods returns the distinct non-empty period labels, oldest first.
func (r *BaseReader) Periods() []string {
	if !r.table.HasColumn(r.mapping.PeriodColumn) {
		return []string{}
	}
	out := distinct(r.table, func(row types.Row) string { return row.Period })
	slices.SortFunc(out, ComparePeriods)
	return out
}

// Filter returns the rows whose client is in clients and whose period is in
// periods. An empty list does not restrict its dimension. Row order and all
// columns are preserved.
func (r *BaseReader) Filter(clients, periods []string) *types.Table {
	clientSet := toSet(clients)
	periodSet := toSet(periods)

	filtered := r.table.Where(func(row types.Row) bool {
		if len(clientSet) > 0 && !clientSet[row.Client] {
			return false
		}
		if len(periodSet) > 0 && !periodSet[row.Period] {
			return false
		}
		return true
	})

	r.logger.Infof("Filter applied: %d clients, %d periods -> %d records", len(clients), len(periods), filtered.Len())
	return filtered
}

func distinct(t *types.Table, label func(types.Row) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, row := range t.Rows {
		l := label(row)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = true
	}
	return set
}
