// =============================================================================
// MC Generator - Orchestrator
// =============================================================================
//
// This module ties the base reader and the template writer together. One
// Orchestrator owns one loaded base and one template.
//
// GENERATION PIPELINE:
//   1. Filter the base by client and period
//   2. Stop with "no data" when nothing matched
//   3. Mark parent (grouped invoice) rows
//   4. Merge the mapping with the enrichment columns present in the base
//   5. Write the rows into a fresh copy of the template
//
// CONCURRENCY:
//   The loaded table and the template bytes are read-only, so batch groups
//   are generated on up to MaxConcurrency goroutines. Zip entries always
//   follow group order.
//
// =============================================================================

package converter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/ginjaninja78/mcgen/internal/cache"
	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/logging"
	"github.com/ginjaninja78/mcgen/internal/reader"
	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/ginjaninja78/mcgen/internal/xlsxwriter"
)

// DefaultGroupName names batch entries whose group has no name.
const DefaultGroupName = "Sem_Nome"

// =============================================================================
// OPTIONS AND GROUPS
// =============================================================================

// Options configures an Orchestrator.
type Options struct {
	// MaxConcurrency bounds batch parallelism.
	// Default: 1
	MaxConcurrency int

	// Sheet and CSV are passed to the reader by Open.
	Sheet string
	CSV   config.CSVSettings

	// Logger receives progress and warnings. Nil discards.
	Logger logging.Logger
}

// Group is one batch entry: an output name and its filter.
type Group struct {
	Name    string   `json:"name" yaml:"name"`
	Clients []string `json:"clients" yaml:"clients"`
	Periods []string `json:"periods" yaml:"periods"`
}

// FileName returns the zip entry name of the group.
func (g Group) FileName() string {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		name = DefaultGroupName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}

// entryName returns name, or name with a _2, _3... suffix when an earlier
// entry already took it. Names are compared case-insensitively.
func entryName(name string, used map[string]bool) string {
	stem := name[:len(name)-len(".xlsx")]
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s_%d.xlsx", stem, n)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// =============================================================================
// ORCHESTRATOR STRUCTURE
// =============================================================================

// Orchestrator generates calculation memos from one base and one template.
type Orchestrator struct {
	reader  *reader.BaseReader
	writer  *xlsxwriter.TemplateWriter
	mapping *config.Mapping
	workers int
	logger  logging.Logger
}

// New creates an Orchestrator over an already loaded base. The column
// mapping is the one the base was validated against.
//
// PARAMETERS:
//   - base: The loaded base reader.
//   - template: The template workbook bytes.
//   - opts: Concurrency and logger.
func New(base *reader.BaseReader, template []byte, opts Options) *Orchestrator {
	logger := logging.OrNop(opts.Logger)
	mapping := base.Mapping()
	workers := opts.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		reader:  base,
		writer:  xlsxwriter.New(template, mapping.Types, logger),
		mapping: mapping,
		workers: workers,
		logger:  logger,
	}
}

// Open loads src and creates an Orchestrator over it.
//
// RETURNS:
//   - The Orchestrator.
//   - The reader's error (header not found, missing columns, unreadable
//     source) when the base cannot be loaded.
func Open(src reader.Source, template []byte, mapping *config.Mapping, opts Options) (*Orchestrator, error) {
	base, err := reader.Load(src, mapping, reader.Options{
		Sheet:  opts.Sheet,
		CSV:    opts.CSV,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	o := New(base, template, opts)
	o.logger.Infof("Orchestrator ready. Base: %s", src.Name)
	return o, nil
}

// OpenStore creates an Orchestrator over the consolidated cache of store.
// The error wraps fs.ErrNotExist when the cache was never built.
func OpenStore(store cache.Store, template []byte, mapping *config.Mapping, opts Options) (*Orchestrator, error) {
	table, err := store.Load()
	if err != nil {
		return nil, err
	}
	base, err := reader.FromTable(table, mapping, opts.Logger)
	if err != nil {
		return nil, err
	}

	o := New(base, template, opts)
	o.logger.Infof("Orchestrator ready. Base: %s", store.Path())
	return o, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// AvailableClients returns the sorted distinct client labels.
func (o *Orchestrator) AvailableClients() []string {
	return o.reader.Clients()
}

// AvailablePeriods returns the distinct period labels, oldest first.
func (o *Orchestrator) AvailablePeriods() []string {
	return o.reader.Periods()
}

// CountFiltered returns how many rows Generate would write.
func (o *Orchestrator) CountFiltered(clients, periods []string) int {
	return o.reader.Filter(clients, periods).Len()
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate writes the rows matching clients and periods into the template.
//
// RETURNS:
//   - The xlsx bytes, or nil when no row matched.
//   - An error if the template cannot be opened or written.
func (o *Orchestrator) Generate(clients, periods []string) ([]byte, error) {
	o.logger.Infof("Generating sheet for %d clients, %d periods", len(clients), len(periods))

	// =========================================================================
	// STEP 1: FILTER
	// =========================================================================

	filtered := o.reader.Filter(clients, periods)
	if filtered.Len() == 0 {
		o.logger.Warnf("No data found after applying the filters")
		return nil, nil
	}

	// =========================================================================
	// STEP 2: MARK PARENT ROWS
	// =========================================================================
	// Parent rows already carry consolidated values in the base. They are
	// only highlighted; no row is added and no value is changed.

	processed := o.applyGrouping(filtered)

	// =========================================================================
	// STEP 3: WRITE
	// =========================================================================

	pairs := o.mapping.Merged(processed.HasColumn)
	data, err := o.writer.Generate(processed, pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate sheet: %w", err)
	}

	o.logger.Infof("Sheet generated successfully (%d bytes)", len(data))
	return data, nil
}

// applyGrouping returns a copy of table with Row.Parent set from the
// grouping flag column.
func (o *Orchestrator) applyGrouping(table *types.Table) *types.Table {
	out := table.Clone()
	flag := o.mapping.Grouping

	if !out.HasColumn(flag.FlagColumn) {
		o.logger.Infof("Column '%s' not found. No grouping.", flag.FlagColumn)
		for i := range out.Rows {
			out.Rows[i].Parent = false
		}
		return out
	}

	parents := 0
	for i := range out.Rows {
		isParent := out.Rows[i].Get(flag.FlagColumn).String() == flag.FlagValue
		out.Rows[i].Parent = isParent
		if isParent {
			parents++
		}
	}
	o.logger.Infof("Grouping: %d parent invoices identified out of %d records", parents, out.Len())
	return out
}

// GenerateMultiple generates one workbook per group and zips them.
//
// PARAMETERS:
//   - groups: The batch. Groups without clients or periods are skipped.
//
// RETURNS:
//   - The zip bytes, or nil when no group produced a workbook.
//   - The first generation error; it aborts the whole batch.
func (o *Orchestrator) GenerateMultiple(groups []Group) ([]byte, error) {
	o.logger.Infof("Generating batch with %d groups", len(groups))

	type result struct {
		data []byte
		err  error
	}
	results := make([]result, len(groups))

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.workers)

	for i, group := range groups {
		if len(group.Clients) == 0 || len(group.Periods) == 0 {
			o.logger.Warnf("Group '%s' skipped: no clients or periods", group.Name)
			continue
		}

		wg.Add(1)
		go func(i int, g Group) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := o.Generate(g.Clients, g.Periods)
			results[i] = result{data: data, err: err}
		}(i, group)
	}
	wg.Wait()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	generated := 0
	used := make(map[string]bool)

	for i, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("group '%s': %w", groups[i].Name, r.err)
		}
		if r.data == nil {
			continue
		}

		w, err := zw.CreateHeader(&zip.FileHeader{Name: entryName(groups[i].FileName(), used), Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to add zip entry: %w", err)
		}
		if _, err := w.Write(r.data); err != nil {
			return nil, fmt.Errorf("failed to write zip entry: %w", err)
		}
		generated++
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish zip: %w", err)
	}

	if generated == 0 {
		o.logger.Warnf("No file generated in the batch")
		return nil, nil
	}

	o.logger.Infof("Batch finished: %d files generated", generated)
	return buf.Bytes(), nil
}
