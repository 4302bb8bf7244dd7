package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_mapping.yaml
var defaultMappingYAML []byte

// =============================================================================
// MAPPING STRUCTURE
// =============================================================================

// ColumnPair maps one source column onto one template column.
type ColumnPair struct {
	// Source is the trimmed header in the billing balance workbook.
	Source string `yaml:"source"`

	// Target is the header in row 1 of the template. It is compared after
	// trimming, so "Vencimento " and "Vencimento" match.
	Target string `yaml:"target"`
}

// HeaderDetection configures how the real header row is found.
type HeaderDetection struct {
	// Markers must all appear in the header row.
	Markers []string `yaml:"markers"`

	// ScanRows bounds how many leading rows are inspected.
	ScanRows int `yaml:"scan_rows"`
}

// Grouping configures the parent-invoice flag.
type Grouping struct {
	// FlagColumn holds the grouping indicator.
	FlagColumn string `yaml:"flag_column"`

	// FlagValue is the sentinel that marks a parent row.
	FlagValue string `yaml:"flag_value"`

	// Keys are loaded alongside the mapping so grouped rows keep their
	// document and distributor even when those are not mapped.
	Keys []string `yaml:"keys"`
}

// ColumnTypes declares how source columns are parsed and rendered.
type ColumnTypes struct {
	Date     []string `yaml:"date"`
	Currency []string `yaml:"currency"`
	Numeric  []string `yaml:"numeric"`
	Document []string `yaml:"document"`
}

// BillingMerge configures the join with the billing-management workbook.
type BillingMerge struct {
	// JoinColumn is the unit code column in the base table.
	JoinColumn string `yaml:"join_column"`

	// DueDateColumn is the column added to the base table.
	DueDateColumn string `yaml:"due_date_column"`

	// StatusColumn is overridden by the billing status when it is present.
	StatusColumn string `yaml:"status_column"`
}

// Mapping is the column mapping table. It is a plain value passed to the
// reader, the writer and the orchestrator; nothing reads it from globals.
type Mapping struct {
	Header       HeaderDetection `yaml:"header"`
	Columns      []ColumnPair    `yaml:"columns"`
	Enrichment   []ColumnPair    `yaml:"enrichment"`
	ClientColumn string          `yaml:"client_column"`
	PeriodColumn string          `yaml:"period_column"`
	Grouping     Grouping        `yaml:"grouping"`
	Types        ColumnTypes     `yaml:"types"`
	Billing      BillingMerge    `yaml:"billing"`
}

// =============================================================================
// LOADING
// =============================================================================

// DefaultMapping parses the embedded default mapping.
func DefaultMapping() (*Mapping, error) {
	return ParseMapping(defaultMappingYAML)
}

// LoadMapping loads a mapping from a YAML file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	m, err := ParseMapping(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseMapping parses, defaults and validates mapping YAML.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	applyMappingDefaults(&m)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}
	return &m, nil
}

func applyMappingDefaults(m *Mapping) {
	if m.Header.ScanRows == 0 {
		m.Header.ScanRows = 20
	}
	trimPairs(m.Columns)
	trimPairs(m.Enrichment)
	m.ClientColumn = strings.TrimSpace(m.ClientColumn)
	m.PeriodColumn = strings.TrimSpace(m.PeriodColumn)
}

func trimPairs(pairs []ColumnPair) {
	for i := range pairs {
		pairs[i].Source = strings.TrimSpace(pairs[i].Source)
		pairs[i].Target = strings.TrimSpace(pairs[i].Target)
	}
}

// Validate checks the mapping for structural mistakes.
func (m *Mapping) Validate() error {
	if len(m.Columns) == 0 {
		return fmt.Errorf("at least one column pair is required")
	}
	seen := make(map[string]bool, len(m.Columns))
	for i, p := range append(append([]ColumnPair(nil), m.Columns...), m.Enrichment...) {
		if p.Source == "" || p.Target == "" {
			return fmt.Errorf("column pair %d has an empty source or target", i+1)
		}
		if seen[p.Source] {
			return fmt.Errorf("source column %q is mapped twice", p.Source)
		}
		seen[p.Source] = true
	}
	if len(m.Header.Markers) == 0 {
		return fmt.Errorf("at least one header marker is required")
	}
	if m.Header.ScanRows < 0 {
		return fmt.Errorf("header scan_rows must be positive, got %d", m.Header.ScanRows)
	}
	if m.ClientColumn == "" || m.PeriodColumn == "" {
		return fmt.Errorf("client_column and period_column are required")
	}
	return nil
}

// =============================================================================
// DERIVED COLUMN SETS
// =============================================================================

// SourceColumns returns the mapped source columns in mapping order. These are
// the columns a loaded table must contain.
func (m *Mapping) SourceColumns() []string {
	cols := make([]string, len(m.Columns))
	for i, p := range m.Columns {
		cols[i] = p.Source
	}
	return cols
}

// TargetColumns returns the template headers in mapping order.
func (m *Mapping) TargetColumns() []string {
	cols := make([]string, len(m.Columns))
	for i, p := range m.Columns {
		cols[i] = p.Target
	}
	return cols
}

// LoadColumns returns every column worth loading from the source: the
// mapping, the grouping columns, the client and period columns and the
// enrichment columns, without duplicates.
func (m *Mapping) LoadColumns() []string {
	var cols []string
	seen := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				cols = append(cols, n)
			}
		}
	}
	add(m.SourceColumns()...)
	add(m.Grouping.FlagColumn)
	add(m.Grouping.Keys...)
	add(m.ClientColumn, m.PeriodColumn)
	for _, p := range m.Enrichment {
		add(p.Source)
	}
	return cols
}

// Merged returns the mapping pairs plus the enrichment pairs accepted by
// present.
func (m *Mapping) Merged(present func(column string) bool) []ColumnPair {
	pairs := append([]ColumnPair(nil), m.Columns...)
	for _, p := range m.Enrichment {
		if present(p.Source) {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// TypeOf returns the declared type of a source column.
func (t ColumnTypes) TypeOf(column string) ColumnType {
	switch {
	case contains(t.Date, column):
		return TypeDate
	case contains(t.Currency, column):
		return TypeCurrency
	case contains(t.Numeric, column):
		return TypeNumeric
	case contains(t.Document, column):
		return TypeDocument
	default:
		return TypeText
	}
}

// ColumnType is the declared type of a source column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeDate
	TypeCurrency
	TypeNumeric
	TypeDocument
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
