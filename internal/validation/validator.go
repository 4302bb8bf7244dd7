// =============================================================================
// MC Generator - Source Validation
// =============================================================================
//
// This module validates the shape of a billing balance grid before any value
// is read from it:
//   1. Header detection: the header is not always on the first row; title and
//      filter rows often sit above it. The header row is the first of the
//      leading rows that contains every marker column.
//   2. Header normalisation: names are trimmed and duplicates renamed.
//   3. Column validation: every mapped source column must be present.
//
// ERROR HANDLING:
//   Both failures are typed errors so callers can match them with errors.As
//   and present the details (scan bound, markers, missing and found columns).
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schollz/closestmatch"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// HeaderNotFoundError is returned when no row within the scan bound contains
// every marker column.
type HeaderNotFoundError struct {
	// ScanRows is the number of leading rows that were inspected.
	ScanRows int

	// Markers are the column names the header row must contain.
	Markers []string
}

// Error implements the error interface.
func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("header row not found in the first %d rows; expected marker columns: %s",
		e.ScanRows, strings.Join(e.Markers, ", "))
}

// MissingColumnsError is returned when mapped source columns are absent from
// the loaded header.
type MissingColumnsError struct {
	// Missing lists the required columns that were not found, in mapping order.
	Missing []string

	// Found lists the trimmed column names that were present.
	Found []string

	// Suggestions maps a missing column to the closest found column, when one
	// is close enough to be useful.
	Suggestions map[string]string
}

// Error implements the error interface.
func (e *MissingColumnsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "required columns missing from the source sheet: %s", strings.Join(e.Missing, ", "))

	var hints []string
	for _, m := range e.Missing {
		if s, ok := e.Suggestions[m]; ok {
			hints = append(hints, fmt.Sprintf("%q -> %q?", m, s))
		}
	}
	if len(hints) > 0 {
		fmt.Fprintf(&b, " (did you mean %s)", strings.Join(hints, ", "))
	}

	fmt.Fprintf(&b, "; columns found: %s", strings.Join(e.Found, ", "))
	return b.String()
}

// =============================================================================
// HEADER DETECTION
// =============================================================================

// DetectHeader finds the header row of a grid.
//
// PARAMETERS:
//   - rows: The raw grid rows.
//   - markers: Column names that must all appear in the header row.
//   - scanRows: How many leading rows to inspect.
//
// RETURNS:
//   - The 0-based index of the first row whose trimmed, non-empty cells
//     contain every marker.
//   - A *HeaderNotFoundError if no such row exists within the bound.
func DetectHeader(rows [][]string, markers []string, scanRows int) (int, error) {
	limit := scanRows
	if limit > len(rows) {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		values := make(map[string]bool, len(rows[i]))
		for _, cell := range rows[i] {
			if v := strings.TrimSpace(cell); v != "" {
				values[v] = true
			}
		}

		matched := true
		for _, m := range markers {
			if !values[strings.TrimSpace(m)] {
				matched = false
				break
			}
		}
		if matched {
			return i, nil
		}
	}

	return -1, &HeaderNotFoundError{ScanRows: scanRows, Markers: append([]string(nil), markers...)}
}

// =============================================================================
// HEADER NORMALISATION
// =============================================================================

// NormalizeHeader trims every header cell. Blank headers become "Unnamed: i"
// and later duplicates are renamed "name.1", "name.2", and so on, so every
// column has a distinct name.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if taken[name] {
			n := seen[name]
			candidate := name
			for taken[candidate] {
				n++
				candidate = fmt.Sprintf("%s.%d", name, n)
			}
			seen[name] = n
			name = candidate
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

// Duplicates returns the trimmed names among wanted that appear more than
// once in header.
func Duplicates(header []string, wanted []string) []string {
	counts := make(map[string]int, len(header))
	for _, h := range header {
		counts[strings.TrimSpace(h)]++
	}

	var dups []string
	for _, w := range wanted {
		if counts[w] > 1 {
			dups = append(dups, w)
		}
	}
	return dups
}

// =============================================================================
// COLUMN VALIDATION
// =============================================================================

// ValidateColumns checks that every required column is among found.
//
// RETURNS:
//   - nil when all required columns are present.
//   - A *MissingColumnsError naming every missing column.
func ValidateColumns(found []string, required []string) error {
	present := make(map[string]bool, len(found))
	for _, f := range found {
		present[f] = true
	}

	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return &MissingColumnsError{
		Missing:     missing,
		Found:       append([]string(nil), found...),
		Suggestions: suggest(missing, found),
	}
}

// suggest finds the closest found column for each missing one.
func suggest(missing, found []string) map[string]string {
	candidates := make([]string, 0, len(found))
	for _, f := range found {
		if !strings.HasPrefix(f, "Unnamed: ") {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Strings(candidates)

	cm := closestmatch.New(candidates, []int{2, 3})
	out := make(map[string]string)
	for _, m := range missing {
		if match := cm.Closest(m); match != "" {
			out[m] = match
		}
	}
	return out
}
