// =============================================================================
// MC Generator - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   mcgen version [--config config.yaml]
//
// OUTPUT:
//   mcgen 0.3.0 (built 2026-10-18, go1.24.0)
//   Mapping:  embedded default
//   Markers:  No. UC, CPF/CNPJ (first 20 rows)
//   Template: mc.xlsx expects 13 headers
//     Data  Ref
//     UC
//     ...
//
// The template list is what a custom mc.xlsx must carry in its first row.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/spf13/cobra"
)

// Set at build time:
//   go build -ldflags "-X 'github.com/ginjaninja78/mcgen/cmd.Version=0.3.0' -X 'github.com/ginjaninja78/mcgen/cmd.BuildDate=2026-10-18'"
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version and the active column mapping",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout(), mainConfig, mapping)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// printVersion writes the build and mapping summary of cfg and m to w.
func printVersion(w io.Writer, cfg *config.MainConfig, m *config.Mapping) {
	fmt.Fprintf(w, "mcgen %s (built %s, %s)\n", Version, BuildDate, runtime.Version())

	source := "embedded default"
	if cfg.MappingFile != "" {
		source = cfg.MappingFile
	}
	fmt.Fprintf(w, "Mapping:  %s\n", source)
	fmt.Fprintf(w, "Markers:  %s (first %d rows)\n", strings.Join(m.Header.Markers, ", "), m.Header.ScanRows)

	targets := m.TargetColumns()
	fmt.Fprintf(w, "Template: %s expects %d headers\n", cfg.TemplateFile, len(targets))
	for _, t := range targets {
		fmt.Fprintf(w, "  %s\n", t)
	}
}
