// =============================================================================
// MC Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which writes one calculation
// memo workbook for a client and period selection.
//
// COMMAND USAGE:
//   mcgen generate [flags]
//
// FLAGS:
//   --base      : Billing balance (.xlsx, .xlsm, .xls, .csv, .parquet).
//                 Defaults to the consolidated cache.
//   --template  : Template workbook (defaults to template_file)
//   --client    : Client to include (repeatable; none means all)
//   --period    : Period MM/YYYY to include (repeatable; none means all)
//   --output    : Output file name (defaults to output_name_format)
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/mcgen/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	basePath     string
	templatePath string
	clients      []string
	periods      []string
	outputName   string
)

// addSourceFlags registers --base and --template on cmd.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&basePath, "base", "", "Billing balance file (defaults to the consolidated cache)")
	cmd.Flags().StringVar(&templatePath, "template", "", "Template workbook (defaults to template_file)")
}

// addFilterFlags registers --client and --period on cmd.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&clients, "client", nil, "Client to include (repeatable)")
	cmd.Flags().StringArrayVar(&periods, "period", nil, "Period MM/YYYY to include (repeatable)")
}

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one calculation memo workbook",
	Long: `The generate command filters the billing balance by client and period,
highlights parent (grouped) invoices and writes the records into a copy of
the template. When no record matches, nothing is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate()
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addSourceFlags(generateCmd)
	addFilterFlags(generateCmd)
	generateCmd.Flags().StringVarP(&outputName, "output", "o", "", "Output file name (defaults to output_name_format)")
}

// runGenerate generates and writes one workbook.
func runGenerate() error {
	startTime := time.Now()

	fm := fileManager()
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	o, err := openOrchestrator(basePath, templatePath, true)
	if err != nil {
		return err
	}

	data, err := o.Generate(clients, periods)
	if err != nil {
		return err
	}
	if data == nil {
		fmt.Println("No data found for the selected clients and periods. Nothing was written.")
		return nil
	}

	name := outputName
	if name == "" {
		name = utils.GenerateOutputFileName(mainConfig.OutputNameFormat, ".xlsx", map[string]string{
			"client": selectionLabel(clients, "Multiplos"),
			"period": selectionLabel(periods, "Varios"),
		})
	}
	path, err := fm.WriteOutput(name, data)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %s (%d records) in %s\n", path, o.CountFiltered(clients, periods), time.Since(startTime))
	return nil
}

// selectionLabel names a selection in output file names.
func selectionLabel(values []string, many string) string {
	switch len(values) {
	case 0:
		return "Todos"
	case 1:
		return values[0]
	default:
		return many
	}
}
