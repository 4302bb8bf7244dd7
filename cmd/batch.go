// =============================================================================
// MC Generator - Batch Command
// =============================================================================
//
// This file defines the 'batch' command, which generates one workbook per
// group and packs them into a zip archive.
//
// COMMAND USAGE:
//   mcgen batch --groups lotes.yaml [flags]
//
// GROUPS FILE:
//   - name: "Alpha Janeiro"
//     clients: ["Cliente Alpha"]
//     periods: ["01/2026"]
//   - name: "Beta"
//     clients: ["Cliente Beta"]
//     periods: ["01/2026", "02/2026"]
//
// Groups without clients or periods are skipped. Groups run on up to
// max_concurrency goroutines.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ginjaninja78/mcgen/internal/converter"
	"github.com/ginjaninja78/mcgen/pkg/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var groupsFile string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate a zip with one workbook per group",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch()
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addSourceFlags(batchCmd)
	batchCmd.Flags().StringVar(&groupsFile, "groups", "", "YAML file listing the groups")
	batchCmd.Flags().StringVarP(&outputName, "output", "o", "", "Output zip name (defaults to MC_Lote_{timestamp}.zip)")
	batchCmd.MarkFlagRequired("groups")
}

// loadGroups reads the groups file.
func loadGroups(path string) ([]converter.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read groups file: %w", err)
	}
	var groups []converter.Group
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse groups file: %w", err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("groups file %s lists no groups", path)
	}
	return groups, nil
}

func runBatch() error {
	startTime := time.Now()

	groups, err := loadGroups(groupsFile)
	if err != nil {
		return err
	}

	fm := fileManager()
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	o, err := openOrchestrator(basePath, templatePath, true)
	if err != nil {
		return err
	}

	data, err := o.GenerateMultiple(groups)
	if err != nil {
		return err
	}
	if data == nil {
		fmt.Println("No workbook was generated for the given groups. Nothing was written.")
		return nil
	}

	name := outputName
	if name == "" {
		name = "MC_Lote_{timestamp}"
	}
	path, err := fm.WriteOutput(utils.GenerateOutputFileName(name, ".zip", nil), data)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %s from %d groups in %s\n", path, len(groups), time.Since(startTime))
	return nil
}
