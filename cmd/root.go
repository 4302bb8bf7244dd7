// =============================================================================
// MC Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (mcgen)
//   ├── generateCmd (mcgen generate)
//   ├── batchCmd    (mcgen batch)
//   ├── listCmd     (mcgen list)
//   ├── countCmd    (mcgen count)
//   ├── cacheCmd    (mcgen cache build | info)
//   ├── serveCmd    (mcgen serve)
//   └── versionCmd  (mcgen version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads config.yaml (defaults when the default file does not exist)
//   2. Sets up the zap logger
//   3. Loads the column mapping
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/mcgen/internal/cache"
	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/converter"
	"github.com/ginjaninja78/mcgen/internal/logging"
	"github.com/ginjaninja78/mcgen/internal/reader"
	"github.com/ginjaninja78/mcgen/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// Set up by the root command before any subcommand runs.
var (
	mainConfig *config.MainConfig
	mapping    *config.Mapping
	logger     *zap.SugaredLogger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcgen",
	Short: "MC Generator - Build calculation memo spreadsheets from the billing balance",
	Long: `MC Generator reads the billing balance workbook ("Balanco Operacional"),
filters it by client and period and writes the matching records into the
calculation memo template (mc.xlsx).

Key Features:
  - Header detection and column validation with suggestions
  - Parent (grouped) invoice highlighting
  - Batch generation into a zip archive
  - Consolidated Parquet cache enriched with the billing-management sheet
  - HTTP API for the same operations

Example Usage:
  mcgen list --base Balanco.xlsm
  mcgen generate --base Balanco.xlsm --client "Cliente Alpha" --period 01/2026
  mcgen batch --groups lotes.yaml
  mcgen cache build --balance Balanco.xlsm --billing gestao.xlsx
  mcgen serve`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		return initialize()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initialize loads the configuration, the logger and the mapping.
func initialize() error {
	var err error
	if cfgFile == defaultConfigFile && !utils.FileExists(cfgFile) {
		mainConfig = config.Default()
	} else {
		mainConfig, err = config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
	}

	logger, err = logging.New(mainConfig.LogLevel, verbose)
	if err != nil {
		return err
	}

	mapping, err = mainConfig.LoadMapping()
	if err != nil {
		return fmt.Errorf("failed to load column mapping: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// fileManager returns the file manager of the configured directories.
func fileManager() *utils.FileManager {
	return utils.NewFileManager(mainConfig.OutputDir, mainConfig.CacheDir)
}

func cacheStore() cache.Store {
	return cache.Store{Dir: mainConfig.CacheDir}
}

// errNoCache is returned when no --base is given and the cache was never
// built.
var errNoCache = errors.New("no --base given and no consolidated cache found; run 'mcgen cache build' first")

// checkCache fails when the consolidated cache of store cannot be used.
func checkCache(store cache.Store) error {
	_, ok, err := store.UpdatedAt()
	if err != nil {
		return fmt.Errorf("failed to open the consolidated cache: %w", err)
	}
	if !ok {
		return errNoCache
	}
	return nil
}

// openOrchestrator loads the base at basePath, or the consolidated cache
// when basePath is empty, and the template.
func openOrchestrator(basePath, templatePath string, needTemplate bool) (*converter.Orchestrator, error) {
	if templatePath == "" {
		templatePath = mainConfig.TemplateFile
	}
	template, err := os.ReadFile(templatePath)
	if err != nil {
		if needTemplate {
			return nil, fmt.Errorf("failed to read template %s: %w", filepath.Base(templatePath), err)
		}
		template = nil
	}

	opts := converter.Options{
		MaxConcurrency: mainConfig.MaxConcurrency,
		Sheet:          mainConfig.SourceSheet,
		CSV:            mainConfig.CSV,
		Logger:         logger,
	}

	if basePath == "" {
		store := cacheStore()
		if err := checkCache(store); err != nil {
			return nil, err
		}
		return converter.OpenStore(store, template, mapping, opts)
	}

	src, err := reader.SourceFromFile(basePath)
	if err != nil {
		return nil, err
	}
	return converter.Open(src, template, mapping, opts)
}
