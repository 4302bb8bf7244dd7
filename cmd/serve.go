// =============================================================================
// MC Generator - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   mcgen serve [--addr :8083]
//
// ENDPOINTS:
//   GET  /health
//   POST /api/v1/options         baseFile                    -> clients, periods
//   POST /api/v1/count           baseFile, clients, periods  -> count
//   POST /api/v1/generate        + templateFile              -> xlsx
//   POST /api/v1/generate/batch  + groups (JSON array)       -> zip
//
// baseFile defaults to the consolidated cache and templateFile to
// template_file.
//
// =============================================================================

package cmd

import (
	"os"

	"github.com/ginjaninja78/mcgen/internal/api"
	"github.com/ginjaninja78/mcgen/internal/api/handlers"
	"github.com/ginjaninja78/mcgen/internal/api/responses"
	"github.com/ginjaninja78/mcgen/internal/converter"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generator over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (defaults to listen_addr)")
}

func runServe() error {
	if err := fileManager().EnsureDirectories(); err != nil {
		return err
	}

	template, err := os.ReadFile(mainConfig.TemplateFile)
	if err != nil {
		logger.Warnf("Default template %s not available, requests must upload templateFile: %v", mainConfig.TemplateFile, err)
		template = nil
	}

	store := cacheStore()
	responses.SetLogger(logger.Desugar())
	router := api.NewRouter(handlers.NewMemoHandler(handlers.Config{
		Mapping: mapping,
		Options: converter.Options{
			MaxConcurrency: mainConfig.MaxConcurrency,
			Sheet:          mainConfig.SourceSheet,
			CSV:            mainConfig.CSV,
			Logger:         logger,
		},
		Template:   template,
		Store:      &store,
		NameFormat: mainConfig.OutputNameFormat,
	}))

	addr := listenAddr
	if addr == "" {
		addr = mainConfig.ListenAddr
	}
	logger.Infof("MC Generator service listening on %s", addr)
	return router.Run(addr)
}
