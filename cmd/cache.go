// =============================================================================
// MC Generator - Cache Commands
// =============================================================================
//
// COMMAND USAGE:
//   mcgen cache build --balance Balanco.xlsm [--billing gestao.xlsx]
//   mcgen cache info
//
// BUILD PIPELINE:
//   1. Back up the sources to S3 (when backup.enabled; failures only warn)
//   2. Read and validate the billing balance
//   3. Merge due dates and status from the billing-management sheet
//   4. Save the consolidated table as Parquet in cache_dir
//
// Commands run without --base read the consolidated cache.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/mcgen/internal/backup"
	"github.com/ginjaninja78/mcgen/internal/enrich"
	"github.com/ginjaninja78/mcgen/internal/reader"
	"github.com/spf13/cobra"
)

var (
	balancePath string
	billingPath string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the consolidated Parquet cache",
}

var cacheBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the consolidated cache from the balance and billing sheets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCacheBuild(cmd.Context())
	},
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show when the consolidated cache was last built",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cacheStore()
		updated, ok, err := store.UpdatedAt()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cache: never built")
			return nil
		}
		fmt.Printf("Cache: %s\nUpdated: %s\n", store.Path(), updated.Format("02/01/2006 15:04"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheBuildCmd, cacheInfoCmd)

	cacheBuildCmd.Flags().StringVar(&balancePath, "balance", "", "Billing balance workbook")
	cacheBuildCmd.Flags().StringVar(&billingPath, "billing", "", "Billing-management workbook (optional)")
	cacheBuildCmd.MarkFlagRequired("balance")
}

func runCacheBuild(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fileManager().EnsureDirectories(); err != nil {
		return err
	}

	in := enrich.Inputs{}
	var err error
	in.Balance, err = reader.SourceFromFile(balancePath)
	if err != nil {
		return err
	}
	if billingPath != "" {
		billing, err := reader.SourceFromFile(billingPath)
		if err != nil {
			return err
		}
		in.Billing = &billing
	}

	opts := enrich.Options{
		Sheet:  mainConfig.SourceSheet,
		CSV:    mainConfig.CSV,
		Store:  cacheStore(),
		Logger: logger,
	}
	if mainConfig.Backup.Enabled {
		uploader, err := backup.NewS3Uploader(ctx, mainConfig.Backup.Bucket, mainConfig.Backup.Prefix, logger)
		if err != nil {
			logger.Warnf("S3 backup unavailable: %v", err)
		} else {
			opts.Uploader = uploader
		}
	}

	table, err := enrich.Consolidate(ctx, in, mapping, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Consolidated cache built with %d records\n", table.Len())
	return nil
}
