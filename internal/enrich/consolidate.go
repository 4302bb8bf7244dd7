package enrich

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/mcgen/internal/backup"
	"github.com/ginjaninja78/mcgen/internal/cache"
	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/csvparser"
	"github.com/ginjaninja78/mcgen/internal/logging"
	"github.com/ginjaninja78/mcgen/internal/reader"
	"github.com/ginjaninja78/mcgen/internal/types"
	"github.com/ginjaninja78/mcgen/internal/xlsxparser"
)

// Uploader backs up source files. *backup.S3Uploader satisfies it.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
}

// Inputs are the uploaded sources of a cache build.
type Inputs struct {
	Balance reader.Source

	// Billing is optional.
	Billing *reader.Source
}

// Options configures Consolidate.
type Options struct {
	Sheet string
	CSV   config.CSVSettings
	Store cache.Store

	// Uploader is optional. A failed backup is logged and ignored.
	Uploader Uploader

	Logger logging.Logger
}

// Consolidate loads the balance, merges the billing sheet when given and
// saves the result to the Parquet cache.
//
// RETURNS:
//   - The consolidated table.
//   - An error if the balance cannot be loaded or the cache cannot be
//     written. Billing problems only log a warning.
func Consolidate(ctx context.Context, in Inputs, mapping *config.Mapping, opts Options) (*types.Table, error) {
	logger := logging.OrNop(opts.Logger)

	if opts.Uploader != nil {
		if err := backupSources(ctx, opts.Uploader, in); err != nil {
			logger.Warnf("Backup failed (continuing without cloud copy): %v", err)
		} else {
			logger.Infof("Backup completed")
		}
	}

	base, err := reader.Load(in.Balance, mapping, reader.Options{Sheet: opts.Sheet, CSV: opts.CSV, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to read the balance: %w", err)
	}
	table := base.Table()

	if in.Billing != nil {
		logger.Infof("Reading billing sheet %s for due dates and status", in.Billing.Name)
		grid, err := readBilling(*in.Billing, opts.CSV)
		if err != nil {
			logger.Warnf("Failed to read the billing sheet (continuing with the balance only): %v", err)
		} else {
			table = Merge(table, grid, mapping.Billing, logger)
		}
	} else {
		logger.Infof("No billing sheet given. Continuing without due dates or extra status")
	}

	if err := opts.Store.Save(table); err != nil {
		return nil, err
	}
	logger.Infof("Consolidated cache saved to %s (%d records)", opts.Store.Path(), table.Len())
	return table, nil
}

func readBilling(src reader.Source, settings config.CSVSettings) (*xlsxparser.Grid, error) {
	if strings.EqualFold(filepath.Ext(src.Name), ".csv") {
		return csvparser.Parse(bytes.NewReader(src.Data), settings)
	}
	return xlsxparser.Read(src.Data, "")
}

func backupSources(ctx context.Context, u Uploader, in Inputs) error {
	if err := u.Upload(ctx, backup.BalanceKey, in.Balance.Data, contentType(in.Balance.Name)); err != nil {
		return err
	}
	if in.Billing != nil {
		if err := u.Upload(ctx, backup.BillingKey, in.Billing.Data, contentType(in.Billing.Name)); err != nil {
			return err
		}
	}
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}
