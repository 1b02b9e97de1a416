package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/facility-match/internal/warehouse"
)

var (
	importCSVPath      string
	importAccountsPath string
	importSheet        string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a facility registry export (and optionally accounts) into the warehouse",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		facilities, err := readExport(importCSVPath, warehouse.ParseFacilityCSV, warehouse.ParseFacilityXLSX)
		if err != nil {
			return err
		}

		wh, err := initWarehouse(ctx)
		if err != nil {
			return err
		}
		defer wh.Close()

		if err := wh.Migrate(ctx); err != nil {
			return err
		}

		n, err := wh.ReplaceFacilities(ctx, facilities)
		if err != nil {
			return eris.Wrap(err, "import facilities")
		}
		zap.L().Info("facilities imported",
			zap.Int64("rows", n),
			zap.String("csv", importCSVPath),
			zap.String("table", cfg.Warehouse.FacilityTable),
		)

		if importAccountsPath == "" {
			return nil
		}
		accounts, err := readExport(importAccountsPath, warehouse.ParseAccountCSV, warehouse.ParseAccountXLSX)
		if err != nil {
			return err
		}
		n, err = wh.ReplaceAccounts(ctx, accounts)
		if err != nil {
			return eris.Wrap(err, "import accounts")
		}
		zap.L().Info("accounts imported",
			zap.Int64("rows", n),
			zap.String("csv", importAccountsPath),
			zap.String("table", cfg.Warehouse.AccountTable),
		)
		return nil
	},
}

// readExport parses a CSV export, or an XLSX workbook when path ends in .xlsx.
func readExport[T any](
	path string,
	parseCSV func(io.Reader) ([]T, error),
	parseXLSX func(path, sheet string) ([]T, error),
) ([]T, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err := parseXLSX(path, importSheet)
		if err != nil {
			return nil, eris.Wrapf(err, "parse %s", path)
		}
		return records, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	records, err := parseCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return records, nil
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to facility registry CSV or XLSX (required)")
	importCmd.Flags().StringVar(&importAccountsPath, "accounts", "", "path to account CSV or XLSX")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
