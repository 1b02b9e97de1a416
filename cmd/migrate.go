package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the facility and account tables if missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		wh, err := initWarehouse(ctx)
		if err != nil {
			return err
		}
		defer wh.Close()

		if err := wh.Migrate(ctx); err != nil {
			return err
		}
		zap.L().Info("warehouse migrated",
			zap.String("driver", cfg.Warehouse.Driver),
			zap.String("facility_table", cfg.Warehouse.FacilityTable),
			zap.String("account_table", cfg.Warehouse.AccountTable),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
