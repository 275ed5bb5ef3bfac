package main

import (
	"fmt"
	"time"

	"planrec/catalog"
	"planrec/db"

	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Creates the patients and insurance_plans tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		pool, err := openPool(ctx, cfg.Postgres.URL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := db.InitSchema(ctx, pool); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
		if cfg.Warehouse.URL != cfg.Postgres.URL {
			wh, err := openPool(ctx, cfg.Warehouse.URL, logger)
			if err != nil {
				return err
			}
			defer wh.Close()
			if err := db.InitSchema(ctx, wh); err != nil {
				return fmt.Errorf("initialize warehouse schema: %w", err)
			}
		}
		logger.Info("schema initialized")
		return nil
	},
}

var loadCatalogCmd = &cobra.Command{
	Use:     "load-catalog <plans.parquet>",
	Short:   "Copies a Parquet plan catalog into the warehouse.",
	Example: "  planrec load-catalog --batch 5000 plans.parquet",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		batch, _ := cmd.Flags().GetInt("batch")

		pool, err := openPool(ctx, cfg.Warehouse.URL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		stats, err := catalog.LoadParquet(ctx, pool, args[0], batch, logger)
		if err != nil {
			return err
		}
		cmd.Printf("Loaded %d of %d plans in %s\n", stats.RowsCopied, stats.RowsRead, stats.Elapsed.Round(time.Millisecond))
		return nil
	},
}

var convertCatalogCmd = &cobra.Command{
	Use:     "convert-catalog <plans.csv> <plans.parquet>",
	Short:   "Converts a CSV plan export to Parquet.",
	Example: "  planrec convert-catalog plan-attributes.csv plans.parquet",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := setup()
		if err != nil {
			return err
		}
		batch, _ := cmd.Flags().GetInt("batch")

		stats, err := catalog.ConvertCSV(args[0], args[1], batch, logger)
		if err != nil {
			return err
		}
		ratio := 0.0
		if stats.InputSize > 0 {
			ratio = float64(stats.OutputSize) / float64(stats.InputSize) * 100
		}
		cmd.Printf("Converted %d plans in %s (%.1f MB -> %.1f MB, %.1f%%)\n",
			stats.Rows, stats.Elapsed.Round(time.Millisecond),
			float64(stats.InputSize)/1e6, float64(stats.OutputSize)/1e6, ratio)
		return nil
	},
}

func init() {
	loadCatalogCmd.Flags().Int("batch", defaultBatchSize, "Rows per COPY transaction")
	convertCatalogCmd.Flags().Int("batch", defaultBatchSize, "Rows projected per batch")
}
