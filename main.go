package main

import (
	"fmt"
	"os"
	"time"

	"crime-analytics/config"
	"crime-analytics/services"
	"crime-analytics/storage"
	"crime-analytics/utils"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "crime-analytics",
		Short:         "Crime statistics dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (.yaml or .toml), defaults to $"+config.ConfigEnv)

	root.AddCommand(
		newServeCmd(),
		newTrainCmd(),
		newReportCmd(),
		newImportCmd(),
		newExportCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// ================== Bootstrap ====================

func bootstrap() (*config.Config, *utils.Logger, error) {
	logger := utils.NewLogger()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, logger, fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))
	return cfg, logger, nil
}

// loadDataset reads the crime table from the configured source
func loadDataset(cfg *config.Config, logger *utils.Logger) (*storage.Dataset, error) {
	if cfg.DataSource == config.SourcePostgres {
		pg, err := connectPostgres(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer pg.Close()
		return services.LoadDatasetFromStorage(pg, logger)
	}
	return services.LoadDataset(storage.NewCSVStore(cfg.DataPath, logger), logger)
}

// connectPostgres opens the store, retrying while the database comes up
func connectPostgres(cfg *config.Config, logger *utils.Logger) (*storage.PostgresStore, error) {
	var pg *storage.PostgresStore
	err := utils.RetryWithBackoff(cfg.DBRetries, time.Second, func() error {
		var err error
		pg, err = storage.NewPostgresStore(cfg.DatabaseURL, logger)
		return err
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pg, nil
}
