package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crime-analytics/config"
	"crime-analytics/models"
	"crime-analytics/observability"
	"crime-analytics/server"
	"crime-analytics/services"
	"crime-analytics/storage"
	"crime-analytics/utils"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the dataset and serve the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			logger.Info("Crime Statistics Dashboard")
			logger.Info("Data source: %s | Port: %d | Cache TTL: %v", cfg.DataSource, cfg.Port, cfg.CacheTTL)

			// =================== Data ========================================
			dataset, err := loadDataset(cfg, logger)
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}
			coords, err := storage.NewCSVStore(cfg.CoordinatesPath, logger).ReadCoordinates()
			if err != nil {
				return fmt.Errorf("load coordinates: %w", err)
			}
			logger.Info("Loaded %d records, %d states, %d coordinates",
				dataset.Len(), len(dataset.States()), coords.Len())

			// =================== Services ====================================
			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := observability.NewMetrics(registry)

			predictor := services.NewPredictionService(dataset, storage.NewModelStore(cfg.ModelPath), logger, metrics)
			svc := server.Services{
				Dataset:   dataset,
				Analysis:  services.NewAnalysisService(dataset, logger, metrics),
				Hotspots:  services.NewHotspotService(dataset, coords, logger, metrics),
				Insights:  services.NewInsightService(dataset, nil, logger, metrics),
				Predictor: predictor,
			}

			if cfg.TrainOnStartup {
				if _, err := predictor.Train(models.DefaultCrimeType); err != nil {
					logger.Error("Startup training failed: %v", err)
				}
			}

			// =================== Retraining ==================================
			if cfg.RetrainSchedule != "" {
				scheduler := cron.New()
				if _, err := scheduler.AddFunc(cfg.RetrainSchedule, predictor.Retrain); err != nil {
					return fmt.Errorf("retrain schedule %q: %w", cfg.RetrainSchedule, err)
				}
				scheduler.Start()
				defer func() { <-scheduler.Stop().Done() }()
				logger.Info("Retraining scheduled: %s", cfg.RetrainSchedule)
			}

			// =================== HTTP ========================================
			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, svc, logger, metrics, registry).Run(ctx)
		},
	}
}

func newTrainCmd() *cobra.Command {
	var crimeType string
	var force bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a prediction model and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			dataset, err := loadDataset(cfg, logger)
			if err != nil {
				return fmt.Errorf("load dataset: %w", err)
			}

			store := storage.NewModelStore(cfg.ModelPath)
			if force {
				if err := os.Remove(store.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("remove old model: %w", err)
				}
			}

			report, err := services.NewPredictionService(dataset, store, logger, nil).Train(crimeType)
			if err != nil {
				return err
			}

			color.Green("Trained %s on %d samples (MAE %.2f, R2 %.3f) in %v",
				report.CrimeType, report.Samples, report.MAE, report.R2, report.Duration)
			if report.Persisted {
				color.Green("Model saved to %s", store.Path())
			} else {
				color.Yellow("Model not saved: %s already holds a model (use --force to replace it)", store.Path())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&crimeType, "crime-type", models.DefaultCrimeType, "crime column to train on")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing model file")
	return cmd
}

// filterFlags are shared by report and export
type filterFlags struct {
	state     string
	district  string
	crimeType string
	year      string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.state, "state", models.AllFilter, "state filter")
	cmd.Flags().StringVar(&f.district, "district", models.AllFilter, "district filter")
	cmd.Flags().StringVar(&f.crimeType, "crime-type", models.DefaultCrimeType, "crime column")
	cmd.Flags().StringVar(&f.year, "year", "2014", "year filter or All")
}

// compute runs the analysis and insights for the flags against cfg's dataset
func (f *filterFlags) compute(cfg *config.Config, logger *utils.Logger) (models.FilterSpec, *models.AnalysisResult, *models.InsightResult, error) {
	// progress lines would interleave with the report
	if cfg.LogLevel != "debug" {
		logger.SetLevel(utils.LevelWarn)
	}
	dataset, err := loadDataset(cfg, logger)
	if err != nil {
		return models.FilterSpec{}, nil, nil, fmt.Errorf("load dataset: %w", err)
	}

	year, err := models.ParseYearFilter(f.year)
	if err != nil {
		year = models.AnyYear
	}
	filter := models.NewFilterSpec(f.state, f.district, dataset.ResolveCrimeType(f.crimeType), year)

	analysis := services.NewAnalysisService(dataset, logger, nil).Analyze(filter.State, filter.CrimeType, f.year)
	insights := services.NewInsightService(dataset, nil, logger, nil).Generate(filter)
	return filter, analysis, insights, nil
}

func newReportCmd() *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print analysis and policy recommendations to the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			filter, analysis, insights, err := flags.compute(cfg, logger)
			if err != nil {
				return err
			}
			services.PrintInsightReport(cmd.OutOrStdout(), filter, analysis, insights)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	var flags filterFlags
	var output, chart string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the analysis to a workbook and optionally a trend chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			filter, analysis, insights, err := flags.compute(cfg, logger)
			if err != nil {
				return err
			}

			f, err := services.ExportAnalysisWorkbook(filter, analysis, insights)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(output); err != nil {
				return fmt.Errorf("save workbook: %w", err)
			}
			color.Green("Workbook written to %s", output)

			if chart != "" {
				out, err := os.Create(chart)
				if err != nil {
					return fmt.Errorf("create chart file: %w", err)
				}
				defer out.Close()
				title := fmt.Sprintf("%s - %s", filter.CrimeType, filter.State)
				if err := services.RenderTrendChart(out, title, analysis.YearlyTrend); err != nil {
					return err
				}
				color.Green("Chart written to %s", chart)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "crime_analysis.xlsx", "workbook path")
	cmd.Flags().StringVar(&chart, "chart", "", "also write the yearly trend as a PNG")
	return cmd
}

func newImportCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Clean the crime CSV and load it into PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			if source == "" {
				source = cfg.DataPath
			}

			// ========= CSV: read and clean ===========================
			dataset, err := services.LoadDataset(storage.NewCSVStore(source, logger), logger)
			if err != nil {
				return fmt.Errorf("load %s: %w", source, err)
			}

			// ========= PostgreSQL: store clean data ============
			pg, err := connectPostgres(cfg, logger)
			if err != nil {
				logger.Error("Make sure PostgreSQL is running and DATABASE_URL is set")
				return err
			}
			defer pg.Close()

			if err := pg.CreateTables(); err != nil {
				return fmt.Errorf("create tables: %w", err)
			}
			if err := pg.SaveClean(dataset.Records(), dataset.Columns()); err != nil {
				return fmt.Errorf("save records: %w", err)
			}

			color.Green("Imported %d records from %s", dataset.Len(), source)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "crime CSV to import (defaults to the configured data path)")
	return cmd
}
