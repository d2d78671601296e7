package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/export"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/ingest"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/metrics"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/pipeline"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/simulate"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/storage"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/telegram"
)

type forecastFlags struct {
	input    string
	seed     uint64
	noStore  bool
	noNotify bool
}

func forecastCmd() *cobra.Command {
	var flags forecastFlags
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Rank attack categories and forecast the leader",
		Long: `Read the cleaned log to build the category pool, synthesize daily alert volumes
over the configured window, rank the top categories and forecast the leading one.

The merged series are written to the configured CSV and JSON files, stored in the
run history and optionally sent to Telegram. When only the model fit fails the
remaining categories are still written and the command exits with an error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForecast(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.input, "input", "", "Cleaned log to read categories from (default input.cleaned_log_path)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "Random seed, overrides simulation.seed (0 keeps the configured value)")
	cmd.Flags().BoolVar(&flags.noStore, "no-store", false, "Do not save the run to the history database")
	cmd.Flags().BoolVar(&flags.noNotify, "no-notify", false, "Do not send the Telegram summary")

	return cmd
}

func runForecast(cmd *cobra.Command, flags forecastFlags) error {
	ctx := cmd.Context()
	started := time.Now()

	var notifier *telegram.Client
	if cfg.Telegram.Enabled && !flags.noNotify {
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		notifier = client
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	report, err := buildReport(flags)
	var forecastErr *models.ForecastError
	if err != nil && !errors.As(err, &forecastErr) {
		logger.Error("Forecast run failed: %v", err)
		if notifier != nil {
			if sendErr := notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
			}
		}
		return err
	}
	if forecastErr != nil {
		logger.Warn("Forecast for %s failed, reporting the other %d categories: %v",
			forecastErr.Category, len(report.Series), forecastErr.Err)
	}

	if err := export.WriteFiles(report, cfg.Output.SeriesPath, cfg.Output.ReportPath); err != nil {
		return err
	}
	logger.Info("Wrote %s and %s", cfg.Output.SeriesPath, cfg.Output.ReportPath)

	if cfg.Storage.Enabled && !flags.noStore {
		store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
		if err := store.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info("Saved run %s", report.ID)
	}

	if notifier != nil {
		if err := notifier.SendReport(report, time.Since(started)); err != nil {
			logger.Warn("Failed to send report to Telegram: %v", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: leader %s, %d series, %d annotations\n",
		report.ID, report.Leader, len(report.Series), len(report.Annotations))

	if forecastErr != nil {
		return forecastErr
	}
	return nil
}

// buildReport runs the pipeline. The returned report is non-nil whenever the error
// is nil or a *models.ForecastError.
func buildReport(flags forecastFlags) (*models.Report, error) {
	input := flags.input
	if input == "" {
		input = cfg.Input.CleanedLogPath
	}
	pool, err := loadPool(input)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d categories from %s", len(pool), input)

	window, err := cfg.DayWindow()
	if err != nil {
		return nil, err
	}
	order, seasonal := cfg.ModelOrder()
	forecaster := pipeline.NewSARIMAForecaster(order, seasonal, cfg.Forecast.SeasonalPeriodDays, cfg.Forecast.MaxIterations)

	m := metrics.New()
	p, err := pipeline.New(pipeline.Options{
		Window:         window,
		Volume:         simulate.VolumeRange{Min: cfg.Simulation.VolumeMin, Max: cfg.Simulation.VolumeMax},
		TopK:           cfg.Forecast.TopK,
		HorizonDays:    cfg.Forecast.HorizonDays,
		AnnotationDays: cfg.Report.AnnotateDays,
		AnnotateAll:    cfg.Report.AnnotateAllCategories,
	}, forecaster, m)
	if err != nil {
		return nil, err
	}

	seed := cfg.Simulation.Seed
	if flags.seed != 0 {
		seed = flags.seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Info("Running forecast over %s with seed %d", window, seed)

	report, err := p.Run(pool, simulate.NewSource(seed))
	if report != nil {
		report.Seed = seed
		logModel(report)
	}

	m.MarkRun(time.Now())
	if cfg.Metrics.TextfilePath != "" {
		if mErr := m.WriteTextfile(cfg.Metrics.TextfilePath); mErr != nil {
			logger.Warn("Failed to write metrics: %v", mErr)
		}
	}
	return report, err
}

func loadPool(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cleaned log: %w", err)
	}
	defer f.Close()

	rows, err := ingest.ReadTable(f, cfg.Input.TimestampColumn, cfg.Input.CategoryColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ingest.ExtractPool(rows), nil
}

func logModel(report *models.Report) {
	m := report.Model
	if m == nil {
		return
	}
	logger.Debug("SARIMA%v%v for %s: ar=%v ma=%v sar=%v sma=%v sigma2=%.3f loglik=%.3f aic=%.3f aicc=%.3f bic=%.3f",
		m.Order, m.SeasonalOrder, report.Leader, m.AR, m.MA, m.SAR, m.SMA,
		m.Sigma2, m.LogLikelihood, m.AIC, m.AICc, m.BIC)
}
