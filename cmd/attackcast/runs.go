package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/export"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/storage"
)

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored forecast runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRunsList(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 lists all)")

	cmd.AddCommand(runsShowCmd())
	return cmd
}

func runsShowCmd() *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a stored run as JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer closeStorage(store)

			report, err := store.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asCSV {
				return export.WriteSeries(cmd.OutOrStdout(), report)
			}
			return export.WriteReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Print the series as a wide CSV instead of the JSON report")
	return cmd
}

func runRunsList(cmd *cobra.Command, limit int) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer closeStorage(store)

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs stored. Use 'attackcast forecast' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tWINDOW\tLEADER\tCATEGORIES\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.ForecastError != "" {
			status = "forecast failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Window.Start.Format(models.DateLayout)+".."+run.Window.End.Format(models.DateLayout),
			run.Leader,
			run.Categories,
			status,
		)
	}
	return w.Flush()
}

func openStorage() (*storage.Storage, error) {
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("run history is disabled (storage.enabled is false)")
	}
	store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func closeStorage(store *storage.Storage) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
}
