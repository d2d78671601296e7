package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/ingest"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
)

func cleanCmd() *cobra.Command {
	var input, output string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Reduce a raw honeypot export to timestamp and category",
		Long: `Stream the raw CSV export in chunks and keep only the timestamp and alert
category columns. Rows missing both are dropped and malformed lines are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, out := input, output
			if in == "" {
				in = cfg.Input.RawLogPath
			}
			if out == "" {
				out = cfg.Input.CleanedLogPath
			}
			return runClean(cmd, in, out, quiet)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Raw log to read (default input.raw_log_path)")
	cmd.Flags().StringVar(&output, "output", "", "Cleaned log to write (default input.cleaned_log_path)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Hide the progress bar")

	return cmd
}

func runClean(cmd *cobra.Command, input, output string, quiet bool) error {
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open raw log: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat raw log: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create cleaned log: %w", err)
	}
	defer out.Close()

	var r io.Reader = in
	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.NewOptions64(info.Size(),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetDescription("Cleaning "+filepath.Base(input)),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(cmd.ErrOrStderr())
			}),
		)
		r = io.TeeReader(in, bar)
	}

	stats, err := ingest.Clean(cmd.Context(), r, out, ingest.CleanOptions{
		TimestampColumn: cfg.Input.TimestampColumn,
		CategoryColumn:  cfg.Input.CategoryColumn,
		ChunkSize:       cfg.Input.ChunkSize,
		OnChunk: func(s ingest.CleanStats) {
			logger.Debug("Chunk %d done: %d rows read, %d written", s.Chunks, s.RowsRead, s.RowsWritten)
		},
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close cleaned log: %w", err)
	}

	logger.Info("Cleaned %s: %d rows read, %d written, %d dropped, %d bad lines",
		input, stats.RowsRead, stats.RowsWritten, stats.RowsDropped, stats.BadLines)
	fmt.Fprintf(cmd.OutOrStdout(), "Finished. Total rows written: %d\nOutput saved to: %s\n", stats.RowsWritten, output)
	return nil
}
