// Package ingest reads honeypot alert logs. Clean reduces a raw export to the two
// columns the forecast needs, ReadTable parses the reduced table and ExtractPool
// derives the category pool the synthetic generator samples from.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

// Default column names of the raw honeypot export.
const (
	DefaultTimestampColumn = "@timestamp"
	DefaultCategoryColumn  = "alert.category"
	DefaultChunkSize       = 5000
)

// CleanOptions configures Clean.
type CleanOptions struct {
	TimestampColumn string
	CategoryColumn  string
	ChunkSize       int
	// OnChunk, if set, is called after each chunk is flushed with the running totals.
	OnChunk func(CleanStats)
}

func (o CleanOptions) withDefaults() CleanOptions {
	if o.TimestampColumn == "" {
		o.TimestampColumn = DefaultTimestampColumn
	}
	if o.CategoryColumn == "" {
		o.CategoryColumn = DefaultCategoryColumn
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// CleanStats summarises a Clean run.
type CleanStats struct {
	RowsRead    int
	RowsWritten int
	// RowsDropped counts rows where both kept columns were empty.
	RowsDropped int
	// BadLines counts malformed lines that were skipped.
	BadLines int
	Chunks   int
}

// Clean streams the CSV from r to w keeping only the timestamp and category columns.
// Rows missing both values are dropped and malformed lines are skipped. The header is
// written once, before the first row that survives. Cancellation is checked between chunks.
func Clean(ctx context.Context, r io.Reader, w io.Writer, opts CleanOptions) (CleanStats, error) {
	opts = opts.withDefaults()
	var stats CleanStats
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, fmt.Errorf("%w: input has no header", models.ErrConfiguration)
		}
		return stats, fmt.Errorf("failed to read header: %w", err)
	}
	tsIdx, catIdx := columnIndex(header, opts.TimestampColumn), columnIndex(header, opts.CategoryColumn)
	if tsIdx < 0 && catIdx < 0 {
		return stats, fmt.Errorf("%w: header has neither %q nor %q", models.ErrConfiguration,
			opts.TimestampColumn, opts.CategoryColumn)
	}
	width := len(header)

	writer := csv.NewWriter(w)
	headerWritten := false
	chunk := make([][2]string, 0, opts.ChunkSize)

	flush := func() error {
		stats.Chunks++
		if len(chunk) > 0 && !headerWritten {
			if err := writer.Write([]string{opts.TimestampColumn, opts.CategoryColumn}); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			headerWritten = true
		}
		for _, row := range chunk {
			if err := writer.Write(row[:]); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("failed to flush chunk: %w", err)
		}
		stats.RowsWritten += len(chunk)
		logger.Debug("Cleaned chunk %d: %d rows kept", stats.Chunks, len(chunk))
		chunk = chunk[:0]
		if opts.OnChunk != nil {
			opts.OnChunk(stats)
		}
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.BadLines++
				continue
			}
			return stats, fmt.Errorf("failed to read input: %w", err)
		}
		if len(record) != width {
			stats.BadLines++
			continue
		}

		stats.RowsRead++
		ts, cat := field(record, tsIdx), field(record, catIdx)
		if ts == "" && cat == "" {
			stats.RowsDropped++
		} else {
			chunk = append(chunk, [2]string{ts, cat})
		}

		if stats.RowsRead%opts.ChunkSize == 0 {
			if err := flush(); err != nil {
				return stats, err
			}
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
	}

	if stats.RowsRead%opts.ChunkSize != 0 {
		if err := flush(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		// Exports sometimes carry a UTF-8 BOM on the first column.
		if strings.TrimPrefix(strings.TrimSpace(h), "\ufeff") == name {
			return i
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
