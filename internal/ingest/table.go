package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
	"Jan 2, 2006 @ 15:04:05.000",
	models.DateLayout,
}

// ParseTimestamp parses the timestamp formats found in honeypot exports.
// The result is in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ReadTable parses a cleaned two-column table. Columns are located by name so the
// order in the file does not matter. Unparsable timestamps are kept as the zero time
// because only the category feeds the pool.
func ReadTable(r io.Reader, timestampColumn, categoryColumn string) ([]models.LogRow, error) {
	if timestampColumn == "" {
		timestampColumn = DefaultTimestampColumn
	}
	if categoryColumn == "" {
		categoryColumn = DefaultCategoryColumn
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	tsIdx, catIdx := columnIndex(header, timestampColumn), columnIndex(header, categoryColumn)
	if catIdx < 0 {
		return nil, fmt.Errorf("%w: table has no %q column", models.ErrConfiguration, categoryColumn)
	}

	var rows []models.LogRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		row := models.LogRow{}
		if catIdx < len(record) {
			row.Category = strings.TrimSpace(record[catIdx])
		}
		if tsIdx >= 0 && tsIdx < len(record) {
			if ts, err := ParseTimestamp(record[tsIdx]); err == nil {
				row.Timestamp = ts
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExtractPool returns the distinct non-empty categories of rows in order of first
// appearance. An empty pool is returned as is; the generator rejects it.
func ExtractPool(rows []models.LogRow) []string {
	seen := make(map[string]struct{})
	pool := make([]string, 0)
	for _, row := range rows {
		if row.Category == "" {
			continue
		}
		if _, ok := seen[row.Category]; ok {
			continue
		}
		seen[row.Category] = struct{}{}
		pool = append(pool, row.Category)
	}
	return pool
}
