// Package export writes a finished report to the files the chart renderer reads:
// a wide CSV with one column per category and a JSON document with annotations.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

// WriteSeries writes the report series as a wide table: a date column followed by
// one column per series in report order. Cells are empty where a series has no value
// on that date.
func WriteSeries(w io.Writer, report *models.Report) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(report.Series)+1)
	header = append(header, "date")
	values := make([]map[time.Time]float64, len(report.Series))
	daySet := make(map[time.Time]struct{})
	for i, s := range report.Series {
		header = append(header, s.Category)
		values[i] = make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			values[i][p.Day] = p.Value
			daySet[p.Day] = struct{}{}
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	record := make([]string, len(header))
	for _, d := range days {
		record[0] = d.Format(models.DateLayout)
		for i := range report.Series {
			record[i+1] = ""
			if v, ok := values[i][d]; ok {
				record[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// reportDocument is the JSON shape of an exported report. Dates are plain YYYY-MM-DD.
type reportDocument struct {
	ID            string                  `json:"id"`
	CreatedAt     time.Time               `json:"created_at"`
	WindowStart   string                  `json:"window_start"`
	WindowEnd     string                  `json:"window_end"`
	Seed          uint64                  `json:"seed"`
	Leader        string                  `json:"leader"`
	Ranking       []models.RankedCategory `json:"ranking"`
	Series        []seriesDocument        `json:"series"`
	Annotations   []pointDocument         `json:"annotations"`
	Model         *models.ModelSummary    `json:"model,omitempty"`
	ForecastError string                  `json:"forecast_error,omitempty"`
}

type seriesDocument struct {
	Category string          `json:"category"`
	Points   []pointDocument `json:"points"`
}

type pointDocument struct {
	Category string  `json:"category,omitempty"`
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	Forecast bool    `json:"forecast,omitempty"`
}

// WriteReport writes the report as indented JSON.
func WriteReport(w io.Writer, report *models.Report) error {
	doc := reportDocument{
		ID:            report.ID,
		CreatedAt:     report.CreatedAt,
		WindowStart:   report.Window.Start.Format(models.DateLayout),
		WindowEnd:     report.Window.End.Format(models.DateLayout),
		Seed:          report.Seed,
		Leader:        report.Leader,
		Ranking:       report.Ranking,
		Series:        make([]seriesDocument, 0, len(report.Series)),
		Annotations:   make([]pointDocument, 0, len(report.Annotations)),
		Model:         report.Model,
		ForecastError: report.ForecastError,
	}
	for _, s := range report.Series {
		sd := seriesDocument{Category: s.Category, Points: make([]pointDocument, 0, len(s.Points))}
		for _, p := range s.Points {
			sd.Points = append(sd.Points, pointDocument{
				Date:     p.Day.Format(models.DateLayout),
				Value:    p.Value,
				Forecast: p.Forecast,
			})
		}
		doc.Series = append(doc.Series, sd)
	}
	for _, a := range report.Annotations {
		doc.Annotations = append(doc.Annotations, pointDocument{
			Category: a.Category,
			Date:     a.Day.Format(models.DateLayout),
			Value:    a.Value,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteFiles writes both hand-off files. An empty path skips that file.
func WriteFiles(report *models.Report, seriesPath, reportPath string) error {
	if seriesPath != "" {
		if err := writeFile(seriesPath, report, WriteSeries); err != nil {
			return fmt.Errorf("failed to write series: %w", err)
		}
	}
	if reportPath != "" {
		if err := writeFile(reportPath, report, WriteReport); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

// writeFile writes to a temporary file and renames it into place.
func writeFile(path string, report *models.Report, write func(io.Writer, *models.Report) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	if err := write(f, report); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}
