package trend

import (
	"fmt"
	"time"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

// LastDayOfMonth is the annotation day selector for the final day of the month.
const LastDayOfMonth = -1

// DefaultAnnotationDays labels the 1st, the 15th and the last day of the month.
var DefaultAnnotationDays = []int{1, 15, LastDayOfMonth}

// NewForecastSeries places values on the consecutive days following after.
func NewForecastSeries(category string, after time.Time, values []float64) models.Series {
	start := models.Day(after)
	points := make([]models.Point, len(values))
	for i, v := range values {
		points[i] = models.Point{Day: start.AddDate(0, 0, i+1), Value: v, Forecast: true}
	}
	return models.Series{Category: category, Points: points}
}

// Append concatenates forecast onto history. The forecast must start on the day after
// the last historical day; an overlap or a gap fails with ErrConfiguration.
func Append(history, forecast models.Series) (models.Series, error) {
	if forecast.Category != history.Category {
		return models.Series{}, fmt.Errorf("%w: forecast category %q does not match history %q",
			models.ErrConfiguration, forecast.Category, history.Category)
	}
	if len(forecast.Points) == 0 {
		return copySeries(history), nil
	}
	if len(history.Points) > 0 {
		want := history.LastDay().AddDate(0, 0, 1)
		if got := models.Day(forecast.FirstDay()); !got.Equal(want) {
			return models.Series{}, fmt.Errorf("%w: forecast for %s starts %s, want %s (history ends %s)",
				models.ErrConfiguration, history.Category, got.Format(models.DateLayout),
				want.Format(models.DateLayout), history.LastDay().Format(models.DateLayout))
		}
	}

	out := models.Series{Category: history.Category, Points: make([]models.Point, 0, len(history.Points)+len(forecast.Points))}
	out.Points = append(out.Points, history.Points...)
	out.Points = append(out.Points, forecast.Points...)
	return out, out.Validate()
}

// Clip drops every point whose day lies outside window. Days inside the window that
// the series does not cover stay absent.
func Clip(s models.Series, window models.DayWindow) models.Series {
	out := models.Series{Category: s.Category, Points: make([]models.Point, 0, len(s.Points))}
	for _, p := range s.Points {
		if window.Contains(p.Day) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Merge appends forecast to the series of its category (when forecast is non-nil) and
// clips all series to window. Order of histories is preserved.
func Merge(histories []models.Series, forecast *models.Series, window models.DayWindow) ([]models.Series, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	merged := make([]models.Series, 0, len(histories))
	appended := false
	for _, h := range histories {
		s := h
		if forecast != nil && h.Category == forecast.Category {
			var err error
			if s, err = Append(h, *forecast); err != nil {
				return nil, err
			}
			appended = true
		}
		merged = append(merged, Clip(s, window))
	}

	if forecast != nil && !appended {
		return nil, fmt.Errorf("%w: no history for forecast category %q", models.ErrConfiguration, forecast.Category)
	}
	return merged, nil
}

// Annotate emits a point for every day of the window's final month whose day-of-month
// is listed in days (LastDayOfMonth selects the month's last day) and whose value is
// positive. Only series of the listed categories are considered.
func Annotate(series []models.Series, categories []string, window models.DayWindow, days []int) []models.Annotation {
	last := window.LastMonth()
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	var out []models.Annotation
	for _, s := range series {
		if !wanted[s.Category] {
			continue
		}
		for _, p := range s.Points {
			if !last.Contains(p.Day) || p.Value <= 0 || !annotationDay(p.Day, days) {
				continue
			}
			out = append(out, models.Annotation{Category: s.Category, Day: p.Day, Value: p.Value})
		}
	}
	if out == nil {
		return []models.Annotation{}
	}
	return out
}

func annotationDay(d time.Time, days []int) bool {
	for _, want := range days {
		if want == LastDayOfMonth && d.Day() == models.LastDayOfMonth(d) {
			return true
		}
		if want == d.Day() {
			return true
		}
	}
	return false
}

func copySeries(s models.Series) models.Series {
	points := make([]models.Point, len(s.Points))
	copy(points, s.Points)
	return models.Series{Category: s.Category, Points: points}
}
