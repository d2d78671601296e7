// Package trend turns an alert stream into regularly spaced per-category daily series.
//
// Aggregate collapses events into (day, category) counts, Reindex lays a category's
// counts onto a continuous daily calendar with zero fill, TopCategories ranks
// categories by total volume, and Merge splices the leader's forecast onto its
// history and clips every series to the reporting window.
package trend

import (
	"time"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

// Aggregate groups events by (day, category) and counts them. Every event lands in
// exactly one key, so the counts always sum to len(events).
func Aggregate(events []models.Event) models.DailyCounts {
	counts := make(models.DailyCounts)
	for _, e := range events {
		counts[models.DayCategory{Day: models.Day(e.Timestamp), Category: e.Category}]++
	}
	return counts
}

// CategorySeries builds the reindexed daily series of one category over window.
func CategorySeries(counts models.DailyCounts, category string, window models.DayWindow) models.Series {
	perDay := counts.ForCategory(category)
	points := make([]models.Point, 0, window.Len())
	for _, d := range window.Days() {
		points = append(points, models.Point{Day: d, Value: float64(perDay[d])})
	}
	return models.Series{Category: category, Points: points}
}

// Reindex returns s laid onto every day of window: days present in s keep their
// point, missing days get a zero count, and days outside the window are dropped.
// Reindexing a fully populated series onto its own window returns it unchanged.
func Reindex(s models.Series, window models.DayWindow) models.Series {
	byDay := make(map[time.Time]models.Point, len(s.Points))
	for _, p := range s.Points {
		byDay[models.Day(p.Day)] = p
	}

	points := make([]models.Point, 0, window.Len())
	for _, d := range window.Days() {
		if p, ok := byDay[d]; ok {
			p.Day = d
			points = append(points, p)
			continue
		}
		points = append(points, models.Point{Day: d})
	}
	return models.Series{Category: s.Category, Points: points}
}
