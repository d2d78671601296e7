package models

import (
	"errors"
	"time"
)

// RankedCategory is a top-K category with its total event count.
type RankedCategory struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
}

// ModelSummary describes the fitted seasonal model of the leading category.
type ModelSummary struct {
	Order         [3]int    `json:"order"`
	SeasonalOrder [4]int    `json:"seasonal_order"`
	AR            []float64 `json:"ar,omitempty"`
	MA            []float64 `json:"ma,omitempty"`
	SAR           []float64 `json:"sar,omitempty"`
	SMA           []float64 `json:"sma,omitempty"`
	Sigma2        float64   `json:"sigma2"`
	LogLikelihood float64   `json:"log_likelihood"`
	AIC           float64   `json:"aic"`
	AICc          float64   `json:"aicc"`
	BIC           float64   `json:"bic"`
}

// Report is the finished output of one forecast run, in the shape the rendering
// side consumes: ordered series per top-K category plus annotation points.
type Report struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	Window        DayWindow        `json:"window"`
	Seed          uint64           `json:"seed"`
	Ranking       []RankedCategory `json:"ranking"`
	Leader        string           `json:"leader"`
	Series        []Series         `json:"series"`
	Annotations   []Annotation     `json:"annotations"`
	Model         *ModelSummary    `json:"model,omitempty"`
	ForecastError string           `json:"forecast_error,omitempty"`
}

// Validate checks that all report fields are valid
func (r *Report) Validate() error {
	if r.ID == "" {
		return errors.New("report ID must not be empty")
	}
	if err := r.Window.Validate(); err != nil {
		return err
	}
	if len(r.Ranking) == 0 {
		return errors.New("report ranking must not be empty")
	}
	for i := range r.Series {
		if err := r.Series[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SeriesFor returns the series of a category, nil when the report has none.
func (r *Report) SeriesFor(category string) *Series {
	for i := range r.Series {
		if r.Series[i].Category == category {
			return &r.Series[i]
		}
	}
	return nil
}
