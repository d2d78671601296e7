package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid windows, empty category pools, invalid volume
	// ranges and forecast days that overlap history.
	ErrConfiguration = errors.New("configuration error")

	// ErrInsufficientData marks a ranking request with no categories to rank.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelFit marks a seasonal model that could not be fitted, either because the
	// input series is degenerate or because the optimizer failed.
	ErrModelFit = errors.New("model fit error")
)

// ForecastError is returned when the leading category could not be forecast.
// The series of the remaining categories are still produced alongside it.
type ForecastError struct {
	Category string
	Err      error
}

func (e *ForecastError) Error() string {
	return fmt.Sprintf("forecast failed for category %s: %v", e.Category, e.Err)
}

func (e *ForecastError) Unwrap() error {
	return e.Err
}
