package pipeline

import (
	"fmt"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/sarima"
)

// Forecast is the output of a Forecaster: point forecasts and an optional model summary.
type Forecast struct {
	Values []float64
	Model  *models.ModelSummary
}

// Forecaster fits a model to a daily history and forecasts horizon days ahead.
// Failures must wrap models.ErrModelFit.
type Forecaster interface {
	Forecast(history []float64, horizon int) (Forecast, error)
}

// Default model orders.
var (
	DefaultOrder         = [3]int{1, 1, 1}
	DefaultSeasonalOrder = [3]int{1, 1, 1}
)

// SARIMAForecaster fits a fresh SARIMA model on every call.
type SARIMAForecaster struct {
	Order         [3]int
	SeasonalOrder [3]int
	Period        int
	MaxIterations int
}

// NewSARIMAForecaster returns a SARIMA(order)(seasonalOrder)[period] forecaster.
func NewSARIMAForecaster(order, seasonalOrder [3]int, period, maxIterations int) *SARIMAForecaster {
	return &SARIMAForecaster{
		Order:         order,
		SeasonalOrder: seasonalOrder,
		Period:        period,
		MaxIterations: maxIterations,
	}
}

// Forecast implements Forecaster.
func (f *SARIMAForecaster) Forecast(history []float64, horizon int) (Forecast, error) {
	m := sarima.New(f.Order[0], f.Order[1], f.Order[2],
		f.SeasonalOrder[0], f.SeasonalOrder[1], f.SeasonalOrder[2], f.Period)
	m.MaxIterations = f.MaxIterations

	values, err := m.Forecast(history, horizon)
	if err != nil {
		return Forecast{}, fmt.Errorf("%w: %w", models.ErrModelFit, err)
	}

	return Forecast{
		Values: values,
		Model: &models.ModelSummary{
			Order:         f.Order,
			SeasonalOrder: [4]int{f.SeasonalOrder[0], f.SeasonalOrder[1], f.SeasonalOrder[2], f.Period},
			AR:            m.AR,
			MA:            m.MA,
			SAR:           m.SAR,
			SMA:           m.SMA,
			Sigma2:        m.Sigma2,
			LogLikelihood: m.LogLikelihood,
			AIC:           m.AIC,
			AICc:          m.AICc,
			BIC:           m.BIC,
		},
	}, nil
}
