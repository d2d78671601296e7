package sarima

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var weekly = []float64{0, 35, 60, 20, -15, -60, -40}

func seasonalSeries(n int, level, trend float64) []float64 {
	y := make([]float64, n)
	for t := range y {
		y[t] = level + trend*float64(t) + weekly[t%7]
	}
	return y
}

func TestDifferencingPoly(t *testing.T) {
	// (1-B)(1-B^3) = 1 - B - B^3 + B^4
	assert.Equal(t, []float64{1, -1, 0, -1, 1}, differencingPoly(1, 1, 3))
	assert.Equal(t, []float64{1}, differencingPoly(0, 0, 7))
	assert.Equal(t, []float64{1, -2, 1}, differencingPoly(2, 0, 7))
}

func TestApplyPoly(t *testing.T) {
	y := []float64{1, 4, 9, 16, 25}
	assert.Equal(t, []float64{3, 5, 7, 9}, applyPoly([]float64{1, -1}, y))
	assert.Nil(t, applyPoly([]float64{1, 0, 0, 0, 0, -1}, y))
}

func TestPolyMul(t *testing.T) {
	// (1 - 0.5B)(1 - 0.2B^2) = 1 - 0.5B - 0.2B^2 + 0.1B^3
	got := polyMul(lagPoly([]float64{0.5}, 1, -1), lagPoly([]float64{0.2}, 2, -1))
	require.Len(t, got, 4)
	assert.InDelta(t, 1, got[0], 1e-12)
	assert.InDelta(t, -0.5, got[1], 1e-12)
	assert.InDelta(t, -0.2, got[2], 1e-12)
	assert.InDelta(t, 0.1, got[3], 1e-12)
}

func TestFit_ExactSeasonalPatternContinues(t *testing.T) {
	y := seasonalSeries(60, 500, 2)
	m := New(1, 1, 1, 1, 1, 1, 7)
	require.NoError(t, m.Fit(y))

	fc, err := m.Predict(21)
	require.NoError(t, err)
	require.Len(t, fc, 21)

	want := seasonalSeries(81, 500, 2)[60:]
	for i := range fc {
		assert.InDelta(t, want[i], fc[i], 1e-6, "step %d", i+1)
	}
}

func noisySeries(n int) []float64 {
	rng := rand.New(rand.NewPCG(11, 13))
	y := seasonalSeries(n, 1000, 0)
	for i := range y {
		y[i] += rng.NormFloat64() * 20
	}
	return y
}

func TestFit_NoisySeries(t *testing.T) {
	y := noisySeries(153)

	m := New(1, 1, 1, 1, 1, 1, 7)
	require.NoError(t, m.Fit(y))

	for _, c := range [][]float64{m.AR, m.MA, m.SAR, m.SMA} {
		require.Len(t, c, 1)
		assert.Less(t, math.Abs(c[0]), 1.0)
	}
	assert.Positive(t, m.Sigma2)
	assert.Equal(t, 153-16, m.NObs)
	assert.False(t, math.IsNaN(m.AIC))
	assert.Less(t, m.AIC, m.BIC)

	fc, err := m.Predict(30)
	require.NoError(t, err)
	require.Len(t, fc, 30)
	for i, v := range fc {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "step %d", i+1)
		assert.InDelta(t, 1000, v, 400, "step %d", i+1)
	}
}

func TestFit_Degenerate(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 42
	}

	tests := []struct {
		name    string
		series  []float64
		wantErr error
	}{
		{name: "all zeros", series: make([]float64, 153), wantErr: ErrDegenerate},
		{name: "flat nonzero", series: flat, wantErr: ErrDegenerate},
		{name: "single observation", series: []float64{5}, wantErr: ErrTooShort},
		{name: "shorter than two periods", series: seasonalSeries(13, 100, 1), wantErr: ErrTooShort},
		{name: "too few residuals", series: seasonalSeries(20, 100, 1), wantErr: ErrTooShort},
		{name: "nan", series: append(seasonalSeries(40, 100, 1), math.NaN()), wantErr: ErrDegenerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(1, 1, 1, 1, 1, 1, 7)
			err := m.Fit(tt.series)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = m.Predict(5)
			assert.ErrorIs(t, err, ErrNotFitted)
		})
	}
}

func TestFit_IterationLimit(t *testing.T) {
	m := New(1, 1, 1, 1, 1, 1, 7)
	m.MaxIterations = 1
	err := m.Fit(noisySeries(153))
	require.ErrorIs(t, err, ErrConvergence)
	assert.Contains(t, err.Error(), "IterationLimit")

	_, err = m.Predict(5)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestMinObservations(t *testing.T) {
	tests := []struct {
		name  string
		model *Model
		want  int
	}{
		{name: "default orders", model: New(1, 1, 1, 1, 1, 1, 7), want: 21},
		{name: "two periods dominate", model: New(0, 0, 0, 0, 0, 0, 7), want: 14},
		{name: "non-seasonal differencing", model: New(2, 1, 0, 0, 0, 0, 1), want: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.model.MinObservations())
		})
	}

	m := New(1, 1, 1, 1, 1, 1, 7)
	err := m.Fit(seasonalSeries(20, 100, 1))
	require.ErrorIs(t, err, ErrTooShort)
	assert.Contains(t, err.Error(), "series of 21 or more")
}

func TestFit_InvalidOrder(t *testing.T) {
	assert.ErrorIs(t, New(-1, 1, 1, 1, 1, 1, 7).Fit(seasonalSeries(60, 1, 1)), ErrInvalidOrder)
	assert.ErrorIs(t, New(1, 1, 1, 1, 1, 1, 0).Fit(seasonalSeries(60, 1, 1)), ErrInvalidOrder)
}

func TestPredict_InvalidHorizon(t *testing.T) {
	m := New(1, 1, 1, 1, 1, 1, 7)
	require.NoError(t, m.Fit(seasonalSeries(60, 10, 1)))
	_, err := m.Predict(0)
	assert.Error(t, err)
}

func TestForecast_NonSeasonalRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	y := make([]float64, 200)
	for i := 1; i < len(y); i++ {
		y[i] = y[i-1] + rng.NormFloat64()
	}

	m := New(1, 1, 0, 0, 0, 0, 1)
	fc, err := m.Forecast(y, 10)
	require.NoError(t, err)
	require.Len(t, fc, 10)
	// An ARIMA(1,1,0) forecast of a random walk stays near the last observation.
	for _, v := range fc {
		assert.InDelta(t, y[len(y)-1], v, 5)
	}
}
