// Package sarima implements Seasonal ARIMA (SARIMA) models for daily count series.
//
// A SARIMA(p,d,q)(P,D,Q)[m] model differences the series d times at lag 1 and D times
// at lag m, then models the differenced series w as
//
//	φ(B)·Φ(B^m)·w_t = θ(B)·Θ(B^m)·e_t
//
// with e_t Gaussian white noise. Coefficients are estimated by maximising the
// conditional Gaussian likelihood (pre-sample residuals set to zero), which is
// equivalent to minimising the conditional sum of squares. Each coefficient is
// searched through tanh so it stays inside (-1, 1).
//
// # Basic Usage
//
//	// SARIMA(1,1,1)(1,1,1)[7] for daily data with weekly seasonality
//	model := sarima.New(1, 1, 1, 1, 1, 1, 7)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	forecasts, _ := model.Predict(30)
package sarima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// DefaultMaxIterations bounds the optimizer's major iterations.
const DefaultMaxIterations = 5000

var (
	// ErrInvalidOrder is returned for negative orders or a seasonal period below 1.
	ErrInvalidOrder = errors.New("invalid model order")
	// ErrTooShort is returned when the series cannot support the requested terms.
	ErrTooShort = errors.New("series too short")
	// ErrDegenerate is returned for constant, all-zero or non-finite series.
	ErrDegenerate = errors.New("degenerate series")
	// ErrConvergence is returned when the likelihood optimizer fails.
	ErrConvergence = errors.New("optimizer did not converge")
	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("model not fitted")
)

// Model is a SARIMA(p,d,q)(P,D,Q)[m] model. Orders are fixed at construction;
// coefficients and diagnostics are populated by Fit.
type Model struct {
	P, D, Q    int
	SP, SD, SQ int
	Period     int

	// MaxIterations bounds the optimizer. Zero means DefaultMaxIterations.
	MaxIterations int

	AR  []float64
	MA  []float64
	SAR []float64
	SMA []float64

	Sigma2        float64
	LogLikelihood float64
	AIC           float64
	AICc          float64
	BIC           float64
	// NObs is the number of residuals the likelihood is conditioned on.
	NObs int

	series   []float64
	diffed   []float64
	resid    []float64
	arPoly   []float64
	maPoly   []float64
	diffPoly []float64
	fitted   bool
}

// New creates an unfitted SARIMA(p,d,q)(sp,sd,sq)[period] model.
func New(p, d, q, sp, sd, sq, period int) *Model {
	return &Model{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, Period: period}
}

// NumParams returns the number of estimated ARMA coefficients.
func (m *Model) NumParams() int {
	return m.P + m.Q + m.SP + m.SQ
}

func (m *Model) validateOrder() error {
	if m.P < 0 || m.D < 0 || m.Q < 0 || m.SP < 0 || m.SD < 0 || m.SQ < 0 {
		return fmt.Errorf("%w: orders must be non-negative, got (%d,%d,%d)(%d,%d,%d)",
			ErrInvalidOrder, m.P, m.D, m.Q, m.SP, m.SD, m.SQ)
	}
	if m.Period < 1 {
		return fmt.Errorf("%w: seasonal period must be at least 1, got %d", ErrInvalidOrder, m.Period)
	}
	return nil
}

// MinObservations is the shortest series Fit accepts: two seasonal periods, and
// enough residuals after differencing and AR burn-in to estimate every coefficient.
func (m *Model) MinObservations() int {
	lost := m.D + m.SD*m.Period + m.P + m.SP*m.Period
	return max(2*m.Period, lost+m.NumParams()+1)
}

// Fit estimates the model coefficients from series.
func (m *Model) Fit(series []float64) error {
	m.fitted = false
	if err := m.validateOrder(); err != nil {
		return err
	}

	n := len(series)
	if n < 2*m.Period {
		return fmt.Errorf("%w: %d observations, need at least %d (two seasonal periods)", ErrTooShort, n, 2*m.Period)
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrDegenerate, i)
		}
	}
	if floats.Max(series) == floats.Min(series) {
		return fmt.Errorf("%w: series is constant at %g", ErrDegenerate, series[0])
	}

	m.diffPoly = differencingPoly(m.D, m.SD, m.Period)
	w := applyPoly(m.diffPoly, series)
	start := m.P + m.SP*m.Period
	k := m.NumParams()
	if len(w)-start < k+1 {
		return fmt.Errorf("%w: %d observations leave %d residuals after differencing, need at least %d (series of %d or more)",
			ErrTooShort, n, len(w)-start, k+1, m.MinObservations())
	}

	m.series = append([]float64(nil), series...)
	m.diffed = w
	m.NObs = len(w) - start

	params := make([]float64, k)
	if floats.Norm(w, math.Inf(1)) > 0 && k > 0 {
		maxIter := m.MaxIterations
		if maxIter <= 0 {
			maxIter = DefaultMaxIterations
		}

		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				ssr := m.conditionalSSR(bounded(x))
				if math.IsNaN(ssr) || math.IsInf(ssr, 0) {
					return math.Inf(1)
				}
				return 0.5 * float64(m.NObs) * math.Log(ssr/float64(m.NObs))
			},
		}
		result, err := optimize.Minimize(problem, make([]float64, k), &optimize.Settings{MajorIterations: maxIter}, &optimize.NelderMead{})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConvergence, err)
		}
		if result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
			return fmt.Errorf("%w: non-finite likelihood", ErrConvergence)
		}
		if result.Status.Early() {
			return fmt.Errorf("%w: stopped with status %v after %d iterations", ErrConvergence, result.Status, result.Stats.MajorIterations)
		}
		params = bounded(result.X)
	}

	m.setParams(params)
	ssr := m.conditionalSSR(params)
	m.resid = m.residuals(m.arPoly, m.maPoly)
	m.diagnostics(ssr)
	m.fitted = true
	return nil
}

// Predict returns h-step-ahead point forecasts following the fitted series.
func (m *Model) Predict(h int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if h < 1 {
		return nil, fmt.Errorf("forecast horizon must be at least 1, got %d", h)
	}

	nw := len(m.diffed)
	w := append(append(make([]float64, 0, nw+h), m.diffed...), make([]float64, h)...)
	e := append(append(make([]float64, 0, nw+h), m.resid...), make([]float64, h)...)
	for t := nw; t < nw+h; t++ {
		var v float64
		for j := 1; j < len(m.arPoly) && t-j >= 0; j++ {
			v -= m.arPoly[j] * w[t-j]
		}
		for j := 1; j < len(m.maPoly) && t-j >= 0; j++ {
			v += m.maPoly[j] * e[t-j]
		}
		w[t] = v
	}

	// Undo differencing: y_t = w_t - sum_{j>=1} c_j y_{t-j}
	lag := len(m.diffPoly) - 1
	n := len(m.series)
	y := append(append(make([]float64, 0, n+h), m.series...), make([]float64, h)...)
	for t := n; t < n+h; t++ {
		v := w[t-lag]
		for j := 1; j <= lag; j++ {
			v -= m.diffPoly[j] * y[t-j]
		}
		y[t] = v
	}
	return y[n:], nil
}

// Forecast fits series and returns h forecasts.
func (m *Model) Forecast(series []float64, h int) ([]float64, error) {
	if err := m.Fit(series); err != nil {
		return nil, err
	}
	return m.Predict(h)
}

// Residuals returns the conditional residuals of the differenced series.
func (m *Model) Residuals() []float64 {
	return append([]float64(nil), m.resid...)
}

// setParams splits the coefficient vector [ar, ma, sar, sma] and builds the lag polynomials.
func (m *Model) setParams(params []float64) {
	i := 0
	take := func(n int) []float64 {
		out := append([]float64(nil), params[i:i+n]...)
		i += n
		return out
	}
	m.AR, m.MA, m.SAR, m.SMA = take(m.P), take(m.Q), take(m.SP), take(m.SQ)
	m.arPoly, m.maPoly = m.polys(m.AR, m.MA, m.SAR, m.SMA)
}

// polys returns φ(B)Φ(B^m) and θ(B)Θ(B^m) as coefficient slices indexed by lag.
func (m *Model) polys(ar, ma, sar, sma []float64) ([]float64, []float64) {
	arPoly := polyMul(lagPoly(ar, 1, -1), lagPoly(sar, m.Period, -1))
	maPoly := polyMul(lagPoly(ma, 1, 1), lagPoly(sma, m.Period, 1))
	return arPoly, maPoly
}

func (m *Model) conditionalSSR(params []float64) float64 {
	i := 0
	take := func(n int) []float64 {
		out := params[i : i+n]
		i += n
		return out
	}
	ar, ma, sar, sma := take(m.P), take(m.Q), take(m.SP), take(m.SQ)
	e := m.residuals(m.polys(ar, ma, sar, sma))
	return floats.Dot(e, e)
}

// residuals runs the ARMA recursion over the differenced series. Residuals before the
// first full AR lag are zero.
func (m *Model) residuals(arPoly, maPoly []float64) []float64 {
	w := m.diffed
	e := make([]float64, len(w))
	start := len(arPoly) - 1
	for t := start; t < len(w); t++ {
		v := w[t]
		for j := 1; j < len(arPoly); j++ {
			v += arPoly[j] * w[t-j]
		}
		for j := 1; j < len(maPoly) && t-j >= start; j++ {
			v -= maPoly[j] * e[t-j]
		}
		e[t] = v
	}
	return e
}

func (m *Model) diagnostics(ssr float64) {
	n := float64(m.NObs)
	m.Sigma2 = ssr / n
	if m.Sigma2 <= 0 {
		// Exactly fitted: the likelihood is unbounded, report zeros.
		m.Sigma2, m.LogLikelihood, m.AIC, m.AICc, m.BIC = 0, 0, 0, 0, 0
		return
	}
	k := float64(m.NumParams() + 1)
	m.LogLikelihood = -0.5 * n * (math.Log(2*math.Pi*m.Sigma2) + 1)
	m.AIC = -2*m.LogLikelihood + 2*k
	m.AICc = m.AIC
	if n-k-1 > 0 {
		m.AICc += 2 * k * (k + 1) / (n - k - 1)
	}
	m.BIC = -2*m.LogLikelihood + math.Log(n)*k
}

func bounded(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Tanh(v)
	}
	return out
}

// lagPoly builds 1 + sign*(c_1 B^step + c_2 B^2step + ...).
func lagPoly(coef []float64, step int, sign float64) []float64 {
	p := make([]float64, len(coef)*step+1)
	p[0] = 1
	for i, c := range coef {
		p[(i+1)*step] = sign * c
	}
	return p
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// differencingPoly returns (1-B)^d (1-B^s)^sd.
func differencingPoly(d, sd, s int) []float64 {
	p := []float64{1}
	for range d {
		p = polyMul(p, []float64{1, -1})
	}
	seasonal := make([]float64, s+1)
	seasonal[0], seasonal[s] = 1, -1
	for range sd {
		p = polyMul(p, seasonal)
	}
	return p
}

// applyPoly returns w_t = sum_j c_j y_{t+L-j} for every t with a full lag window.
func applyPoly(c, y []float64) []float64 {
	lag := len(c) - 1
	if len(y) <= lag {
		return nil
	}
	w := make([]float64, len(y)-lag)
	for t := range w {
		var v float64
		for j, cj := range c {
			v += cj * y[t+lag-j]
		}
		w[t] = v
	}
	return w
}
