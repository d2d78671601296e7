// Package pipeline runs the attack forecast end to end: synthesize events from the
// category pool, count them per day, rank categories, forecast the leader and merge
// everything onto the reporting window.
//
// Every stage consumes the complete output of the previous one and hands on a new
// value; nothing is shared between stages.
package pipeline

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/metrics"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/simulate"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/trend"
)

// Defaults for Options.
const (
	DefaultHorizonDays    = 30
	DefaultSeasonalPeriod = 7
)

// Options configures a pipeline run.
type Options struct {
	Window         models.DayWindow
	Volume         simulate.VolumeRange
	TopK           int
	HorizonDays    int
	AnnotationDays []int
	// AnnotateAll labels every top-K category instead of the leader only.
	AnnotateAll bool
}

// Validate checks the options needed by Build. The volume range is checked by Run.
func (o Options) Validate() error {
	if err := o.Window.Validate(); err != nil {
		return err
	}
	if o.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1, got %d", models.ErrConfiguration, o.TopK)
	}
	if o.HorizonDays < 1 {
		return fmt.Errorf("%w: forecast horizon must be at least 1 day, got %d", models.ErrConfiguration, o.HorizonDays)
	}
	return nil
}

// Pipeline wires the stages together.
type Pipeline struct {
	opts       Options
	forecaster Forecaster
	metrics    *metrics.Metrics
	now        func() time.Time
}

// New validates opts and returns a Pipeline. m may be nil.
func New(opts Options, forecaster Forecaster, m *metrics.Metrics) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if forecaster == nil {
		return nil, fmt.Errorf("%w: forecaster is required", models.ErrConfiguration)
	}
	if opts.AnnotationDays == nil {
		opts.AnnotationDays = trend.DefaultAnnotationDays
	}
	return &Pipeline{opts: opts, forecaster: forecaster, metrics: m, now: time.Now}, nil
}

// Run generates a synthetic stream from pool using rng and builds the report from it.
// Configuration errors are returned before any event is drawn.
func (p *Pipeline) Run(pool []string, rng *rand.Rand) (*models.Report, error) {
	gen, err := simulate.New(pool, p.opts.Window, p.opts.Volume, rng)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	generated := gen.Generate()
	p.metrics.ObserveStage(metrics.StageGenerate, start)
	p.metrics.AddEvents(len(generated.Events))

	start = time.Now()
	counts := trend.Aggregate(generated.Events)
	p.metrics.ObserveStage(metrics.StageAggregate, start)
	logger.Debug("Aggregated %d events into %d (day, category) counts", len(generated.Events), len(counts))

	return p.Build(counts)
}

// Build ranks the categories of counts, forecasts the leader and merges the result.
// When only the model fit fails, Build returns the report of the remaining categories
// together with a *models.ForecastError.
func (p *Pipeline) Build(counts models.DailyCounts) (*models.Report, error) {
	start := time.Now()
	ranked, err := trend.TopCategories(counts, p.opts.TopK)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveStage(metrics.StageRank, start)
	p.metrics.SetCategoriesRanked(len(ranked))
	logger.Debug("Top %d categories: %v", len(ranked), ranked)

	start = time.Now()
	histories, err := p.reindex(counts, ranked)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveStage(metrics.StageReindex, start)

	report := &models.Report{
		ID:        uuid.NewString(),
		CreatedAt: p.now().UTC(),
		Window:    p.opts.Window,
		Ranking:   ranked,
		Leader:    ranked[0].Category,
	}

	start = time.Now()
	leader := histories[0]
	fc, fitErr := p.forecaster.Forecast(leader.Values(), p.opts.HorizonDays)
	p.metrics.ObserveStage(metrics.StageForecast, start)

	start = time.Now()
	var merged []models.Series
	if fitErr != nil {
		p.metrics.IncForecastFailures()
		if !errors.Is(fitErr, models.ErrModelFit) {
			fitErr = fmt.Errorf("%w: %w", models.ErrModelFit, fitErr)
		}
		forecastErr := &models.ForecastError{Category: leader.Category, Err: fitErr}
		report.ForecastError = forecastErr.Error()

		if merged, err = trend.Merge(histories[1:], nil, p.opts.Window); err != nil {
			return nil, err
		}
		report.Series = merged
		report.Annotations = p.annotate(merged, ranked)
		p.metrics.ObserveStage(metrics.StageMerge, start)
		return report, forecastErr
	}

	if len(fc.Values) != p.opts.HorizonDays {
		return nil, fmt.Errorf("%w: forecaster returned %d values for a %d day horizon",
			models.ErrModelFit, len(fc.Values), p.opts.HorizonDays)
	}
	forecast := trend.NewForecastSeries(leader.Category, leader.LastDay(), fc.Values)
	if merged, err = trend.Merge(histories, &forecast, p.opts.Window); err != nil {
		return nil, err
	}
	p.metrics.ObserveStage(metrics.StageMerge, start)

	report.Series = merged
	report.Model = fc.Model
	report.Annotations = p.annotate(merged, ranked)
	return report, nil
}

// reindex builds each ranked category's series in parallel. Each goroutine reads
// counts and writes only its own slot.
func (p *Pipeline) reindex(counts models.DailyCounts, ranked []models.RankedCategory) ([]models.Series, error) {
	histories := make([]models.Series, len(ranked))
	var g errgroup.Group
	for i, rc := range ranked {
		g.Go(func() error {
			histories[i] = trend.CategorySeries(counts, rc.Category, p.opts.Window)
			return histories[i].Validate()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to reindex series: %w", err)
	}
	return histories, nil
}

func (p *Pipeline) annotate(series []models.Series, ranked []models.RankedCategory) []models.Annotation {
	categories := []string{ranked[0].Category}
	if p.opts.AnnotateAll {
		categories = categories[:0]
		for _, rc := range ranked {
			categories = append(categories, rc.Category)
		}
	}
	return trend.Annotate(series, categories, p.opts.Window, p.opts.AnnotationDays)
}
