// Package simulate synthesizes a daily alert stream from a pool of known categories.
//
// For every day of the window a total volume is drawn uniformly from [lo, hi), then
// that many categories are sampled with replacement from the pool and placed at
// uniformly random seconds of the day. Randomness comes from an injected source so
// runs are reproducible for a given seed.
package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

const secondsPerDay = 86400

// Default per-day volume range.
const (
	DefaultVolumeMin = 20000
	DefaultVolumeMax = 100000
)

// VolumeRange is the inclusive-exclusive range [Min, Max) of daily event totals.
type VolumeRange struct {
	Min int
	Max int
}

// Validate checks that the range is non-empty and non-negative.
func (r VolumeRange) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("%w: volume range minimum %d must not be negative", models.ErrConfiguration, r.Min)
	}
	if r.Min >= r.Max {
		return fmt.Errorf("%w: volume range [%d, %d) is empty", models.ErrConfiguration, r.Min, r.Max)
	}
	return nil
}

// DayVolume is the number of events drawn for one day.
type DayVolume struct {
	Day   time.Time
	Count int
}

// Result holds the generated stream and the per-day totals it was drawn from.
type Result struct {
	Events  []models.Event
	Volumes []DayVolume
}

// Generator produces synthetic events for a window.
type Generator struct {
	pool   []string
	window models.DayWindow
	volume VolumeRange
	rng    *rand.Rand
}

// NewSource returns a seeded PCG source. Equal seeds reproduce equal streams.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New validates its inputs and returns a Generator. An empty pool, an empty window or
// an empty volume range fail with ErrConfiguration before anything is drawn.
func New(pool []string, window models.DayWindow, volume VolumeRange, rng *rand.Rand) (*Generator, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: category pool is empty", models.ErrConfiguration)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if err := volume.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", models.ErrConfiguration)
	}

	p := make([]string, len(pool))
	copy(p, pool)
	return &Generator{pool: p, window: window, volume: volume, rng: rng}, nil
}

// Generate draws the full event stream for the window. Days appear in window order;
// events within a day are in draw order, which is not chronological.
func (g *Generator) Generate() Result {
	days := g.window.Days()
	volumes := make([]DayVolume, len(days))
	total := 0
	for i, d := range days {
		n := g.volume.Min + g.rng.IntN(g.volume.Max-g.volume.Min)
		volumes[i] = DayVolume{Day: d, Count: n}
		total += n
	}

	events := make([]models.Event, 0, total)
	for _, v := range volumes {
		events = g.appendDay(events, v)
	}

	logger.Debug("Generated %d events over %d days (%s) from a pool of %d categories",
		len(events), len(days), g.window, len(g.pool))

	return Result{Events: events, Volumes: volumes}
}

// appendDay samples v.Count categories first, then v.Count intraday offsets.
func (g *Generator) appendDay(events []models.Event, v DayVolume) []models.Event {
	start := len(events)
	for range v.Count {
		events = append(events, models.Event{Category: g.pool[g.rng.IntN(len(g.pool))]})
	}
	for i := start; i < len(events); i++ {
		events[i].Timestamp = v.Day.Add(time.Duration(g.rng.IntN(secondsPerDay)) * time.Second)
	}
	return events
}
