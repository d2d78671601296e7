package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.AddEvents(120)
	m.AddEvents(30)
	m.SetCategoriesRanked(5)
	m.IncForecastFailures()

	assert.Equal(t, 150.0, testutil.ToFloat64(m.eventsGenerated))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.categoriesRanked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forecastFailures))
}

func TestObserveStage(t *testing.T) {
	m := New()
	m.ObserveStage(StageGenerate, time.Now().Add(-10*time.Millisecond))
	m.ObserveStage(StageForecast, time.Now())

	assert.Equal(t, 2, testutil.CollectAndCount(m.stageDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.AddEvents(1)
	m.ObserveStage(StageMerge, time.Now())
	m.SetCategoriesRanked(1)
	m.IncForecastFailures()
	m.MarkRun(time.Now())
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.AddEvents(7)
	m.MarkRun(time.Unix(1753920000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "attackcast.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, "attackcast_events_generated_total 7"), out)
	assert.Contains(t, out, "attackcast_last_run_timestamp_seconds")
}
