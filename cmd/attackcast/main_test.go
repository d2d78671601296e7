package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCleanForecastAndRuns(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw.csv")
	cleaned := filepath.Join(dir, "cleaned.csv")

	var b strings.Builder
	b.WriteString("@timestamp,src_ip,alert.category\n")
	categories := []string{"Misc Attack", "Attempted Information Leak", "Potentially Bad Traffic"}
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "2025-03-%02dT10:00:00Z,10.0.0.%d,%s\n", i%28+1, i, categories[i%len(categories)])
	}
	b.WriteString(",10.0.0.99,\n")
	require.NoError(t, os.WriteFile(raw, []byte(b.String()), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	config := fmt.Sprintf(`
simulation:
  volume_min: 200
  volume_max: 400
  seed: 99
forecast:
  top_k: 2
input:
  raw_log_path: %q
  cleaned_log_path: %q
  chunk_size: 10
output:
  series_path: %q
  report_path: %q
storage:
  db_path: %q
logging:
  level: error
`, raw, cleaned, filepath.Join(dir, "series.csv"), filepath.Join(dir, "report.json"), filepath.Join(dir, "runs.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	out, err := execute(t, "--config", configPath, "clean", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Total rows written: 30")

	out, err = execute(t, "--config", configPath, "forecast", "--no-notify")
	require.NoError(t, err)
	assert.Contains(t, out, "2 series")

	series, err := os.ReadFile(filepath.Join(dir, "series.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(series)), "\n")
	assert.Len(t, lines, 154)
	assert.True(t, strings.HasPrefix(lines[0], "date,"))

	out, err = execute(t, "--config", configPath, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-01..2025-07-31")
	assert.Contains(t, out, "ok")
}

func TestCleanDefaultsFollowEachConfig(t *testing.T) {
	dir := t.TempDir()
	run := func(name string) string {
		raw := filepath.Join(dir, name+"-raw.csv")
		cleaned := filepath.Join(dir, name+"-cleaned.csv")
		require.NoError(t, os.WriteFile(raw, []byte("@timestamp,alert.category\n2025-03-01T00:00:00Z,Misc Attack\n"), 0o644))

		configPath := filepath.Join(dir, name+".yaml")
		config := fmt.Sprintf("input:\n  raw_log_path: %q\n  cleaned_log_path: %q\nlogging:\n  level: error\n", raw, cleaned)
		require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

		out, err := execute(t, "--config", configPath, "clean", "--quiet")
		require.NoError(t, err)
		return out
	}

	run("first")
	out := run("second")
	assert.Contains(t, out, filepath.Join(dir, "second-cleaned.csv"))
	assert.FileExists(t, filepath.Join(dir, "second-cleaned.csv"))
}

func TestInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("forecast:\n  top_k: 0\n"), 0o644))

	_, err := execute(t, "--config", configPath, "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast.top_k")
}
