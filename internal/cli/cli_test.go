package cli

import (
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Contains(t, output, "vitalsmon 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})

	assert.Equal(t, "vitalsmon 1.2.3", strings.TrimSpace(output))
}

func TestSubcommandsRecognized(t *testing.T) {
	tests := [][]string{
		{"serve", "--port", "9000"},
		{"install"},
		{"uninstall", "--all"},
		{"add", "--metric", "LCP", "--value", "1200", "--url", "https://example.com"},
		{"list", "--metric", "LCP", "--count", "10"},
		{"report"},
		{"plot", "--metric", "CLS"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			parser, _, _ := buildParser("test")
			// Parse only; a no-op handler keeps Execute from opening a database.
			parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
			_, err := parser.ParseArgs(args)
			assert.NoError(t, err)
		})
	}
}

func TestAddRequiresFlags(t *testing.T) {
	err := RunWithArgs("test", []string{"add", "--value", "1", "--url", "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--metric is required")

	err = RunWithArgs("test", []string{"add", "--metric", "LCP", "--url", "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--value is required")

	err = RunWithArgs("test", []string{"add", "--metric", "LCP", "--value", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url is required")
}

func TestPlotRequiresMetric(t *testing.T) {
	err := RunWithArgs("test", []string{"plot"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--metric is required")
}

func TestUninstallRequiresAll(t *testing.T) {
	err := RunWithArgs("test", []string{"uninstall"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uninstall requires --all flag for safety")
}

func TestFlagDefaults(t *testing.T) {
	p, _, c := buildParser("test")
	p.CommandHandler = func(goflags.Commander, []string) error { return nil }

	_, err := p.ParseArgs([]string{"list"})
	require.NoError(t, err)
	assert.Equal(t, "28d", c.List.Since)
	assert.Equal(t, "250", c.List.Count)
	assert.Equal(t, "score_id", c.List.OrderBy)
	assert.Equal(t, "ASC", c.List.Order)

	_, err = p.ParseArgs([]string{"add"})
	require.NoError(t, err)
	assert.Equal(t, float64(-1), c.Add.ConnectionSpeed)

	_, err = p.ParseArgs([]string{"plot"})
	require.NoError(t, err)
	assert.Equal(t, 40, c.Plot.Width)
}

func TestRepeatedMetricFlag(t *testing.T) {
	p, _, c := buildParser("test")
	p.CommandHandler = func(goflags.Commander, []string) error { return nil }

	_, err := p.ParseArgs([]string{"report", "--metric", "LCP", "--metric", "CLS,INP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"LCP", "CLS,INP"}, c.Report.Metric)
}

func TestGlobalFlags(t *testing.T) {
	parser, globals, _ := buildParser("test")
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }

	_, err := parser.ParseArgs([]string{"--json", "--verbose", "--config", "/tmp/v.yaml", "report"})
	require.NoError(t, err)
	assert.True(t, globals.JSON)
	assert.True(t, globals.Verbose)
	assert.Equal(t, "/tmp/v.yaml", globals.Config)
}
