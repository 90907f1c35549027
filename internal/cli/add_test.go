package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/vitalsmon/internal/config"
	"github.com/runnerr0/vitalsmon/internal/ingest"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

func TestAddCommand_HumanOutput(t *testing.T) {
	store := testStore(t)
	cmd := &AddCommand{
		Metric:          "LCP",
		Value:           "1200",
		URL:             "example.com/blog?utm_source=x#top",
		ConnectionSpeed: -1,
		globals:         &GlobalFlags{},
	}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(store, nil)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Added measurement 1")
	assert.Contains(t, output, "Metric: LCP (Largest Contentful Paint)")
	assert.Contains(t, output, "Value:  1200 ms")
	assert.Contains(t, output, "URL:    https://example.com/blog/")
	assert.Contains(t, output, "Speed:  unknown")

	rows, err := store.Select(context.Background(), storage.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://example.com/blog/", rows[0].URL)
}

func TestAddCommand_JSONOutput(t *testing.T) {
	store := testStore(t)
	cmd := &AddCommand{
		Metric:          "CLS",
		Value:           " 0.05 ",
		URL:             "https://shop.test/cart/",
		ConnectionSpeed: 9.5,
		globals:         &GlobalFlags{JSON: true},
	}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(store, nil)
	})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, float64(1), got["score_id"])
	assert.Equal(t, "CLS", got["metric"])
	assert.Equal(t, 0.05, got["value"])
	assert.Equal(t, "https://shop.test/cart/", got["url"])
	assert.Equal(t, 9.5, got["connection_speed"])
	assert.NotEmpty(t, got["created_at"])
}

func TestAddCommand_InvalidValue(t *testing.T) {
	store := testStore(t)
	cmd := &AddCommand{Metric: "LCP", Value: "fast", URL: "https://example.com/", ConnectionSpeed: -1}

	err := cmd.executeWithStore(store, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestAddCommand_RejectedMeasurementStoresNothing(t *testing.T) {
	tests := []struct {
		name  string
		cmd   AddCommand
		field string
	}{
		{"unknown metric", AddCommand{Metric: "BOGUS", Value: "1", URL: "https://example.com/", ConnectionSpeed: -1}, "metric"},
		{"negative value", AddCommand{Metric: "LCP", Value: "-5", URL: "https://example.com/", ConnectionSpeed: -1}, "value"},
		{"no host", AddCommand{Metric: "LCP", Value: "5", URL: "https://", ConnectionSpeed: -1}, "url"},
		{"bad speed", AddCommand{Metric: "LCP", Value: "5", URL: "https://example.com/", ConnectionSpeed: -2}, "connection_speed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testStore(t)
			cmd := tt.cmd

			err := cmd.executeWithStore(store, nil)
			var verr *ingest.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)

			count, err := store.SelectCount(context.Background(), storage.QueryFilter{})
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestAddCommand_AllowedHosts(t *testing.T) {
	store := testStore(t)
	allowed := config.HostList{"example.com"}

	ok := &AddCommand{Metric: "TTFB", Value: "300", URL: "https://www.example.com/", ConnectionSpeed: -1}
	captureOutput(t, func() {
		require.NoError(t, ok.executeWithStore(store, allowed))
	})

	denied := &AddCommand{Metric: "TTFB", Value: "300", URL: "https://other.test/", ConnectionSpeed: -1}
	err := denied.executeWithStore(store, allowed)
	var verr *ingest.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "url", verr.Field)
}
