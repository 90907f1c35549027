package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/vitalsmon/internal/config"
	"github.com/runnerr0/vitalsmon/internal/ingest"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.Metric == "" {
		return fmt.Errorf("--metric is required for add command")
	}
	if c.Value == "" {
		return fmt.Errorf("--value is required for add command")
	}
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}

	store, db, cfg, err := openStore(c.globals)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, cfg.Ingest.AllowedHosts)
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(store storage.Store, allowedHosts config.HostList) error {
	value, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return fmt.Errorf("invalid --value %q: not a number", c.Value)
	}

	candidate := ingest.Candidate{
		Metric:          &c.Metric,
		Value:           &value,
		URL:             &c.URL,
		ConnectionSpeed: &c.ConnectionSpeed,
	}

	svc := ingest.NewService(store, ingest.NewValidator(allowedHosts), nil, nil)
	event, err := svc.Ingest(context.Background(), candidate)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(event)
	}

	def := event.Metric.Definition()
	fmt.Printf("Added measurement %d (%s)\n", event.ID, event.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Metric: %s (%s)\n", event.Metric, def.Label)
	fmt.Printf("  Value:  %s\n", formatValue(event.Value, def.Unit))
	fmt.Printf("  URL:    %s\n", event.URL)
	if event.ConnectionSpeed == storage.UnknownConnectionSpeed {
		fmt.Println("  Speed:  unknown")
	} else {
		fmt.Printf("  Speed:  %g Mbit/s\n", event.ConnectionSpeed)
	}

	return nil
}
