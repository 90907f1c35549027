package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/vitalsmon/internal/storage"
)

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	store, db, _, err := openStore(c.globals)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, time.Now())
}

// executeWithStore runs the listing against a provided store (for testing).
func (c *ListCommand) executeWithStore(store storage.Store, now time.Time) error {
	raw, err := c.rawFilter(now)
	if err != nil {
		return err
	}
	raw.Count = c.Count
	raw.OrderBy = c.OrderBy
	raw.Order = c.Order

	f, err := storage.ParseFilter(raw, now)
	if err != nil {
		return err
	}

	rows, err := store.Select(context.Background(), f)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(rows)
	}
	return c.printHuman(rows)
}

func (c *ListCommand) printHuman(rows []storage.MetricEvent) error {
	if len(rows) == 0 {
		fmt.Printf("No measurements found (since %s)\n", c.Since)
		return nil
	}

	word := "measurements"
	if len(rows) == 1 {
		word = "measurement"
	}
	fmt.Printf("Found %d %s (since %s)\n\n", len(rows), word, c.Since)

	fmt.Printf("%-8s %-6s %12s %8s  %-16s  %s\n", "ID", "METRIC", "VALUE", "SPEED", "CREATED", "URL")
	for _, e := range rows {
		speed := "?"
		if e.ConnectionSpeed != storage.UnknownConnectionSpeed {
			speed = fmt.Sprintf("%g", e.ConnectionSpeed)
		}
		fmt.Printf("%-8d %-6s %12s %8s  %-16s  %s\n",
			e.ID,
			e.Metric,
			formatValue(e.Value, e.Metric.Definition().Unit),
			speed,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.URL,
		)
	}
	return nil
}
