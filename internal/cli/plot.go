package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/vitalsmon/internal/report"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

// Execute implements the go-flags Commander interface for PlotCommand.
func (c *PlotCommand) Execute(args []string) error {
	if len(c.Metric) == 0 {
		return fmt.Errorf("--metric is required for plot command")
	}

	store, db, _, err := openStore(c.globals)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, time.Now())
}

// executeWithStore plots against a provided store (for testing).
func (c *PlotCommand) executeWithStore(store storage.Store, now time.Time) error {
	raw, err := c.rawFilter(now)
	if err != nil {
		return err
	}
	f, err := storage.ParseFilter(raw, now)
	if err != nil {
		return err
	}

	buckets, err := report.NewEngine(store).Plot(context.Background(), f)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(buckets)
	}

	names := make([]string, len(f.Metrics))
	for i, m := range f.Metrics {
		names[i] = string(m)
	}
	if len(buckets) == 0 {
		fmt.Printf("No %s measurements (since %s)\n", strings.Join(names, ","), c.Since)
		return nil
	}

	fmt.Printf("%s distribution (since %s, %d-unit buckets)\n\n", strings.Join(names, ","), c.Since, storage.BucketWidth)
	for _, line := range histogramLines(buckets, c.Width) {
		fmt.Println(line)
	}
	return nil
}

// histogramLines renders one bar per bucket, scaled so the largest count
// spans width characters. Every non-empty bucket gets at least one mark.
func histogramLines(buckets []storage.Bucket, width int) []string {
	if width < 1 {
		width = 1
	}

	var maxCount int64
	labelWidth := 1
	for _, b := range buckets {
		if b.Count > maxCount {
			maxCount = b.Count
		}
		if n := len(fmt.Sprint(b.Value)); n > labelWidth {
			labelWidth = n
		}
	}

	lines := make([]string, 0, len(buckets))
	for _, b := range buckets {
		bar := int(b.Count * int64(width) / maxCount)
		if bar < 1 {
			bar = 1
		}
		lines = append(lines, fmt.Sprintf("%*d | %s %d", labelWidth, b.Value, strings.Repeat("#", bar), b.Count))
	}
	return lines
}
