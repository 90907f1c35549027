package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/vitalsmon/internal/report"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

// reportJSON is the JSON output structure for the report command.
type reportJSON struct {
	Version     string                 `json:"version"`
	Since       string                 `json:"since"`
	Metrics     []report.MetricSummary `json:"metrics"`
	TotalEvents int64                  `json:"total_events"`
	OldestEvent string                 `json:"oldest_event,omitempty"`
	NewestEvent string                 `json:"newest_event,omitempty"`
	TopURLs     []urlCountJSON         `json:"top_urls"`
}

type urlCountJSON struct {
	URL   string `json:"url"`
	Count int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
	store, db, _, err := openStore(c.globals)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, time.Now())
}

// executeWithStore runs the report against a provided store (for testing).
func (c *ReportCommand) executeWithStore(store storage.Store, now time.Time) error {
	ctx := context.Background()

	raw, err := c.rawFilter(now)
	if err != nil {
		return err
	}
	f, err := storage.ParseFilter(raw, now)
	if err != nil {
		return err
	}

	summary, err := report.NewEngine(store).Summary(ctx, f)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(summary, stats)
	}
	return c.printHuman(summary, stats)
}

func (c *ReportCommand) printHuman(summary []report.MetricSummary, stats *storage.Stats) error {
	title := fmt.Sprintf("Core Web Vitals (since %s)", c.Since)
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))
	fmt.Printf("%-6s %14s %14s %8s  %s\n", "METRIC", "AVERAGE", "P75", "COUNT", "RATING")

	for _, s := range summary {
		avg, p75 := "-", "-"
		if s.Count > 0 {
			avg = formatValue(s.Average, s.Unit)
			p75 = formatValue(s.P75, s.Unit)
		}
		fmt.Printf("%-6s %14s %14s %8s  %s\n", s.Metric, avg, p75, formatNumber(s.Count), s.Rating)
	}

	fmt.Println()
	fmt.Printf("Stored:        %s measurements\n", formatNumber(stats.TotalEvents))
	if stats.TotalEvents > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestEvent.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestEvent.Local().Format("2006-01-02"))
	}

	if len(stats.TopURLs) > 0 {
		fmt.Println()
		fmt.Println("Top Pages:")
		for _, u := range stats.TopURLs {
			fmt.Printf("  %-40s %s\n", u.URL, formatNumber(u.Count))
		}
	}

	return nil
}

func (c *ReportCommand) printJSON(summary []report.MetricSummary, stats *storage.Stats) error {
	out := reportJSON{
		Version:     c.version,
		Since:       c.Since,
		Metrics:     summary,
		TotalEvents: stats.TotalEvents,
		TopURLs:     make([]urlCountJSON, len(stats.TopURLs)),
	}

	if stats.TotalEvents > 0 {
		out.OldestEvent = stats.OldestEvent.UTC().Format(time.RFC3339)
		out.NewestEvent = stats.NewestEvent.UTC().Format(time.RFC3339)
	}

	for i, u := range stats.TopURLs {
		out.TopURLs[i] = urlCountJSON{URL: u.URL, Count: u.Count}
	}

	return printJSON(out)
}
