package cli

import (
	"database/sql"
	"io"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// FilterFlags are the query filter options shared by read commands.
type FilterFlags struct {
	Since       string   `long:"since" description:"Only measurements newer than duration (e.g., 7d, 24h, 2w)" default:"28d"`
	Until       string   `long:"until" description:"Only measurements older than duration"`
	Metric      []string `long:"metric" description:"Metric name, repeatable or comma separated (default: all)"`
	URL         string   `long:"url" description:"Only this page (normalized before matching)"`
	URLContains string   `long:"url-contains" description:"Only pages whose URL contains this text"`
}

// ServeCommand runs the HTTP collector and query API.
type ServeCommand struct {
	Host string `long:"host" description:"Override listen host"`
	Port int    `long:"port" description:"Override listen port"`

	globals *GlobalFlags
	version string
}

// InstallCommand creates the measurement table.
type InstallCommand struct {
	globals *GlobalFlags
	version string
	db      *sql.DB // injectable for testing; nil means open configured DB
}

// UninstallCommand drops the measurement table after confirmation.
type UninstallCommand struct {
	All   bool `long:"all" description:"Required flag to confirm uninstall intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB   // injectable for testing; nil means open configured DB
	stdin   io.Reader // nil means os.Stdin
}

// AddCommand records one measurement through the ingestion validator.
type AddCommand struct {
	Metric          string  `long:"metric" description:"Metric name: CLS, FCP, FID, INP, LCP or TTFB (required)"`
	Value           string  `long:"value" description:"Measured value, ms for timings (required)"`
	URL             string  `long:"url" description:"Page URL (required)"`
	ConnectionSpeed float64 `long:"connection-speed" description:"Downlink estimate in Mbit/s, -1 if unknown" default:"-1"`

	globals *GlobalFlags
	version string
}

// ListCommand lists raw measurements.
type ListCommand struct {
	FilterFlags

	Count   string `long:"count" description:"Maximum rows, 1-500" default:"250"`
	OrderBy string `long:"orderby" description:"Sort column" default:"score_id"`
	Order   string `long:"order" description:"ASC or DESC" default:"ASC"`

	globals *GlobalFlags
	version string
}

// ReportCommand prints per-metric summaries and table statistics.
type ReportCommand struct {
	FilterFlags

	globals *GlobalFlags
	version string
}

// PlotCommand prints an ASCII histogram of one metric.
type PlotCommand struct {
	FilterFlags

	Width int `long:"width" description:"Width of the longest bar" default:"40"`

	globals *GlobalFlags
	version string
}
