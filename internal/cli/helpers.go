package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/runnerr0/vitalsmon/internal/config"
	"github.com/runnerr0/vitalsmon/internal/logging"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

// loadConfig loads the config named by --config, or the default one,
// creating it with defaults on first run.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		path, err := config.ExpandPath(globals.Config)
		if err != nil {
			return nil, err
		}
		return config.LoadOrCreateAt(path)
	}
	return config.LoadOrCreate()
}

// openDB opens the configured SQLite database, creating its directory.
func openDB(cfg *config.Config) (*sql.DB, string, error) {
	dbPath, err := cfg.Storage.DBPath()
	if err != nil {
		return nil, "", fmt.Errorf("resolve db path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, "", fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	return db, dbPath, nil
}

// openStore opens the configured database, runs migrations, and returns a
// ready-to-use store and the underlying *sql.DB.
func openStore(globals *GlobalFlags) (*storage.SQLiteStore, *sql.DB, *config.Config, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, _, err := openDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("init store: %w", err)
	}

	return store, db, cfg, nil
}

// newLogger builds the process logger from config and global flags.
func newLogger(cfg *config.Config, globals *GlobalFlags) (*zap.Logger, error) {
	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	verbose := globals != nil && globals.Verbose
	return logging.New(cfg.Logging, logging.Options{FilePath: logPath, Verbose: verbose})
}

// rawFilter turns filter flags into a RawFilter relative to now.
func (f FilterFlags) rawFilter(now time.Time) (storage.RawFilter, error) {
	raw := storage.RawFilter{
		Metrics:     f.Metric,
		URL:         f.URL,
		URLContains: f.URLContains,
	}
	if f.Since != "" {
		d, err := parseDuration(f.Since)
		if err != nil {
			return raw, fmt.Errorf("invalid --since value %q: %w", f.Since, err)
		}
		raw.DateStart = now.Add(-d).UTC().Format(time.RFC3339)
	}
	if f.Until != "" {
		d, err := parseDuration(f.Until)
		if err != nil {
			return raw, fmt.Errorf("invalid --until value %q: %w", f.Until, err)
		}
		raw.DateEnd = now.Add(-d).UTC().Format(time.RFC3339)
	}
	return raw, nil
}

// parseDuration parses a human-friendly duration string like "28d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// formatValue prints a metric value in its unit.
func formatValue(v float64, unit string) string {
	if unit == "" {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strconv.FormatFloat(v, 'f', 0, 64) + " " + unit
}
