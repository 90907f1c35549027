package storage

import "database/sql"

// migrateV001 creates the measurement table and its indexes. Every
// statement uses IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vital_scores (
			score_id         INTEGER PRIMARY KEY AUTOINCREMENT,
			metric           TEXT NOT NULL CHECK (metric IN ('CLS', 'FCP', 'FID', 'INP', 'LCP', 'TTFB')),
			value            REAL NOT NULL CHECK (value >= 0),
			url              TEXT NOT NULL,
			connection_speed REAL NOT NULL,
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_vital_scores_created_at ON vital_scores(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_vital_scores_metric_ts  ON vital_scores(metric, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_vital_scores_url_metric ON vital_scores(url, metric)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
