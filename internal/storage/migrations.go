package storage

import (
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
)

const migrationsTable = "schema_migrations"

// migration is one versioned schema step.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// MigrationRunner creates and drops the vitalsmon schema.
type MigrationRunner struct {
	db         *sql.DB
	migrations []migration
}

// NewMigrationRunner creates a MigrationRunner with all registered migrations.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db: db,
		migrations: []migration{
			{Version: 1, Name: "create_vital_scores", Apply: migrateV001},
		},
	}
}

// Run brings the schema up to date. Applied versions are skipped, so it is
// safe on every start and never touches existing rows.
func (r *MigrationRunner) Run() error {
	// WAL lets dashboard reads proceed while beacons are being written.
	if _, err := r.db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create %s table: %w", migrationsTable, err)
	}

	applied, err := r.appliedVersions()
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	for _, m := range r.migrations {
		if applied[m.Version] {
			continue
		}
		if err := r.apply(m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// Version returns the highest applied migration, or 0 on an empty ledger.
// Run must have created the ledger first.
func (r *MigrationRunner) Version() (int, error) {
	query, args, err := dialect.From(migrationsTable).
		Select(goqu.MAX("version")).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build version query: %w", err)
	}

	var v sql.NullInt64
	if err := r.db.QueryRow(query, args...).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// Drop removes the measurement table with every row, and the migration
// ledger, in one transaction. A later Run recreates an empty schema.
func (r *MigrationRunner) Drop() error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{TableName, migrationsTable} {
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (r *MigrationRunner) appliedVersions() (map[int]bool, error) {
	query, args, err := dialect.From(migrationsTable).
		Select("version").
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// apply runs m and records it in the same transaction.
func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}

	query, args, err := dialect.Insert(migrationsTable).
		Rows(goqu.Record{"version": m.Version, "name": m.Name}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build migration record: %w", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}
