package cli

import (
	"database/sql"
	"fmt"

	"github.com/runnerr0/vitalsmon/internal/storage"
)

// Execute implements the go-flags Commander interface for InstallCommand.
func (c *InstallCommand) Execute(args []string) error {
	db, dbPath := c.db, ":memory:"
	if db == nil {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, dbPath, err = openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	return c.executeWithDB(db, dbPath)
}

func (c *InstallCommand) executeWithDB(db *sql.DB, dbPath string) error {
	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	version, err := runner.Version()
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"installed":      true,
			"database_path":  dbPath,
			"table":          storage.TableName,
			"schema_version": version,
		})
	}

	fmt.Printf("Measurement table %q is ready in %s (schema version %d)\n", storage.TableName, dbPath, version)
	return nil
}
