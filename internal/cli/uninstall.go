package cli

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/vitalsmon/internal/storage"
)

const uninstallConfirmation = "UNINSTALL"

// setDB allows tests to inject a database connection.
func (c *UninstallCommand) setDB(db *sql.DB) {
	c.db = db
}

// Execute implements the go-flags Commander interface for UninstallCommand.
func (c *UninstallCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("uninstall requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently drop ALL stored measurements.")
		fmt.Printf("  - The %s table and its indexes\n", storage.TableName)
		fmt.Println("  - The schema version history")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Printf("Type %q to confirm: ", uninstallConfirmation)

		var in io.Reader = os.Stdin
		if c.stdin != nil {
			in = c.stdin
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		if strings.TrimSpace(scanner.Text()) != uninstallConfirmation {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	// Open or use injected DB
	db := c.db
	if db == nil {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, _, err = openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	if err := storage.NewMigrationRunner(db).Drop(); err != nil {
		return fmt.Errorf("uninstall failed: %w", err)
	}

	// Output
	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"uninstalled": true,
			"message":     "measurement table dropped",
		})
	}

	fmt.Println("Dropped all measurements. Run `vitalsmon install` to start over.")
	return nil
}
