package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/Alijeyrad/consulto_backend/config"
)

var validDBName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// InitializeDatabases creates the application and casbin databases when
// missing. It connects to the maintenance "postgres" database to do so.
func InitializeDatabases(cfg *config.Config) error {
	names := DatabaseNames(cfg)
	if len(names) == 0 {
		return fmt.Errorf("no database names configured")
	}

	maint := FromCentralConfig(cfg.Database)
	maint.DBName = "postgres"

	conn, err := openSQLDB(maint)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	for _, name := range names {
		if err := createDatabaseIfNotExists(conn, name); err != nil {
			return fmt.Errorf("failed to create database %q: %w", name, err)
		}
	}
	return nil
}

// DatabaseNames lists the distinct non-empty database names in cfg.
func DatabaseNames(cfg *config.Config) []string {
	var out []string
	seen := map[string]bool{}
	for _, n := range []string{cfg.Database.DBName, cfg.CasbinDatabase.DBName} {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func createDatabaseIfNotExists(conn *sql.DB, name string) error {
	if !validDBName.MatchString(name) {
		return fmt.Errorf("invalid database name")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE takes no bind parameters; the name is validated above.
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}
