package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/qcm-trainer/backend/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// Connect opens the configured backend. The default is a local SQLite
// file, which keeps a single-machine deployment dependency-free; Postgres
// is for shared installs.
func Connect(cfg config.Config) (*sql.DB, error) {
	var driver string
	switch cfg.DBDriver {
	case "sqlite":
		driver = "sqlite"
	case "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := sql.Open(driver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite serializes writers; more connections just contend.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	return db, nil
}

// Migrate applies the embedded schema migrations for the configured
// backend. Running against an up-to-date database is a no-op.
func Migrate(db *sql.DB, cfg config.Config) error {
	sub, err := fs.Sub(migrationFiles, "migrations/"+cfg.DBDriver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var driver migratedb.Driver
	switch cfg.DBDriver {
	case "sqlite":
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case "postgres":
		driver, err = migratepg.WithInstance(db, &migratepg.Config{})
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, cfg.DBDriver, driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
