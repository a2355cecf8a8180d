package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies the embedded migrations for driver to the store at dsn.
// It uses its own connection, which is closed before returning, so it can run
// before or alongside the shared handle returned by Open.
func Migrate(driver, dsn string, direction Direction) error {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	switch direction {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}

// Version reports the applied schema version.
func Version(driver, dsn string) (uint, bool, error) {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_, _ = m.Close()
	}()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

func newMigrator(driver, dsn string) (*migrate.Migrate, error) {
	dir, sqlDriver, err := dialect(driver)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	if sqlDriver == DriverSQLite {
		dsn = SQLiteDSN(dsn)
	}
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}

	var instance database.Driver
	if sqlDriver == DriverSQLite {
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	} else {
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, sqlDriver, instance)
	if err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// dialect maps a runtime driver to its migration directory and the
// database/sql driver the migrator connects with.
func dialect(driver string) (string, string, error) {
	switch driver {
	case DriverSQLite:
		return "migrations/sqlite", DriverSQLite, nil
	case DriverPgx, DriverPostgres:
		return "migrations/postgres", DriverPostgres, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}
