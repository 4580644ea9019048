package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/uptrace/bun"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations for one driver
type Migrator struct {
	m *migrate.Migrate

	// The sqlite migrate driver wraps the caller's *sql.DB, so closing it
	// would close the application's pool.
	ownsConn bool
}

// NewMigrator builds a Migrator. PostgreSQL migrations run over their own
// connection opened from databaseURL; SQLite migrations reuse db.
func NewMigrator(db *bun.DB, driver, databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	switch driver {
	case DriverPostgres:
		m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrator: %w", err)
		}
		return &Migrator{m: m, ownsConn: true}, nil

	case DriverSQLite:
		instance, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite migration driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", source, DriverSQLite, instance)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrator: %w", err)
		}
		return &Migrator{m: m}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Up applies every pending migration. Being already current is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Version reports the current schema version and whether it is dirty
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the migrator's own connection, if it has one
func (m *Migrator) Close() error {
	if !m.ownsConn {
		return nil
	}
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations applies all pending migrations and releases the migrator
func RunMigrations(db *bun.DB, driver, databaseURL string) error {
	m, err := NewMigrator(db, driver, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	return m.Up()
}
