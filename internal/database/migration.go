package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"rds-user-initializer/internal/config"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

// MigrationManager applies the versioned script set with golang-migrate.
// It takes ownership of db; Close releases both.
type MigrationManager struct {
	migrate *migrate.Migrate
	logger  *logrus.Logger
}

// MigrationInfo contains information about the applied script version
type MigrationInfo struct {
	Version   uint
	Dirty     bool
	Applied   bool
	Timestamp time.Time
}

// NewMigrationManager creates a migration manager over db using the scripts in source
func NewMigrationManager(db *sql.DB, driver string, source fs.FS, logger *logrus.Logger) (*MigrationManager, error) {
	if logger == nil {
		logger = logrus.New()
	}

	sourceDriver, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	var dbDriver migratedb.Driver
	switch driver {
	case config.DriverPostgres:
		dbDriver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	case config.DriverSQLite:
		dbDriver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driver, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &MigrationManager{
		migrate: m,
		logger:  logger,
	}, nil
}

// Up applies all pending scripts
func (m *MigrationManager) Up() error {
	m.logger.Info("Applying database scripts...")

	if err := m.recoverDirty(); err != nil {
		return err
	}

	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply scripts: %w", err)
	}

	info, err := m.Status()
	if err != nil {
		return err
	}

	m.logger.WithField("version", info.Version).Info("Database scripts applied")
	return nil
}

// Down rolls back the most recent script
func (m *MigrationManager) Down() error {
	info, err := m.Status()
	if err != nil {
		return err
	}
	if !info.Applied {
		return fmt.Errorf("no scripts to roll back")
	}

	m.logger.WithField("version", info.Version).Info("Rolling back database script")

	if err := m.migrate.Steps(-1); err != nil {
		return fmt.Errorf("failed to roll back script: %w", err)
	}

	return nil
}

// Status returns the currently applied version
func (m *MigrationManager) Status() (*MigrationInfo, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to get script version: %w", err)
	}

	return &MigrationInfo{
		Version:   version,
		Dirty:     dirty,
		Applied:   err == nil,
		Timestamp: time.Now(),
	}, nil
}

// Close releases the migration source and the database handle
func (m *MigrationManager) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close migration database: %w", dbErr)
	}
	return nil
}

// recoverDirty forces a dirty version back to clean so Up can retry it
func (m *MigrationManager) recoverDirty() error {
	info, err := m.Status()
	if err != nil {
		return err
	}
	if !info.Dirty {
		return nil
	}

	m.logger.WithField("version", info.Version).Warn("Database is in dirty state, forcing previous version")

	previous := int(info.Version) - 1
	if previous < 1 {
		previous = -1
	}
	if err := m.migrate.Force(previous); err != nil {
		return fmt.Errorf("failed to force script version: %w", err)
	}
	return nil
}
