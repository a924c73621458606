package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:blankimports // postgres:// driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       //nolint:blankimports // file:// source

	"github.com/jonesrussell/streetcode-ingestor/internal/config"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// DefaultMigrationsPath is resolved relative to the working directory.
const DefaultMigrationsPath = "migrations"

// Migrator applies the schema in a migrations directory.
type Migrator struct {
	m    *migrate.Migrate
	path string
	log  logger.Logger
}

// NewMigrator opens a golang-migrate instance for the database in cfg.
func NewMigrator(cfg config.DatabaseConfig, migrationsPath string, log logger.Logger) (*Migrator, error) {
	if migrationsPath == "" {
		migrationsPath = DefaultMigrationsPath
	}
	if absPath, err := filepath.Abs(migrationsPath); err == nil {
		migrationsPath = absPath
	}

	m, err := migrate.New("file://"+migrationsPath, cfg.MigrateURL())
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return &Migrator{m: m, path: migrationsPath, log: log}, nil
}

// Up applies all pending migrations.
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.log.Info("No pending migrations", logger.String("migrations_path", g.path))
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	g.log.Info("Migrations applied successfully", logger.String("migrations_path", g.path))
	return nil
}

// Down rolls back steps migrations, one when steps is not positive.
func (g *Migrator) Down(steps int) error {
	if steps <= 0 {
		steps = 1
	}

	if err := g.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			g.log.Info("No migrations to roll back", logger.String("migrations_path", g.path))
			return nil
		}
		return fmt.Errorf("rollback migrations: %w", err)
	}

	g.log.Info("Migrations rolled back successfully",
		logger.String("migrations_path", g.path),
		logger.Int("steps", steps),
	)
	return nil
}

// Version returns the applied version. A fresh database reports 0.
func (g *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = g.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, clearing a dirty state.
func (g *Migrator) Force(version int) error {
	if err := g.m.Force(version); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}

	g.log.Info("Migration version forced",
		logger.String("migrations_path", g.path),
		logger.Int("version", version),
	)
	return nil
}

// Close releases the source and database handles.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}
