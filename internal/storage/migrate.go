package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var moodMigrations embed.FS

// ErrDirtySchema means a previous migration of the mood store stopped
// halfway and needs manual repair before the store can open.
var ErrDirtySchema = errors.New("mood store schema is dirty")

// RunMigrations brings the mood store at dbPath up to the embedded schema.
// A store left dirty by an interrupted run is refused rather than retried.
func RunMigrations(dbPath string) error {
	m, err := openMoodMigrator(dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	from, dirty, err := schemaVersion(m)
	if err != nil {
		return fmt.Errorf("read mood schema version of %s: %w", dbPath, err)
	}
	if dirty {
		return fmt.Errorf("%s at version %d: %w", dbPath, from, ErrDirtySchema)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate mood store %s from version %d: %w", dbPath, from, err)
	}

	to, _, err := schemaVersion(m)
	if err != nil {
		return fmt.Errorf("read mood schema version of %s: %w", dbPath, err)
	}
	if to != from {
		slog.Info("Mood store schema migrated", "path", dbPath, "from_version", from, "to_version", to)
	}
	return nil
}

// SchemaVersion reports the applied migration of the mood store at dbPath.
// Zero means no migration has run yet.
func SchemaVersion(dbPath string) (uint, error) {
	m, err := openMoodMigrator(dbPath)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	v, dirty, err := schemaVersion(m)
	if err != nil {
		return 0, fmt.Errorf("read mood schema version of %s: %w", dbPath, err)
	}
	if dirty {
		return v, fmt.Errorf("%s at version %d: %w", dbPath, v, ErrDirtySchema)
	}
	return v, nil
}

// openMoodMigrator uses its own connection; closing the migrator closes it.
func openMoodMigrator(dbPath string) (*migrate.Migrate, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open mood store %s for migration: %w", dbPath, err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare sqlite migration driver: %w", err)
	}

	src, err := iofs.New(moodMigrations, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load embedded mood migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create mood migrator: %w", err)
	}
	return m, nil
}

func schemaVersion(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
