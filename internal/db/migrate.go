package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/diewo77/freelance/internal/config"
	"github.com/diewo77/freelance/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Settings{},
		&models.Client{},
		&models.Invoice{},
		&models.Day{},
	}
}

// AutoMigrate creates or updates the schema from the GORM models.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "settings", "invoices", "days"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// MigrateSQL applies the embedded SQL migrations. Only postgres is supported.
func MigrateSQL(cfg config.DatabaseConfig) error {
	if cfg.IsSQLite() {
		return errors.New("sql migrations require postgres, use automigrate for sqlite")
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("sql migrations applied")
	return nil
}

// Migrate picks SQL migrations or AutoMigrate depending on configuration.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	if cfg.App.Migrations && !cfg.Database.IsSQLite() {
		return MigrateSQL(cfg.Database)
	}
	return AutoMigrate(db)
}
