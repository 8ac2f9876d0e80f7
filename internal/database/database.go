package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect selects the storage backend at startup: Postgres when a DSN is
// configured, otherwise an embedded in-memory SQLite database intended for
// demo deployments. Callers should seed the demo backend after migration.
func Connect(dsn string, logger zerolog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		logger.Warn().Msg("no database url configured, using in-memory demo backend")
		return connectSQLite("file::memory:?cache=shared")
	}

	return ConnectPostgres(dsn)
}

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

func connectSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded database: %w", err)
	}

	return db, nil
}
