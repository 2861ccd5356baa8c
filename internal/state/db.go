// ./internal/state/db.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS connectors (
			smart_code TEXT NOT NULL,
			smart_issuer TEXT NOT NULL,
			smart_precision INTEGER NOT NULL,
			balance_amount TEXT NOT NULL,
			balance_code TEXT NOT NULL,
			balance_precision INTEGER NOT NULL,
			weight TEXT NOT NULL,
			activated BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (smart_code, smart_issuer)
		);

		CREATE TABLE IF NOT EXISTS charge_policies (
			smart_code TEXT NOT NULL,
			smart_issuer TEXT NOT NULL,
			smart_precision INTEGER NOT NULL,
			rate BIGINT NOT NULL,
			flat_amount TEXT NOT NULL,
			flat_code TEXT NOT NULL,
			flat_precision INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (smart_code, smart_issuer)
		);

		CREATE TABLE IF NOT EXISTS engine_config (
			id INTEGER PRIMARY KEY DEFAULT 1,
			connected_code TEXT NOT NULL,
			connected_issuer TEXT NOT NULL,
			connected_precision INTEGER NOT NULL,
			owner TEXT NOT NULL,
			rate BIGINT NOT NULL,
			flat_amount TEXT NOT NULL,
			flat_code TEXT NOT NULL,
			flat_precision INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);
	`
	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Info().Msg("Database schema ensured")
	return nil
}

// TestDBConnection verifies the database is reachable.
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := DB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
