package database

import (
	"fmt"
	"os"
	"path/filepath"

	"journal-go/internal/config"
	"journal-go/internal/journal"
)

// NewDatabaseFromConfig creates a Database implementation based on the database config type.
// The sqlite file is named after the installation ID.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, installID string) (journal.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		db, err := NewSQLiteDatabase(filepath.Join(cfg.DataDir, installID+".db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	case "memory":
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
