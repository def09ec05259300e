package database

import (
	"fmt"

	"booru-go/internal/config"
)

// NewDatabaseFromConfig opens the backend described by the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, logger Logger) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		return NewSQLiteDatabase(cfg.Path, cfg.Create, logger)
	case "memory":
		return NewSQLiteDatabase(MemoryPath, true, logger)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
