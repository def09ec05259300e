package database

import (
	"path/filepath"
	"testing"

	"booru-go/internal/config"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewDatabaseFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if got.Path() != MemoryPath {
			t.Errorf("Path() = %q, want %q", got.Path(), MemoryPath)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Type:   "sqlite",
			Path:   filepath.Join(t.TempDir(), "booru.db"),
			Create: true,
		}
		got, err := NewDatabaseFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		got.Close()
	})

	t.Run("sqlite database without create", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Type: "sqlite",
			Path: filepath.Join(t.TempDir(), "booru.db"),
		}
		got, err := NewDatabaseFromConfig(cfg, nil)
		if err == nil {
			got.Close()
			t.Error("NewDatabaseFromConfig() expected error for missing file, got nil")
		}
	})

	t.Run("sqlite database without path", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		got, err := NewDatabaseFromConfig(cfg, nil)
		if err == nil {
			got.Close()
			t.Error("NewDatabaseFromConfig() expected error for missing path, got nil")
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "unknown"}
		got, err := NewDatabaseFromConfig(cfg, nil)
		if err == nil {
			got.Close()
			t.Error("NewDatabaseFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
		}
	})
}
