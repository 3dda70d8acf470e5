package storage

import (
	"os"
	"testing"
)

// TestRailyardDBPathDiscovery verifies that DiscoverDatabase respects RAILYARD_DB_PATH
func TestRailyardDBPathDiscovery(t *testing.T) {
	// Save and restore original env
	originalPath := os.Getenv("RAILYARD_DB_PATH")
	defer func() {
		if originalPath != "" {
			_ = os.Setenv("RAILYARD_DB_PATH", originalPath)
		} else {
			_ = os.Unsetenv("RAILYARD_DB_PATH")
		}
	}()

	_ = os.Setenv("RAILYARD_DB_PATH", ":memory:")
	path, err := DiscoverDatabase()
	if err != nil {
		t.Fatalf("DiscoverDatabase with RAILYARD_DB_PATH=:memory: failed: %v", err)
	}
	if path != ":memory:" {
		t.Errorf("Expected :memory:, got %s", path)
	}

	_ = os.Setenv("RAILYARD_DB_PATH", "/tmp/test.db")
	path, err = DiscoverDatabase()
	if err != nil {
		t.Fatalf("DiscoverDatabase with RAILYARD_DB_PATH=/tmp/test.db failed: %v", err)
	}
	if path != "/tmp/test.db" {
		t.Errorf("Expected /tmp/test.db, got %s", path)
	}
}

// TestRailyardDBPathDefaultConfig verifies that DefaultConfig respects RAILYARD_DB_PATH
func TestRailyardDBPathDefaultConfig(t *testing.T) {
	originalPath := os.Getenv("RAILYARD_DB_PATH")
	defer func() {
		if originalPath != "" {
			_ = os.Setenv("RAILYARD_DB_PATH", originalPath)
		} else {
			_ = os.Unsetenv("RAILYARD_DB_PATH")
		}
	}()

	_ = os.Setenv("RAILYARD_DB_PATH", ":memory:")
	cfg := DefaultConfig()
	if cfg.Path != ":memory:" {
		t.Errorf("DefaultConfig with RAILYARD_DB_PATH=:memory: returned %s", cfg.Path)
	}

	_ = os.Unsetenv("RAILYARD_DB_PATH")
	cfg = DefaultConfig()
	if cfg.Path != ".railyard/railyard.db" {
		t.Errorf("DefaultConfig without RAILYARD_DB_PATH returned %s, expected .railyard/railyard.db", cfg.Path)
	}
}
