package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiscoverDatabase looks for .railyard/*.db in the current directory only.
// Returns the absolute path to the database file, or an error if not found.
//
// Only the current directory is checked, never the parents: when one
// planned project is nested inside another, walking up would silently
// plan against the outer project's database.
//
// RAILYARD_DB_PATH takes precedence when set, so tests and scripts can
// point at their own database without a project directory.
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("RAILYARD_DB_PATH"); dbPath != "" {
		// Allow special values like ":memory:" or explicit paths
		return dbPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return discoverDatabaseInDir(dir)
}

// discoverDatabaseInDir checks for .railyard/*.db in the specified
// directory only, without walking up the tree.
func discoverDatabaseInDir(dir string) (string, error) {
	railyardDir := filepath.Join(dir, ".railyard")

	if info, err := os.Stat(railyardDir); err == nil && info.IsDir() {
		entries, err := os.ReadDir(railyardDir)
		if err == nil {
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".db") {
					dbPath := filepath.Join(railyardDir, entry.Name())
					absPath, err := filepath.Abs(dbPath)
					if err != nil {
						return "", fmt.Errorf("failed to get absolute path: %w", err)
					}
					return absPath, nil
				}
			}
		}
	}

	return "", fmt.Errorf(
		"no .railyard/*.db found in %s\n"+
			"  Run 'railyard init' to initialize a project in this directory\n"+
			"  Or set RAILYARD_DB_PATH to use a database elsewhere",
		dir)
}

// GetProjectRoot returns the project root directory for a given database
// path. The project root is the directory containing the .railyard/
// directory.
//
// Example:
//
//	dbPath: /home/user/myproject/.railyard/railyard.db
//	returns: /home/user/myproject
func GetProjectRoot(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dbDir := filepath.Dir(absPath)

	if filepath.Base(dbDir) != ".railyard" {
		return "", fmt.Errorf(
			"database must be in a .railyard/ directory, got: %s",
			dbPath)
	}

	return filepath.Dir(dbDir), nil
}

// InitProject creates a new .railyard directory for the project.
// Returns the path the database will live at; the file itself is created
// on first connection.
func InitProject(projectDir string) (string, error) {
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return "", fmt.Errorf("project directory does not exist: %s", projectDir)
	}

	railyardDir := filepath.Join(projectDir, ".railyard")
	if err := os.MkdirAll(railyardDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create .railyard directory: %w", err)
	}

	dbPath := filepath.Join(railyardDir, "railyard.db")

	if _, err := os.Stat(dbPath); err == nil {
		return "", fmt.Errorf("database already exists: %s", dbPath)
	}

	return dbPath, nil
}
