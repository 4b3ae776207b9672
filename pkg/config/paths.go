package config

import (
	"os"
	"path/filepath"
)

// Dir returns the attache home directory, ~/.attache by default.
// ATTACHE_HOME overrides it, mainly for tests.
func Dir() string {
	if dir := os.Getenv("ATTACHE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".attache"
	}
	return filepath.Join(home, ".attache")
}

// DefaultPath is the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.json")
}
