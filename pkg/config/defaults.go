package config

import (
	"os"
	"path/filepath"
)

// appDir returns ~/.config/hydrotrack, or "." without a home directory.
func appDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "hydrotrack")
}

// defaultDBPath returns ~/.config/hydrotrack/hydrotrack.db.
func defaultDBPath() string {
	return filepath.Join(appDir(), "hydrotrack.db")
}

// defaultInboxDirs returns ~/.config/hydrotrack/inbox.
//
// The directory is not created here; ingest skips inboxes that do not exist.
func defaultInboxDirs() []string {
	return []string{filepath.Join(appDir(), "inbox")}
}

// DefaultPath returns the per-user configuration file path,
// ~/.config/hydrotrack/config.yaml.
func DefaultPath() string {
	return filepath.Join(appDir(), "config.yaml")
}

// LocalPath is the working-directory configuration file, searched first.
const LocalPath = "./hydrotrack.yaml"

// EnvFile is the dotenv file read from the working directory.
const EnvFile = ".env"
