package config

import (
	"os"
	"path/filepath"
)

// Paths contains the on-disk layout of the trapdoor home directory.
type Paths struct {
	Home      string // ~/.trapdoor
	TokenFile string // bearer secret, owner-only
	AuditDB   string // request audit trail (SQLite)
}

// GetPaths returns the trapdoor home layout for the invoking user.
func GetPaths() Paths {
	home := TrapdoorHome()
	return Paths{
		Home:      home,
		TokenFile: filepath.Join(home, "token"),
		AuditDB:   filepath.Join(home, "audit.db"),
	}
}

// TrapdoorHome returns the trapdoor home directory (~/.trapdoor).
func TrapdoorHome() string {
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".trapdoor")
}

// ExpandPath expands ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == os.PathSeparator {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// EnsureDirs creates the trapdoor home directory if it does not exist.
// The directory holds the token, so it is owner-only.
func EnsureDirs() (Paths, error) {
	paths := GetPaths()
	if err := os.MkdirAll(paths.Home, 0o700); err != nil {
		return paths, err
	}
	return paths, nil
}
