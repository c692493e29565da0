// Package storage provides the per-user config directory and atomic file
// operations for the JSON documents kept in it.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ConfigDirEnv overrides the per-user config directory.
const ConfigDirEnv = "VECNA_CONFIG_DIR"

// ConfigDir returns the path to ~/.config/vecna/ (or $VECNA_CONFIG_DIR),
// creating it if needed.
func ConfigDir() (string, error) {
	dir := os.Getenv(ConfigDirEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "vecna")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// SaveJSON atomically writes data as pretty-printed JSON to path.
// It ensures the parent directory exists, writes to a temp file,
// then renames to the final path.
func SaveJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	jsonData = append(jsonData, '\n')

	return WriteFileAtomic(path, jsonData, 0o644)
}

// WriteFileAtomic writes content to path+".tmp" and renames it over path.
func WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, content, perm); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

// LoadJSON reads JSON from the specified path into dest.
// Returns os.ErrNotExist if file doesn't exist (caller should handle).
func LoadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}
