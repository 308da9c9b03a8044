// Package state persists which action bundles kmpkg has installed, so
// uninstall knows what it is allowed to remove.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kmpkg/internal/logger"
)

// Bundle records one installed action bundle.
type Bundle struct {
	Name        string    `json:"name"`         // bundle directory name
	Source      string    `json:"source"`       // archive path or URL it came from
	InstallPath string    `json:"install_path"` // directory the bundle was extracted to
	InstalledAt time.Time `json:"installed_at"`
}

// State is the whole persisted install record, keyed by bundle name.
type State struct {
	Bundles map[string]Bundle `json:"bundles"`
}

// Load reads the state file at path. A missing or unreadable file yields an
// empty state so a first run needs no setup.
func Load(path string) *State {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("[DEBUG] No state at %s, starting empty: %v\n", path, err)
		return &State{Bundles: make(map[string]Bundle)}
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		logger.Warn("[WARN] State file %s is corrupt, starting empty: %v\n", path, err)
	}
	if st.Bundles == nil {
		st.Bundles = make(map[string]Bundle)
	}
	return &st
}

// Save writes the state as pretty-printed JSON, creating the parent
// directory if needed.
func Save(path string, st *State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	logger.Debug("[DEBUG] Writing state to %s\n", path)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", path, err)
	}
	return nil
}
