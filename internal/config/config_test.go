package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !slices.Contains(cfg.Exclude, "*.DS_Store") {
		t.Errorf("default excludes %v missing *.DS_Store", cfg.Exclude)
	}
	if cfg.Strict {
		t.Error("strict should default to false")
	}
	if cfg.ActionsDir == "" || cfg.StateFile == "" {
		t.Errorf("install paths not defaulted: %+v", cfg)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	data := `
output_dir: ./dist
strict: true
exclude:
  - "*.git*"
actions_dir: /tmp/actions
state_file: /tmp/state.json
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutputDir != "./dist" {
		t.Errorf("OutputDir = %s", cfg.OutputDir)
	}
	if !cfg.Strict {
		t.Error("Strict not set")
	}
	if cfg.ActionsDir != "/tmp/actions" || cfg.StateFile != "/tmp/state.json" {
		t.Errorf("install paths not applied: %+v", cfg)
	}
	// User patterns are added on top of the always-present DS_Store one.
	if !slices.Contains(cfg.Exclude, "*.git*") || !slices.Contains(cfg.Exclude, "*.DS_Store") {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte("exclude: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
