// Package config loads the optional .kmpkg.yaml configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"kmpkg/internal/logger"
)

// DefaultFile is the configuration filename looked up in the working
// directory when --config is not given.
const DefaultFile = ".kmpkg.yaml"

// dsStorePattern is always excluded from archives regardless of config.
const dsStorePattern = "*.DS_Store"

// Config holds the tool's settings. Every field is optional; zero values are
// replaced by defaults.
type Config struct {
	// OutputDir is where `package` writes the archive. Empty means the
	// bundle's parent directory.
	OutputDir string `yaml:"output_dir"`

	// Exclude lists zip glob patterns skipped during packaging. The
	// *.DS_Store pattern is always present.
	Exclude []string `yaml:"exclude"`

	// Strict turns soft-skipped checks (missing optional tooling) into
	// hard failures.
	Strict bool `yaml:"strict"`

	// ActionsDir is where `install` places bundles. Empty means the
	// Keyboard Maestro actions directory under the user's Library.
	ActionsDir string `yaml:"actions_dir"`

	// StateFile tracks installed bundles. Empty means ~/.kmpkg/state.json.
	StateFile string `yaml:"state_file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		// Without a home directory the install paths degrade to relative
		// ones; packaging is unaffected.
		logger.Debug("[DEBUG] Failed to resolve home directory: %v\n", err)
	}
	return &Config{
		Exclude:    []string{dsStorePattern},
		ActionsDir: filepath.Join(home, "Library", "Application Support", "Keyboard Maestro", "Keyboard Maestro Actions"),
		StateFile:  filepath.Join(home, ".kmpkg", "state.json"),
	}
}

// Load reads the YAML config at path, filling unset fields with defaults. A
// missing file yields the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("[DEBUG] No config file at %s, using defaults\n", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if file.OutputDir != "" {
		cfg.OutputDir = file.OutputDir
	}
	if file.ActionsDir != "" {
		cfg.ActionsDir = file.ActionsDir
	}
	if file.StateFile != "" {
		cfg.StateFile = file.StateFile
	}
	cfg.Strict = file.Strict
	for _, pattern := range file.Exclude {
		if !slices.Contains(cfg.Exclude, pattern) {
			cfg.Exclude = append(cfg.Exclude, pattern)
		}
	}

	logger.Debug("[DEBUG] Loaded config from %s: %+v\n", path, cfg)
	return cfg, nil
}
