// Package installer places packaged action bundles into the Keyboard Maestro
// actions directory and removes them again, tracking both in the state file.
package installer

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"kmpkg/internal/config"
	"kmpkg/internal/extract"
	"kmpkg/internal/logger"
	"kmpkg/internal/state"
)

// Install extracts the archive at source (a local path or an http(s) URL)
// into the actions directory and records the bundle in st. It returns the
// installed bundle's directory.
func Install(source string, cfg *config.Config, st *state.State) (string, error) {
	src := source
	if isURL(source) {
		u, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("invalid URL %s: %w", source, err)
		}
		tmp := filepath.Join(os.TempDir(), path.Base(u.Path))
		logger.Info("[INFO] Downloading %s...\n", source)
		if err := downloadFile(source, tmp); err != nil {
			return "", err
		}
		defer func() {
			if rerr := os.Remove(tmp); rerr != nil {
				logger.Debug("[DEBUG] Failed to remove %s: %v\n", tmp, rerr)
			}
		}()
		src = tmp
	}

	if err := os.MkdirAll(cfg.ActionsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create actions directory %s: %w", cfg.ActionsDir, err)
	}

	logger.Info("[INFO] Installing into %s\n", cfg.ActionsDir)
	installedPath, err := extract.Archive(src, cfg.ActionsDir)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", source, err)
	}
	// Never record the actions directory itself as a bundle; uninstall
	// would RemoveAll it, taking every installed bundle with it.
	if filepath.Clean(installedPath) == filepath.Clean(cfg.ActionsDir) {
		return "", fmt.Errorf("archive %s does not contain a bundle directory", source)
	}

	name := filepath.Base(installedPath)
	st.Bundles[name] = state.Bundle{
		Name:        name,
		Source:      source,
		InstallPath: installedPath,
		InstalledAt: time.Now().UTC(),
	}
	logger.Info("[INFO] Installed %s\n", name)
	return installedPath, nil
}

// Uninstall removes a bundle previously recorded by Install and drops it
// from st. Bundles not installed by kmpkg are refused.
func Uninstall(name string, st *state.State) error {
	b, ok := st.Bundles[name]
	if !ok {
		return fmt.Errorf("%s is not recorded as installed by kmpkg", name)
	}
	logger.Info("[INFO] Removing %s\n", b.InstallPath)
	if err := os.RemoveAll(b.InstallPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", b.InstallPath, err)
	}
	delete(st.Bundles, name)
	return nil
}

// isURL reports whether source is an http(s) URL rather than a local path.
func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
