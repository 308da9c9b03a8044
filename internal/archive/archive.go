// Package archive creates the distributable ZIP of a validated bundle by
// shelling out to zip(1); compression is not reimplemented in-process.
package archive

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"kmpkg/internal/logger"
)

// Archiver packages a bundle directory into an archive at outPath.
type Archiver interface {
	Available() bool
	// Create archives srcDir recursively into outPath, skipping any entry
	// matching one of the exclude glob patterns.
	Create(srcDir, outPath string, excludes []string) error
}

// ZipCmd is the zip(1)-backed implementation of Archiver. It runs from the
// bundle's parent directory so archive entries are rooted at the bundle name.
type ZipCmd struct{}

// Available checks for zip in PATH.
func (ZipCmd) Available() bool {
	_, err := exec.LookPath("zip")
	return err == nil
}

// Create runs `zip -r -X <outPath> <dir> -x <patterns>`. The -X flag drops
// extra file attributes so repeated runs over an unchanged bundle differ only
// in entry timestamps.
func (ZipCmd) Create(srcDir, outPath string, excludes []string) error {
	absOut, err := filepath.Abs(outPath)
	if err != nil {
		return fmt.Errorf("failed to resolve archive path %s: %w", outPath, err)
	}

	cmd := exec.Command("zip", zipArgs(absOut, filepath.Base(srcDir), excludes)...)
	cmd.Dir = filepath.Dir(srcDir)
	logger.Debug("[DEBUG] Running command: %s (in %s)\n", strings.Join(cmd.Args, " "), cmd.Dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("zip failed: %v: %s", err, bytes.TrimSpace(output))
	}
	return nil
}

// zipArgs builds the zip argument list for archiving dirName into outPath.
func zipArgs(outPath, dirName string, excludes []string) []string {
	args := []string{"-r", "-X", outPath, dirName}
	for _, pattern := range excludes {
		args = append(args, "-x", pattern)
	}
	return args
}
