// Package image wraps the native macOS image inspection tool (sips) behind a
// small interface; pixel data is never decoded in-process.
package image

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"kmpkg/internal/logger"
)

// Info is the inspected format and pixel dimensions of an image file.
type Info struct {
	Format string
	Width  int
	Height int
}

// Tool inspects image files. Unlike the plist tooling, image inspection is
// essential: the pipeline fails hard when no Tool is available.
type Tool interface {
	Available() bool
	Info(path string) (Info, error)
}

// Sips is the sips(1)-backed implementation of Tool.
type Sips struct{}

// Available checks for sips in PATH.
func (Sips) Available() bool {
	_, err := exec.LookPath("sips")
	return err == nil
}

// Info queries format and pixel dimensions in one sips invocation.
func (Sips) Info(path string) (Info, error) {
	cmd := exec.Command("sips", "-g", "format", "-g", "pixelWidth", "-g", "pixelHeight", path)
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Info{}, fmt.Errorf("sips failed for %s: %v: %s", path, err, bytes.TrimSpace(output))
	}
	return parseProperties(output)
}

// parseProperties reads the "  key: value" property lines sips prints after
// the file path header line.
func parseProperties(output []byte) (Info, error) {
	var info Info
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "format":
			info.Format = value
		case "pixelWidth":
			if info.Width, ok = atoi(value); !ok {
				return Info{}, fmt.Errorf("unexpected pixelWidth %q in sips output", value)
			}
		case "pixelHeight":
			if info.Height, ok = atoi(value); !ok {
				return Info{}, fmt.Errorf("unexpected pixelHeight %q in sips output", value)
			}
		}
	}
	if info.Format == "" || info.Width == 0 || info.Height == 0 {
		return Info{}, fmt.Errorf("incomplete sips output: %q", string(output))
	}
	return info, nil
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
