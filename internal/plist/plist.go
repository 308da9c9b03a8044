// Package plist wraps the native macOS property-list tooling (plutil) behind
// a small interface so the pipeline never parses plist data itself.
package plist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"kmpkg/internal/logger"
)

// Format classifies the on-disk encoding of a property list.
type Format int

const (
	FormatOther Format = iota // neither recognizably binary nor XML
	FormatBinary
	FormatXML
)

// String returns the format name for log and error messages.
func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatXML:
		return "xml"
	default:
		return "other"
	}
}

// Tool inspects and converts property-list files.
type Tool interface {
	// Available reports whether the underlying tool can be invoked. The
	// pipeline downgrades non-essential checks to warnings when it is not.
	Available() bool
	// DetectFormat classifies the file's encoding.
	DetectFormat(path string) (Format, error)
	// ConvertToXML rewrites the file in place as XML (plutil xml1).
	ConvertToXML(path string) error
	// Lint validates the plist structure. A failed lint returns an error
	// whose message is the validator's own diagnostic text.
	Lint(path string) error
	// Value extracts the string value at the given top-level key. A missing
	// key yields an empty string, not an error.
	Value(path, key string) (string, error)
}

// Plutil is the plutil(1)-backed implementation of Tool.
type Plutil struct{}

// Available checks for plutil in PATH.
func (Plutil) Available() bool {
	_, err := exec.LookPath("plutil")
	return err == nil
}

// binaryMagic is the fixed 8-byte header of a binary property list.
var binaryMagic = []byte("bplist00")

// DetectFormat sniffs the file header: the bplist00 magic marks a binary
// plist, an XML prolog marks XML, anything else is reported as other and left
// for the lint stage to judge.
func (Plutil) DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatOther, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 64)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return FormatOther, fmt.Errorf("failed to read %s: %w", path, err)
	}
	head = head[:n]

	if bytes.HasPrefix(head, binaryMagic) {
		return FormatBinary, nil
	}
	if bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte("<?xml")) {
		return FormatXML, nil
	}
	return FormatOther, nil
}

// ConvertToXML runs `plutil -convert xml1` on the file, rewriting it in place.
func (Plutil) ConvertToXML(path string) error {
	cmd := exec.Command("plutil", "-convert", "xml1", path)
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("plutil -convert xml1 failed: %v: %s", err, bytes.TrimSpace(output))
	}
	return nil
}

// Lint runs `plutil -lint` on the file. On failure the returned error carries
// plutil's diagnostic with the file path prefix stripped.
func (Plutil) Lint(path string) error {
	cmd := exec.Command("plutil", "-lint", path)
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	return errors.New(lintMessage(path, string(output)))
}

// lintMessage extracts the diagnostic from plutil -lint output, which reports
// failures as "<path>: <message>".
func lintMessage(path, output string) string {
	msg := strings.TrimSpace(output)
	if rest, ok := strings.CutPrefix(msg, path+": "); ok {
		return rest
	}
	return msg
}

// Value runs `plutil -extract <key> raw` and returns the trimmed result. An
// absent key is reported as an empty value; any other failure (unreadable
// file, malformed plist) is an error.
func (Plutil) Value(path, key string) (string, error) {
	cmd := exec.Command("plutil", "-extract", key, "raw", "-o", "-", path)
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && isMissingKey(exitErr.Stderr) {
			return "", nil
		}
		var stderr []byte
		if exitErr != nil {
			stderr = bytes.TrimSpace(exitErr.Stderr)
		}
		return "", fmt.Errorf("plutil -extract %s failed for %s: %v: %s", key, path, err, stderr)
	}
	return strings.TrimSpace(string(output)), nil
}

// isMissingKey recognizes plutil's -extract diagnostic for an absent key, as
// opposed to an unreadable or malformed file.
func isMissingKey(stderr []byte) bool {
	return bytes.Contains(stderr, []byte("No value at that key path"))
}
