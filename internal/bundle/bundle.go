// Package bundle resolves the fixed file layout of a Keyboard Maestro action
// bundle: a directory holding the plist manifest, the action icon, and the
// script file the manifest references.
package bundle

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// ManifestName is the fixed filename of the action's plist manifest.
	ManifestName = "Keyboard Maestro Action.plist"

	// IconName is the fixed filename of the action's icon.
	IconName = "Icon.png"
)

// Location holds the resolved paths of an action bundle. It is computed once
// and threaded through the validation stages unchanged; all paths are children
// of Dir.
type Location struct {
	Dir      string // absolute path of the bundle directory
	Manifest string // Dir + ManifestName
	Icon     string // Dir + IconName
}

// Locate derives the bundle Location for the given directory. It is pure path
// computation; existence of the files is checked later by the pipeline.
func Locate(dir string) (Location, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Location{}, fmt.Errorf("failed to resolve bundle directory %s: %w", dir, err)
	}
	return Location{
		Dir:      abs,
		Manifest: filepath.Join(abs, ManifestName),
		Icon:     filepath.Join(abs, IconName),
	}, nil
}

// Name returns the bundle directory's base name.
func (l Location) Name() string {
	return filepath.Base(l.Dir)
}

// ArchiveName returns the distribution archive filename: the bundle name with
// all spaces removed, suffixed ".zip".
func (l Location) ArchiveName() string {
	return strings.ReplaceAll(l.Name(), " ", "") + ".zip"
}

// namePartRegex is what Keyboard Maestro accepts for a script's base name and
// extension when loading a plugin action: ASCII letters, digits and underscore.
var namePartRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SplitScriptName splits a script filename at its last dot into base name and
// extension. A name without a dot yields an empty extension.
func SplitScriptName(name string) (base, ext string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// ValidNamePart reports whether a script filename segment (base or extension)
// is acceptable to Keyboard Maestro's plugin loader.
func ValidNamePart(s string) bool {
	return namePartRegex.MatchString(s)
}
