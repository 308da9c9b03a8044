// Package pipeline runs the ordered validation and packaging stages over an
// action bundle. Stages run in a fixed order, each gating the next; the first
// failure aborts the run with a typed Error.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"kmpkg/internal/archive"
	"kmpkg/internal/bundle"
	"kmpkg/internal/config"
	"kmpkg/internal/image"
	"kmpkg/internal/logger"
	"kmpkg/internal/plist"
)

// scriptKey is the manifest entry naming the action's script file.
const scriptKey = "Script"

// Pipeline validates an action bundle and packages it for distribution. The
// zero value is not usable; construct with New or fill every field.
type Pipeline struct {
	Loc      bundle.Location
	Plist    plist.Tool
	Image    image.Tool
	Archiver archive.Archiver

	// GOOS is the platform checked by the platform gate. Empty means
	// runtime.GOOS; tests set it explicitly.
	GOOS string

	// OutDir is where the archive is written. Empty means the bundle's
	// parent directory.
	OutDir string

	// Excludes are zip glob patterns skipped during packaging.
	Excludes []string

	// Strict makes a missing optional tool a failure instead of a skipped
	// check with a warning.
	Strict bool

	icon *image.Info // cached inspection result shared by the icon stages
}

// New builds a Pipeline over the given bundle using the native macOS tools
// and the loaded configuration.
func New(loc bundle.Location, cfg *config.Config) *Pipeline {
	return &Pipeline{
		Loc:      loc,
		Plist:    plist.Plutil{},
		Image:    image.Sips{},
		Archiver: archive.ZipCmd{},
		OutDir:   cfg.OutputDir,
		Excludes: cfg.Exclude,
		Strict:   cfg.Strict,
	}
}

// Run validates the bundle and, if every check passes, creates the
// distribution archive. It returns the archive path.
func (p *Pipeline) Run() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p.createArchive()
}

// Validate runs every validation stage without archiving.
func (p *Pipeline) Validate() error {
	logger.Info("[INFO] Validating bundle %s\n", p.Loc.Name())

	checks := []func() error{
		p.checkPlatform,
		p.checkArtifacts,
		p.checkManifestFormat,
		p.lintManifest,
		p.checkIconFormat,
		p.checkIconDimensions,
		p.checkScriptReference,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// checkPlatform gates the run on macOS, where the native inspection tools
// live.
func (p *Pipeline) checkPlatform() error {
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "darwin" {
		return failf(KindUnsupportedPlatform, "kmpkg requires macOS, running on %s", goos)
	}
	return nil
}

// checkArtifacts verifies the manifest and icon exist in the bundle.
func (p *Pipeline) checkArtifacts() error {
	for _, artifact := range []struct{ name, path string }{
		{bundle.ManifestName, p.Loc.Manifest},
		{bundle.IconName, p.Loc.Icon},
	} {
		if _, err := os.Stat(artifact.path); err != nil {
			return failf(KindMissingArtifact, "%s not found in %s", artifact.name, p.Loc.Dir)
		}
		logger.Debug("[DEBUG] Found %s\n", artifact.path)
	}
	return nil
}

// checkManifestFormat detects the manifest encoding and converts binary
// plists to XML in place. Already-text manifests pass through untouched, so
// re-running over a converted bundle is a no-op.
func (p *Pipeline) checkManifestFormat() error {
	format, err := p.Plist.DetectFormat(p.Loc.Manifest)
	if err != nil {
		return &Error{Kind: KindConversionFailed, Detail: "failed to inspect manifest encoding", Err: err}
	}
	logger.Debug("[DEBUG] Manifest format: %s\n", format)

	if format != plist.FormatBinary {
		return nil
	}

	logger.Info("[INFO] Manifest is a binary plist. Converting to XML...\n")
	if !p.Plist.Available() {
		return failf(KindConversionFailed, "manifest is binary but plutil is not available to convert it")
	}
	if err := p.Plist.ConvertToXML(p.Loc.Manifest); err != nil {
		return &Error{Kind: KindConversionFailed, Err: err}
	}
	logger.Info("[INFO] Converted %s to XML\n", bundle.ManifestName)
	return nil
}

// lintManifest runs the plist structural lint. The lint is non-essential:
// without plutil it is skipped with a warning unless Strict is set.
func (p *Pipeline) lintManifest() error {
	if !p.Plist.Available() {
		if p.Strict {
			return fmt.Errorf("plutil not found and strict mode is set; cannot lint %s", bundle.ManifestName)
		}
		logger.Warn("[WARN] plutil not found. Skipping manifest lint.\n")
		return nil
	}
	if err := p.Plist.Lint(p.Loc.Manifest); err != nil {
		return &Error{Kind: KindManifestSyntax, Err: err}
	}
	logger.Info("[INFO] Manifest lint passed\n")
	return nil
}

// iconInfo inspects the icon once per run, caching the result across the
// format and dimension stages.
func (p *Pipeline) iconInfo() (image.Info, error) {
	if p.icon != nil {
		return *p.icon, nil
	}
	if !p.Image.Available() {
		return image.Info{}, fmt.Errorf("sips not found; image inspection is required to validate %s", bundle.IconName)
	}
	info, err := p.Image.Info(p.Loc.Icon)
	if err != nil {
		return image.Info{}, fmt.Errorf("failed to inspect icon: %w", err)
	}
	p.icon = &info
	return info, nil
}

// checkIconFormat requires the icon's declared format to be PNG.
func (p *Pipeline) checkIconFormat() error {
	info, err := p.iconInfo()
	if err != nil {
		return err
	}
	if !strings.EqualFold(info.Format, "png") {
		return failf(KindInvalidIconFormat, "%s is %s, must be PNG", bundle.IconName, info.Format)
	}
	logger.Info("[INFO] Icon format is PNG\n")
	return nil
}

// checkIconDimensions requires the icon to be exactly 64x64 pixels.
func (p *Pipeline) checkIconDimensions() error {
	info, err := p.iconInfo()
	if err != nil {
		return err
	}
	if info.Width != 64 || info.Height != 64 {
		return failf(KindInvalidIconDimensions, "%s is %dx%d, must be exactly 64x64", bundle.IconName, info.Width, info.Height)
	}
	logger.Info("[INFO] Icon dimensions are 64x64\n")
	return nil
}

// checkScriptReference cross-checks the manifest's Script entry against the
// bundle contents and Keyboard Maestro's filename rules. The check is
// non-essential: without plutil it is skipped with a warning unless Strict is
// set.
func (p *Pipeline) checkScriptReference() error {
	if !p.Plist.Available() {
		if p.Strict {
			return fmt.Errorf("plutil not found and strict mode is set; cannot verify the %s entry", scriptKey)
		}
		logger.Warn("[WARN] plutil not found. Skipping script reference check.\n")
		return nil
	}

	name, err := p.Plist.Value(p.Loc.Manifest, scriptKey)
	if err != nil {
		return fmt.Errorf("failed to read %s entry from manifest: %w", scriptKey, err)
	}
	if name == "" {
		return failf(KindMissingScriptKey, "manifest has no %s entry", scriptKey)
	}
	logger.Debug("[DEBUG] Manifest references script %q\n", name)

	if _, err := os.Stat(filepath.Join(p.Loc.Dir, name)); err != nil {
		return failf(KindScriptFileMissing, "manifest references %q but the file is not in the bundle", name)
	}

	base, ext := bundle.SplitScriptName(name)
	if !bundle.ValidNamePart(base) {
		return failf(KindInvalidFilename, "script base name %q may only contain letters, digits and underscores", base)
	}
	if !bundle.ValidNamePart(ext) {
		return failf(KindInvalidExtension, "script extension %q may only contain letters, digits and underscores", ext)
	}
	logger.Info("[INFO] Script reference %q is valid\n", name)
	return nil
}

// createArchive packages the validated bundle into its distribution ZIP.
func (p *Pipeline) createArchive() (string, error) {
	if !p.Archiver.Available() {
		return "", failf(KindArchive, "zip not found in PATH")
	}

	outDir := p.OutDir
	if outDir == "" {
		outDir = filepath.Dir(p.Loc.Dir)
	}
	outPath := filepath.Join(outDir, p.Loc.ArchiveName())

	logger.Info("[INFO] Packaging %s into %s\n", p.Loc.Name(), outPath)
	if err := p.Archiver.Create(p.Loc.Dir, outPath, p.Excludes); err != nil {
		return "", &Error{Kind: KindArchive, Err: err}
	}
	return outPath, nil
}
