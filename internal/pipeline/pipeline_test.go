package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kmpkg/internal/bundle"
	"kmpkg/internal/image"
	"kmpkg/internal/pipeline"
	"kmpkg/internal/plist"
)

// fakePlist implements plist.Tool without invoking plutil.
type fakePlist struct {
	unavailable bool
	format      plist.Format
	formatErr   error
	convertErr  error
	converted   bool
	lintErr     error
	script      string
}

func (f *fakePlist) Available() bool { return !f.unavailable }

func (f *fakePlist) DetectFormat(path string) (plist.Format, error) {
	return f.format, f.formatErr
}

func (f *fakePlist) ConvertToXML(path string) error {
	if f.convertErr != nil {
		return f.convertErr
	}
	f.converted = true
	f.format = plist.FormatXML
	return nil
}

func (f *fakePlist) Lint(path string) error { return f.lintErr }

func (f *fakePlist) Value(path, key string) (string, error) { return f.script, nil }

// fakeImage implements image.Tool with canned inspection results.
type fakeImage struct {
	unavailable bool
	info        image.Info
	err         error
}

func (f *fakeImage) Available() bool { return !f.unavailable }

func (f *fakeImage) Info(path string) (image.Info, error) { return f.info, f.err }

// fakeArchiver records the Create call instead of running zip.
type fakeArchiver struct {
	err      error
	created  bool
	srcDir   string
	outPath  string
	excludes []string
}

func (f *fakeArchiver) Available() bool { return true }

func (f *fakeArchiver) Create(srcDir, outPath string, excludes []string) error {
	if f.err != nil {
		return f.err
	}
	f.created = true
	f.srcDir = srcDir
	f.outPath = outPath
	f.excludes = excludes
	return nil
}

// writeBundle creates a bundle directory with the named files inside a temp
// parent and resolves its Location.
func writeBundle(t *testing.T, name string, files ...string) bundle.Location {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	loc, err := bundle.Locate(dir)
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

// validBundle is a complete bundle: manifest, icon, referenced script.
func validBundle(t *testing.T, name string) bundle.Location {
	t.Helper()
	return writeBundle(t, name, bundle.ManifestName, bundle.IconName, "run.applescript")
}

// newPipeline wires a pipeline over loc with all-passing fakes.
func newPipeline(loc bundle.Location) (*pipeline.Pipeline, *fakePlist, *fakeArchiver) {
	pl := &fakePlist{format: plist.FormatXML, script: "run.applescript"}
	ar := &fakeArchiver{}
	p := &pipeline.Pipeline{
		Loc:      loc,
		Plist:    pl,
		Image:    &fakeImage{info: image.Info{Format: "png", Width: 64, Height: 64}},
		Archiver: ar,
		GOOS:     "darwin",
		Excludes: []string{"*.DS_Store"},
	}
	return p, pl, ar
}

// kindOf asserts err is a pipeline.Error and returns its Kind.
func kindOf(t *testing.T, err error) pipeline.Kind {
	t.Helper()
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a pipeline.Error, got %v", err)
	}
	return perr.Kind
}

func TestRunValidBundle(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, ar := newPipeline(loc)

	archivePath, err := p.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if filepath.Base(archivePath) != "MyAction.zip" {
		t.Errorf("archive name = %s, want MyAction.zip", filepath.Base(archivePath))
	}
	if filepath.Dir(archivePath) != filepath.Dir(loc.Dir) {
		t.Errorf("archive written to %s, want bundle parent %s", filepath.Dir(archivePath), filepath.Dir(loc.Dir))
	}
	if !ar.created {
		t.Error("archiver was not invoked")
	}
	if ar.srcDir != loc.Dir {
		t.Errorf("archived %s, want %s", ar.srcDir, loc.Dir)
	}
	found := false
	for _, pattern := range ar.excludes {
		if pattern == "*.DS_Store" {
			found = true
		}
	}
	if !found {
		t.Errorf("excludes %v missing *.DS_Store", ar.excludes)
	}
}

func TestArchiveNameStripsSpaces(t *testing.T) {
	loc := validBundle(t, "My Great Action")
	p, _, _ := newPipeline(loc)

	archivePath, err := p.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if filepath.Base(archivePath) != "MyGreatAction.zip" {
		t.Errorf("archive name = %s, want MyGreatAction.zip", filepath.Base(archivePath))
	}
}

func TestOutputDirOverride(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, ar := newPipeline(loc)
	out := t.TempDir()
	p.OutDir = out

	if _, err := p.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if filepath.Dir(ar.outPath) != out {
		t.Errorf("archive written to %s, want %s", filepath.Dir(ar.outPath), out)
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, ar := newPipeline(loc)
	p.GOOS = "linux"

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindUnsupportedPlatform {
		t.Errorf("kind = %v, want unsupported platform", kindOf(t, err))
	}
	if ar.created {
		t.Error("archive was created despite the failed platform gate")
	}
}

func TestMissingManifest(t *testing.T) {
	loc := writeBundle(t, "MyAction", bundle.IconName)
	p, _, ar := newPipeline(loc)

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindMissingArtifact {
		t.Errorf("kind = %v, want missing artifact", kindOf(t, err))
	}
	if ar.created {
		t.Error("archive was created despite a missing manifest")
	}
}

func TestMissingIcon(t *testing.T) {
	loc := writeBundle(t, "MyAction", bundle.ManifestName)
	p, _, _ := newPipeline(loc)

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindMissingArtifact {
		t.Errorf("kind = %v, want missing artifact", kindOf(t, err))
	}
}

func TestBinaryManifestIsConverted(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, _ := newPipeline(loc)
	pl.format = plist.FormatBinary

	if _, err := p.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !pl.converted {
		t.Error("binary manifest was not converted to XML")
	}
}

func TestTextManifestIsNotConverted(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, _ := newPipeline(loc)

	if _, err := p.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if pl.converted {
		t.Error("text manifest was rewritten; conversion must be a no-op")
	}
}

func TestConversionFailure(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, _ := newPipeline(loc)
	pl.format = plist.FormatBinary
	pl.convertErr = errors.New("invalid object in plist")

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindConversionFailed {
		t.Errorf("kind = %v, want conversion failed", kindOf(t, err))
	}
}

func TestManifestLintFailure(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, ar := newPipeline(loc)
	pl.lintErr = errors.New("Encountered unexpected character b on line 3")

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindManifestSyntax {
		t.Errorf("kind = %v, want manifest syntax error", kindOf(t, err))
	}
	if !strings.Contains(err.Error(), "unexpected character b") {
		t.Errorf("error %q does not carry the lint diagnostic", err)
	}
	if ar.created {
		t.Error("archive was created despite a lint failure")
	}
}

func TestInvalidIconFormat(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, _ := newPipeline(loc)
	p.Image = &fakeImage{info: image.Info{Format: "jpeg", Width: 64, Height: 64}}

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindInvalidIconFormat {
		t.Errorf("kind = %v, want invalid icon format", kindOf(t, err))
	}
}

func TestInvalidIconDimensions(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, ar := newPipeline(loc)
	p.Image = &fakeImage{info: image.Info{Format: "png", Width: 128, Height: 128}}

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindInvalidIconDimensions {
		t.Errorf("kind = %v, want invalid icon dimensions", kindOf(t, err))
	}
	if !strings.Contains(err.Error(), "128x128") {
		t.Errorf("error %q does not mention the actual dimensions", err)
	}
	if ar.created {
		t.Error("archive was created despite invalid icon dimensions")
	}
}

func TestImageToolMissingIsFatal(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, ar := newPipeline(loc)
	p.Image = &fakeImage{unavailable: true}

	if _, err := p.Run(); err == nil {
		t.Fatal("expected a failure when sips is unavailable")
	}
	if ar.created {
		t.Error("archive was created without icon inspection")
	}
}

func TestMissingScriptKey(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, _ := newPipeline(loc)
	pl.script = ""

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindMissingScriptKey {
		t.Errorf("kind = %v, want missing Script key", kindOf(t, err))
	}
}

func TestScriptFileMissing(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, _ := newPipeline(loc)
	pl.script = "other.applescript"

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindScriptFileMissing {
		t.Errorf("kind = %v, want script file missing", kindOf(t, err))
	}
}

func TestScriptNameWithSpace(t *testing.T) {
	loc := writeBundle(t, "MyAction", bundle.ManifestName, bundle.IconName, "run script.txt")
	p, pl, ar := newPipeline(loc)
	pl.script = "run script.txt"

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindInvalidFilename {
		t.Errorf("kind = %v, want invalid filename", kindOf(t, err))
	}
	if ar.created {
		t.Error("archive was created despite an invalid script filename")
	}
}

func TestScriptExtensionInvalid(t *testing.T) {
	loc := writeBundle(t, "MyAction", bundle.ManifestName, bundle.IconName, "run.apple-script")
	p, pl, _ := newPipeline(loc)
	pl.script = "run.apple-script"

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindInvalidExtension {
		t.Errorf("kind = %v, want invalid extension", kindOf(t, err))
	}
}

func TestOptionalChecksSkippedWithoutPlutil(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, ar := newPipeline(loc)
	pl.unavailable = true
	pl.lintErr = errors.New("should never be consulted")

	if _, err := p.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !ar.created {
		t.Error("archive was not created in degraded mode")
	}
}

func TestStrictModeFailsWithoutPlutil(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, pl, ar := newPipeline(loc)
	pl.unavailable = true
	p.Strict = true

	if _, err := p.Run(); err == nil {
		t.Fatal("expected strict mode to reject a missing plutil")
	}
	if ar.created {
		t.Error("archive was created despite strict mode failure")
	}
}

func TestArchiverFailure(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, ar := newPipeline(loc)
	ar.err = errors.New("zip I/O error")

	_, err := p.Run()
	if kindOf(t, err) != pipeline.KindArchive {
		t.Errorf("kind = %v, want archive failure", kindOf(t, err))
	}
}

func TestValidateDoesNotArchive(t *testing.T) {
	loc := validBundle(t, "MyAction")
	p, _, ar := newPipeline(loc)

	if err := p.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if ar.created {
		t.Error("Validate must not create an archive")
	}
}
