// Package extract unpacks packaged action bundles. Bundles are distributed
// as ZIPs by this tool, but archives found in the wild also ship as tar
// variants or 7z, so install accepts all of them.
package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/xi2/xz"

	"kmpkg/internal/logger"
)

// Archive extracts src into dest and returns the path of the archive's
// top-level directory, which for a packaged bundle is the bundle itself.
func Archive(src, dest string) (string, error) {
	var top string
	var err error
	switch {
	case strings.HasSuffix(src, ".zip"):
		logger.Debug("[DEBUG] Extracting zip archive %s\n", src)
		top, err = extractZip(src, dest)
	case strings.HasSuffix(src, ".7z"):
		logger.Debug("[DEBUG] Extracting 7z archive %s\n", src)
		top, err = extract7z(src, dest)
	case strings.HasSuffix(src, ".tar"), strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"),
		strings.HasSuffix(src, ".tar.bz2"), strings.HasSuffix(src, ".tar.xz"):
		logger.Debug("[DEBUG] Extracting tar archive %s\n", src)
		top, err = extractTar(src, dest)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", src)
	}
	if err != nil {
		return "", err
	}
	// An archive whose entries all collapse to "." yields no bundle
	// directory; returning dest here would let callers treat the whole
	// destination as the installed bundle.
	if filepath.Clean(top) == filepath.Clean(dest) {
		return "", fmt.Errorf("archive %s has no top-level bundle directory", src)
	}
	return top, nil
}

// topLevelOf tracks the first meaningful path segment seen in an archive,
// which names the extracted bundle directory. Entries written with a "./"
// prefix (tar -czf x.tgz ./MyAction) are normalized first so the leading
// "." is never mistaken for the bundle name.
func topLevelOf(current, entryName string) string {
	if current != "" {
		return current
	}
	name := path.Clean(filepath.ToSlash(entryName))
	if name == "." || name == ".." || name == "/" || name == "" {
		return current
	}
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return name
}

// sanitizeEntry rejects entry names that would escape dest (zip-slip).
func sanitizeEntry(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func extractZip(src, dest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer r.Close()

	var topLevel string
	for _, f := range r.File {
		topLevel = topLevelOf(topLevel, f.Name)
		target, err := sanitizeEntry(dest, f.Name)
		if err != nil {
			return "", err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", err
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		if err := writeFile(target, rc, f.Mode()); err != nil {
			rc.Close()
			return "", err
		}
		rc.Close()
	}
	return filepath.Join(dest, topLevel), nil
}

func extractTar(src, dest string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return "", err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return "", err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	var topLevel string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		topLevel = topLevelOf(topLevel, hdr.Name)
		target, err := sanitizeEntry(dest, hdr.Name)
		if err != nil {
			return "", err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", err
			}
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return "", err
			}
		}
	}
	return filepath.Join(dest, topLevel), nil
}

func extract7z(src, dest string) (string, error) {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	var topLevel string
	for _, f := range r.File {
		topLevel = topLevelOf(topLevel, f.Name)
		target, err := sanitizeEntry(dest, f.Name)
		if err != nil {
			return "", err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", err
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		if err := writeFile(target, rc, f.Mode()); err != nil {
			rc.Close()
			return "", err
		}
		rc.Close()
	}
	return filepath.Join(dest, topLevel), nil
}

// writeFile streams r into a new file at target with the given mode.
func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
