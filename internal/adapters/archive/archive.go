// Package archive unpacks downloaded package archives.
package archive

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/zerr"
)

// ExtractTarGz unpacks a gzip-compressed tarball into dest, dropping the first
// strip path elements of every entry. dest is created if needed.
func ExtractTarGz(r io.Reader, dest string, strip int) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error())
	}
	defer gz.Close() //nolint:errcheck // Read-only stream

	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", dest)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error())
		}

		target, ok, err := targetPath(dest, hdr.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", target)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, fileMode(hdr.FileInfo().Mode())); err != nil {
				return err
			}
		default:
			// Links and devices have no place in a source package.
			continue
		}
	}
}

// ExtractZip unpacks the zip file at src into dest, dropping the first strip
// path elements of every entry. dest is created if needed.
func ExtractZip(src, dest string, strip int) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", src)
	}
	defer zr.Close() //nolint:errcheck // Read-only archive

	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", dest)
	}

	for _, f := range zr.File {
		target, ok, err := targetPath(dest, f.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", target)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "entry", f.Name)
	}
	defer rc.Close() //nolint:errcheck // Read-only entry

	return writeFile(target, rc, fileMode(f.Mode()))
}

// targetPath maps an archive entry name to a path under dest. It reports false
// for entries that vanish after stripping and fails for entries escaping dest.
func targetPath(dest, name string, strip int) (string, bool, error) {
	name = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, `\`, "/")), "/")
	parts := strings.Split(name, "/")
	if len(parts) <= strip || name == "" {
		return "", false, nil
	}

	rel := filepath.FromSlash(strings.Join(parts[strip:], "/"))
	target := filepath.Join(dest, rel)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", false, zerr.With(zerr.Wrap(domain.ErrArchiveExtractFailed, "entry escapes destination"), "entry", name)
	}
	return target, true, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", target)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode) //nolint:gosec // Target is confined to dest
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", target)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, domain.ErrArchiveExtractFailed.Error()), "path", target)
		}
	}()

	if _, err := io.Copy(out, r); err != nil { //nolint:gosec // Package archives are bounded by the registry
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveExtractFailed.Error()), "path", target)
	}
	return nil
}

func fileMode(m os.FileMode) os.FileMode {
	if m.Perm()&0o111 != 0 {
		return 0o755
	}
	return domain.FilePerm
}
