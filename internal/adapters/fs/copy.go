package fs

import (
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

var (
	errSrcNotDir = zerr.New("source is not a directory")
	errDstExist  = zerr.New("destination already exists")
)

// CopyDir recursively copies the directory src to dst. The source must be a
// directory and the destination must not exist. File modes and symlinks are
// preserved.
func CopyDir(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	// Lstat so a symlink to a parent directory cannot loop.
	fi, err := os.Lstat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cannot stat source"), "path", src)
	}
	if !fi.IsDir() {
		return zerr.With(errSrcNotDir, "path", src)
	}

	_, err = os.Stat(dst)
	if err != nil && !os.IsNotExist(err) {
		return zerr.With(zerr.Wrap(err, "cannot stat destination"), "path", dst)
	}
	if err == nil {
		return zerr.With(errDstExist, "path", dst)
	}

	if err := os.MkdirAll(dst, fi.Mode().Perm()); err != nil {
		return zerr.With(zerr.Wrap(err, "cannot mkdir"), "path", dst)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cannot read directory"), "path", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type()&os.ModeSymlink != 0:
			if err := copySymlink(srcPath, dstPath); err != nil {
				return err
			}
		default:
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// copyFile copies the contents and mode of the file src to dst.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cannot open file"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Read-only handle

	info, err := in.Stat()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cannot stat file"), "path", src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cannot create file"), "path", dst)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "cannot close file"), "path", dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return zerr.With(zerr.Wrap(err, "cannot copy file"), "path", dst)
	}
	return nil
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cannot read symlink"), "path", src)
	}
	if err := os.Symlink(target, dst); err != nil {
		return zerr.With(zerr.Wrap(err, "cannot create symlink"), "path", dst)
	}
	return nil
}

// RenameWithFallback renames src to dst, copying and removing src when a
// plain rename fails, e.g. across devices.
func RenameWithFallback(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return zerr.With(zerr.Wrap(err, "cannot stat source"), "path", src)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	return renameByCopy(src, dst)
}

func renameByCopy(src, dst string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "cannot stat source"), "path", src)
	}

	if fi.IsDir() {
		err = CopyDir(src, dst)
	} else {
		err = copyFile(src, dst)
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "rename fallback failed"), "dst", dst)
	}

	if err := os.RemoveAll(src); err != nil {
		return zerr.With(zerr.Wrap(err, "cannot remove source after copy"), "path", src)
	}
	return nil
}
