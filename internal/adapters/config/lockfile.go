package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/package-url/packageurl-go"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// PurlType is the package URL type of registry packages.
const PurlType = "mops"

// Purl returns the package URL of dep, or "" for local packages.
func Purl(dep domain.Dependency) string {
	switch s := dep.Source.(type) {
	case domain.RegistrySource:
		return packageurl.NewPackageURL(PurlType, "", dep.Name, s.Version, nil, "").ToString()
	case domain.GitSource:
		return packageurl.NewPackageURL(packageurl.TypeGithub, s.Org, s.Name, s.Ref, nil, "").ToString()
	default:
		return ""
	}
}

// NewLockedPackage builds the lockfile entry of a resolved dependency.
func NewLockedPackage(dep domain.Dependency, digest string) domain.LockedPackage {
	return domain.LockedPackage{
		Kind:    dep.Kind(),
		Locator: dep.Locator(),
		Purl:    Purl(dep),
		Digest:  digest,
	}
}

// WriteLockfile writes lf to root/mops.lock, replacing any previous file atomically.
func WriteLockfile(root string, lf *domain.Lockfile) error {
	path := filepath.Join(root, domain.LockFileName)

	data, err := yaml.Marshal(lf)
	if err != nil {
		return zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error())
	}

	tmp, err := os.CreateTemp(root, "."+domain.LockFileName+"-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "path", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "path", path)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "path", path)
	}
	return nil
}

// ReadLockfile reads root/mops.lock. It returns nil and no error when the file does not exist.
func ReadLockfile(root string) (*domain.Lockfile, error) {
	path := filepath.Join(root, domain.LockFileName)
	data, err := os.ReadFile(path) //nolint:gosec // Lockfile path is fixed under the project root
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read lockfile"), "path", path)
	}

	var lf domain.Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse lockfile"), "path", path)
	}
	return &lf, nil
}
