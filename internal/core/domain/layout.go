package domain

import (
	"os"
	"path/filepath"
)

const (
	// PackagesDirName is the project-local directory holding materialized packages.
	PackagesDirName = ".mops"

	// GithubDirName is the subdirectory of PackagesDirName holding git packages.
	GithubDirName = "_github"

	// TmpDirName is the subdirectory of PackagesDirName used for in-flight downloads.
	TmpDirName = "_tmp"

	// ManifestFileName is the native manifest file name.
	ManifestFileName = "mops.toml"

	// LockFileName is the name of the lockfile written by install.
	LockFileName = "mops.lock"

	// VesselFileName is the legacy package manifest.
	VesselFileName = "vessel.dhall"

	// PackageSetFileName is the legacy package set.
	PackageSetFileName = "package-set.dhall"

	// VesselSidecarFileName caches the decoded legacy manifest pair.
	VesselSidecarFileName = "vessel.json"

	// SettingsFileName is the name of the settings file.
	SettingsFileName = "config.yaml"

	// AppDirName is the per-user directory name under the XDG roots.
	AppDirName = "mops"

	// CachePackagesDirName is the subdirectory of the user cache holding package entries.
	CachePackagesDirName = "packages"

	// DefaultBaseDir is the source directory of a package when its manifest does not name one.
	DefaultBaseDir = "src"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultTmpPath returns the download scratch directory under the given project root.
func DefaultTmpPath(root string) string {
	return filepath.Join(root, PackagesDirName, TmpDirName)
}

// DefaultCachePath returns the user-wide package cache root.
// It joins $XDG_CACHE_HOME (or the platform equivalent), mops and packages.
func DefaultCachePath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "cache")
	}
	return filepath.Join(base, AppDirName, CachePackagesDirName)
}

// DefaultUserSettingsPath returns the user-wide settings file.
func DefaultUserSettingsPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, AppDirName, SettingsFileName)
}

// ProjectSettingsPath returns the project-local settings file under root.
func ProjectSettingsPath(root string) string {
	return filepath.Join(root, PackagesDirName, SettingsFileName)
}
