package domain

// LockfileVersion is the current lockfile format version.
const LockfileVersion = 1

// Lockfile is a snapshot of an install: one entry per resolved package.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int `yaml:"version"`

	// Packages maps package names to what was installed for them.
	Packages map[string]LockedPackage `yaml:"packages"`
}

// LockedPackage pins one resolved package.
type LockedPackage struct {
	Kind    Kind   `yaml:"kind"`
	Locator string `yaml:"locator"`
	// Purl is the package URL of registry and git packages.
	Purl string `yaml:"purl,omitempty"`
	// Digest is the xxhash tree digest of the materialized directory.
	Digest string `yaml:"digest,omitempty"`
}
