package domain

import (
	"path/filepath"
	"strings"
)

// EnvPlaceholder is substituted in local dependency paths with the active environment name.
const EnvPlaceholder = "{MOPS_ENV}"

// Dependency is a single declared request for a package.
type Dependency struct {
	Name   string
	Source Source
}

// Kind returns the kind of the dependency's source.
func (d Dependency) Kind() Kind {
	return d.Source.Kind()
}

// Locator returns the path, repository URL or version the dependency requests.
func (d Dependency) Locator() string {
	return d.Source.Locator()
}

// Version returns the requested registry version, or "" for other kinds.
func (d Dependency) Version() string {
	if s, ok := d.Source.(RegistrySource); ok {
		return s.Version
	}
	return ""
}

// Git returns the git source of the dependency, if it has one.
func (d Dependency) Git() (GitSource, bool) {
	s, ok := d.Source.(GitSource)
	return s, ok
}

// DirName returns the directory the dependency materializes into, relative to
// the project root. It is a pure function of name, kind and locator.
func (d Dependency) DirName() string {
	switch s := d.Source.(type) {
	case GitSource:
		return filepath.Join(PackagesDirName, GithubDirName, d.Name+"#"+strings.ReplaceAll(s.Ref, "/", "_"))
	case RegistrySource:
		return filepath.Join(PackagesDirName, d.Name+"@"+s.Version)
	case LocalSource:
		return s.Path
	default:
		return ""
	}
}

// CacheKey returns the key of the dependency's entry in the package cache.
// Local dependencies are never cached and yield "".
func (d Dependency) CacheKey() string {
	switch s := d.Source.(type) {
	case GitSource:
		return "github_" + d.Name + "@" + strings.ReplaceAll(s.Ref, "/", "_")
	case RegistrySource:
		return d.Name + "@" + s.Version
	default:
		return ""
	}
}

// ManifestValue renders the dependency as the right-hand side of a manifest entry.
func (d Dependency) ManifestValue() string {
	return d.Locator()
}

// String renders the dependency as name@locator.
func (d Dependency) String() string {
	return d.Name + "@" + d.Locator()
}

// ExpandEnv replaces the {MOPS_ENV} placeholder in a local path.
func ExpandEnv(path, env string) string {
	if env == "" {
		env = DefaultEnv
	}
	return strings.ReplaceAll(path, EnvPlaceholder, env)
}

// LocalDir resolves the directory of a dependency against the project root.
// For local dependencies the {MOPS_ENV} placeholder is expanded first.
func LocalDir(root string, d Dependency, env string) string {
	dir := d.DirName()
	if d.Kind() == KindLocal {
		dir = ExpandEnv(dir, env)
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}
