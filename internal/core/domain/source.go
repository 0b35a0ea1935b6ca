package domain

import (
	"path"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// Kind identifies where a package comes from.
type Kind string

const (
	// KindLocal is a package living at a path on disk.
	KindLocal Kind = "local"
	// KindGit is a package fetched as a git archive.
	KindGit Kind = "git"
	// KindRegistry is a package fetched from the registry by version.
	KindRegistry Kind = "registry"
)

const (
	// DefaultGitHost is the host git locators point at when none is given.
	DefaultGitHost = "github.com"
	// DefaultGitRef is the ref used when a git locator carries no fragment.
	DefaultGitRef = "master"
)

// Source is the location a dependency is requested from.
// LocalSource, GitSource and RegistrySource are its only implementations.
type Source interface {
	Kind() Kind
	// Locator is the user-visible identity of the request: a path, a repo URL or a version.
	Locator() string
	isSource()
}

// LocalSource points at a directory, relative to the project root or absolute.
// The path may contain the {MOPS_ENV} placeholder.
type LocalSource struct {
	Path string
}

// Kind implements Source.
func (LocalSource) Kind() Kind { return KindLocal }

// Locator implements Source.
func (s LocalSource) Locator() string { return s.Path }

func (LocalSource) isSource() {}

// GitSource points at a ref of a hosted git repository.
type GitSource struct {
	// Repo is the canonical locator, https://github.com/<org>/<name>#<ref>.
	Repo string
	Org  string
	Name string
	Ref  string
}

// Kind implements Source.
func (GitSource) Kind() Kind { return KindGit }

// Locator implements Source.
func (s GitSource) Locator() string { return s.Repo }

func (GitSource) isSource() {}

// RegistrySource points at a published registry version. An empty Version
// means "highest available" and must be completed before acquisition.
type RegistrySource struct {
	Version string
}

// Kind implements Source.
func (RegistrySource) Kind() Kind { return KindRegistry }

// Locator implements Source.
func (s RegistrySource) Locator() string { return s.Version }

func (RegistrySource) isSource() {}

var (
	packageNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)
	versionPattern     = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z.+\-]*$`)
)

// ParseManifestEntry classifies a single `name = "value"` line of a manifest.
func ParseManifestEntry(name, value string) (Dependency, error) {
	if !packageNamePattern.MatchString(name) {
		return Dependency{}, invalidDependency(name, value)
	}

	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return Dependency{}, invalidDependency(name, value)
	case isLocalPath(value):
		return Dependency{Name: name, Source: LocalSource{Path: value}}, nil
	case isGitLocator(value):
		src, err := ParseGitLocator(value)
		if err != nil {
			return Dependency{}, zerr.With(err, "package", name)
		}
		return Dependency{Name: name, Source: src}, nil
	case versionPattern.MatchString(value):
		return Dependency{Name: name, Source: RegistrySource{Version: value}}, nil
	default:
		return Dependency{}, invalidDependency(name, value)
	}
}

// ParseSpec classifies a dependency given on the command line, such as
// "base", "base@0.10.2", "./lib/foo", "https://github.com/org/repo#v1.0.0" or "org/repo".
// Registry specs without a version are returned with an empty version.
func ParseSpec(spec string) (Dependency, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return Dependency{}, invalidDependency("", spec)
	case isLocalPath(spec):
		return Dependency{Name: localName(spec), Source: LocalSource{Path: spec}}, nil
	case isGitLocator(spec):
		src, err := ParseGitLocator(spec)
		if err != nil {
			return Dependency{}, err
		}
		return Dependency{Name: src.Name, Source: src}, nil
	}

	name, version, _ := strings.Cut(spec, "@")
	if !packageNamePattern.MatchString(name) {
		return Dependency{}, invalidDependency(name, spec)
	}
	if version != "" && !versionPattern.MatchString(version) {
		return Dependency{}, invalidDependency(name, spec)
	}
	return Dependency{Name: name, Source: RegistrySource{Version: version}}, nil
}

// ParseGitLocator parses "https://github.com/org/repo#ref" and the shorter
// "github.com/org/repo" and "org/repo#ref" forms. The ref defaults to "master"
// and a ".git" suffix on the repository name is dropped.
func ParseGitLocator(locator string) (GitSource, error) {
	rest, ref, _ := strings.Cut(locator, "#")
	if ref == "" {
		ref = DefaultGitRef
	}

	rest = strings.TrimPrefix(rest, "https://")
	rest = strings.TrimPrefix(rest, "http://")
	rest = strings.TrimPrefix(rest, DefaultGitHost+"/")

	var segments []string
	for _, s := range strings.Split(rest, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return GitSource{}, zerr.With(zerr.Wrap(ErrInvalidDependency, "malformed git locator"), "locator", locator)
	}

	org := segments[0]
	name := strings.TrimSuffix(segments[1], ".git")
	if org == "" || name == "" {
		return GitSource{}, zerr.With(zerr.Wrap(ErrInvalidDependency, "malformed git locator"), "locator", locator)
	}

	return GitSource{
		Repo: "https://" + DefaultGitHost + "/" + org + "/" + name + "#" + ref,
		Org:  org,
		Name: name,
		Ref:  ref,
	}, nil
}

func isLocalPath(s string) bool {
	return s == "." || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "/")
}

func isGitLocator(s string) bool {
	return strings.HasPrefix(s, "https://"+DefaultGitHost) || strings.Contains(s, "/")
}

// localName derives a package name from a local path: its last element
// without extension, or "_" for the current directory.
func localName(p string) string {
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "_"
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func invalidDependency(name, value string) error {
	err := zerr.With(zerr.Wrap(ErrInvalidDependency, "cannot classify dependency"), "package", name)
	return zerr.With(err, "locator", value)
}
