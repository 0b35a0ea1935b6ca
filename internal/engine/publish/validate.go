// Package publish validates a package and uploads it to the registry.
package publish

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/github/go-spdx/v2/spdxexp"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	maxDependencies  = 100
	maxKeywordLength = 20
	scriptsSection   = "scripts"
	packageSection   = "package"
)

// fieldLimit caps the length of a [package] field, in characters for strings
// and in elements for lists.
type fieldLimit struct {
	name string
	max  int
	get  func(*domain.PackageMeta) int
}

func strLen(s string) int { return utf8.RuneCountInString(s) }

var fieldLimits = []fieldLimit{
	{"name", 50, func(p *domain.PackageMeta) int { return strLen(p.Name) }},
	{"version", 20, func(p *domain.PackageMeta) int { return strLen(p.Version) }},
	{"keywords", 5, func(p *domain.PackageMeta) int { return len(p.Keywords) }},
	{"description", 200, func(p *domain.PackageMeta) int { return strLen(p.Description) }},
	{"repository", 300, func(p *domain.PackageMeta) int { return strLen(p.Repository) }},
	{"documentation", 300, func(p *domain.PackageMeta) int { return strLen(p.Documentation) }},
	{"homepage", 300, func(p *domain.PackageMeta) int { return strLen(p.Homepage) }},
	{"readme", 100, func(p *domain.PackageMeta) int { return strLen(p.Readme) }},
	{"license", 30, func(p *domain.PackageMeta) int { return strLen(p.License) }},
	{"files", 20, func(p *domain.PackageMeta) int { return len(p.Files) }},
	{"dfx", 10, func(p *domain.PackageMeta) int { return strLen(p.Dfx) }},
	{"moc", 10, func(p *domain.PackageMeta) int { return strLen(p.Moc) }},
	{"donation", 64, func(p *domain.PackageMeta) int { return strLen(p.Donation) }},
}

func invalid(msg string) error {
	return zerr.Wrap(domain.ErrPublishValidation, msg)
}

// Validate checks that m can be published. Every problem found is reported.
func Validate(m *domain.Manifest) error {
	if m == nil {
		return zerr.Wrap(domain.ErrManifestNotFound, "no mops.toml in project root")
	}

	var errs []error
	errs = append(errs, validateKeys(m.UnknownKeys)...)

	if m.Package == nil {
		errs = append(errs, invalid("missing [package] section"))
		return errors.Join(errs...)
	}
	errs = append(errs, validatePackage(m.Package)...)
	errs = append(errs, validateDependencies("dependencies", m.Dependencies)...)
	errs = append(errs, validateDependencies("dev-dependencies", m.DevDependencies)...)

	return errors.Join(errs...)
}

func validateKeys(unknown []string) []error {
	var errs []error
	seen := make(map[string]bool)
	for _, key := range unknown {
		section, _, nested := strings.Cut(key, ".")
		switch {
		case section == scriptsSection:
		case section == packageSection && nested:
			errs = append(errs, zerr.With(invalid("unknown config key"), "key", key))
		case !seen[section]:
			seen[section] = true
			errs = append(errs, zerr.With(invalid("unknown config section"), "section", section))
		}
	}
	return errs
}

func validatePackage(p *domain.PackageMeta) []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, zerr.With(invalid("missing required field"), "field", "name"))
	}
	if p.Version == "" {
		errs = append(errs, zerr.With(invalid("missing required field"), "field", "version"))
	} else if _, err := semver.StrictNewVersion(p.Version); err != nil {
		errs = append(errs, zerr.With(invalid("version is not a valid semantic version"), "version", p.Version))
	}

	for _, limit := range fieldLimits {
		if n := limit.get(p); n > limit.max {
			errs = append(errs, zerr.With(invalid("package."+limit.name+" exceeds max length "+strconv.Itoa(limit.max)), "length", n))
		}
	}

	for _, kw := range p.Keywords {
		if strLen(kw) > maxKeywordLength {
			errs = append(errs, zerr.With(invalid("keyword exceeds max length "+strconv.Itoa(maxKeywordLength)), "keyword", kw))
		}
	}

	for _, f := range p.Files {
		if strings.HasPrefix(f, "/") || strings.HasPrefix(f, "../") {
			errs = append(errs, zerr.With(invalid("file pattern cannot start with '/' or '../'"), "pattern", f))
		}
	}

	if p.License != "" {
		if ok, bad := spdxexp.ValidateLicenses([]string{p.License}); !ok {
			errs = append(errs, zerr.With(invalid("license is not a valid SPDX expression"), "license", strings.Join(bad, ", ")))
		}
	}
	return errs
}

func validateDependencies(section string, deps []domain.Dependency) []error {
	var errs []error
	if len(deps) > maxDependencies {
		errs = append(errs, zerr.With(invalid("too many "+section), "max", maxDependencies))
	}
	for _, d := range deps {
		if d.Kind() == domain.KindLocal {
			errs = append(errs, zerr.With(invalid("cannot publish packages with local "+section), "package", d.Name))
		}
	}
	return errs
}
