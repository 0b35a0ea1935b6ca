package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// ResolvedPackage is the winning request for a package name and where it lives on disk.
type ResolvedPackage struct {
	Dependency Dependency
	// Dir is the absolute materialized directory.
	Dir string
	// IsRoot marks packages declared directly by the project manifest.
	IsRoot bool
}

// Conflict records that distinct locators were requested for one package name.
type Conflict struct {
	Name string
	// Requested lists each distinct locator in first-seen order.
	Requested []string
}

// Resolution is the outcome of one resolver pass.
type Resolution struct {
	Packages map[string]*ResolvedPackage
	// Order lists package names in first-seen order.
	Order     []string
	Conflicts []Conflict
}

// NewResolution returns an empty resolution.
func NewResolution() *Resolution {
	return &Resolution{Packages: make(map[string]*ResolvedPackage)}
}

// Get returns the resolved package for a name.
func (r *Resolution) Get(name string) (*ResolvedPackage, bool) {
	p, ok := r.Packages[name]
	return p, ok
}

// Put sets the resolved package for its name, appending the name to Order on first sight.
func (r *Resolution) Put(p *ResolvedPackage) {
	if _, ok := r.Packages[p.Dependency.Name]; !ok {
		r.Order = append(r.Order, p.Dependency.Name)
	}
	r.Packages[p.Dependency.Name] = p
}

// Walk returns the resolved packages in Order.
func (r *Resolution) Walk() []*ResolvedPackage {
	out := make([]*ResolvedPackage, 0, len(r.Order))
	for _, name := range r.Order {
		out = append(out, r.Packages[name])
	}
	return out
}

// HasConflict reports whether a conflict was recorded for name.
func (r *Resolution) HasConflict(name string) bool {
	return slices.ContainsFunc(r.Conflicts, func(c Conflict) bool { return c.Name == name })
}

// ConflictPolicy decides what a resolver pass does with recorded conflicts.
type ConflictPolicy string

const (
	// ConflictWarning logs each conflict and succeeds.
	ConflictWarning ConflictPolicy = "warning"
	// ConflictError fails the pass when any conflict exists.
	ConflictError ConflictPolicy = "error"
	// ConflictIgnore succeeds silently.
	ConflictIgnore ConflictPolicy = "ignore"
)

// ParseConflictPolicy validates a policy name. An empty name yields ConflictWarning.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case "":
		return ConflictWarning, nil
	case ConflictWarning, ConflictError, ConflictIgnore:
		return ConflictPolicy(s), nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidConflictPolicy, "unknown policy"), "policy", s)
	}
}

// SourceEntry is one package handed to the compiler.
type SourceEntry struct {
	Name string
	// Dir is the package's source directory relative to the project root.
	Dir string
}

// String renders the entry as a compiler flag.
func (e SourceEntry) String() string {
	return "--package " + e.Name + " " + e.Dir
}
