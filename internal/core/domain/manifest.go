package domain

// PackageMeta is the [package] section of a native manifest.
type PackageMeta struct {
	Name          string   `toml:"name" json:"name"`
	Version       string   `toml:"version" json:"version"`
	Description   string   `toml:"description" json:"description"`
	Repository    string   `toml:"repository" json:"repository"`
	Keywords      []string `toml:"keywords" json:"keywords"`
	BaseDir       string   `toml:"baseDir" json:"baseDir"`
	Readme        string   `toml:"readme" json:"readme"`
	License       string   `toml:"license" json:"license"`
	Files         []string `toml:"files" json:"files"`
	Homepage      string   `toml:"homepage" json:"homepage"`
	Documentation string   `toml:"documentation" json:"documentation"`
	Dfx           string   `toml:"dfx" json:"dfx"`
	Moc           string   `toml:"moc" json:"moc"`
	Donation      string   `toml:"donation" json:"donation"`
}

// Manifest is the decoded dependency declaration of one package directory.
type Manifest struct {
	// Package is nil for legacy manifests and manifests without a [package] section.
	Package         *PackageMeta
	Dependencies    []Dependency
	DevDependencies []Dependency
	// UnknownKeys lists keys present in the file that are not part of the format.
	UnknownKeys []string
}

// BaseDir returns the package's source directory, defaulting to "src".
func (m *Manifest) BaseDir() string {
	if m == nil || m.Package == nil || m.Package.BaseDir == "" {
		return DefaultBaseDir
	}
	return m.Package.BaseDir
}

// All returns direct dependencies followed by dev dependencies.
func (m *Manifest) All() []Dependency {
	if m == nil {
		return nil
	}
	out := make([]Dependency, 0, len(m.Dependencies)+len(m.DevDependencies))
	out = append(out, m.Dependencies...)
	return append(out, m.DevDependencies...)
}
