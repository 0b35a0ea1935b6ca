package domain

// PublishRequest is the package description sent to the registry when a publish starts.
type PublishRequest struct {
	Package         PackageMeta           `json:"package"`
	Dependencies    []PublishedDependency `json:"dependencies"`
	DevDependencies []PublishedDependency `json:"devDependencies"`
}

// PublishedDependency is a dependency as recorded by the registry.
type PublishedDependency struct {
	Name    string `json:"name"`
	Repo    string `json:"repo"`
	Version string `json:"version"`
}

// NewPublishRequest builds the registry description of a manifest.
func NewPublishRequest(m *Manifest) PublishRequest {
	req := PublishRequest{
		Dependencies:    publishedDependencies(m.Dependencies),
		DevDependencies: publishedDependencies(m.DevDependencies),
	}
	if m.Package != nil {
		req.Package = *m.Package
	}
	return req
}

func publishedDependencies(deps []Dependency) []PublishedDependency {
	out := make([]PublishedDependency, 0, len(deps))
	for _, d := range deps {
		pd := PublishedDependency{Name: d.Name}
		switch s := d.Source.(type) {
		case GitSource:
			pd.Repo = s.Repo
		case RegistrySource:
			pd.Version = s.Version
		}
		out = append(out, pd)
	}
	return out
}
