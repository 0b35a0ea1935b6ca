package resolver

import (
	"context"
	"path/filepath"

	"go.trai.ch/mops/internal/core/domain"
)

// Sources lists the source directory of every resolved package, relative to
// root when possible. A package's manifest may move its sources with baseDir;
// a local package without that directory is used as is.
func (r *Resolver) Sources(ctx context.Context, res *domain.Resolution, root string) []domain.SourceEntry {
	entries := make([]domain.SourceEntry, 0, len(res.Order))
	for _, pkg := range res.Walk() {
		baseDir := domain.DefaultBaseDir
		m, err := r.manifests.Read(ctx, pkg.Dir)
		if err != nil {
			r.logger.Debug("using default source directory for " + pkg.Dependency.Name + ": " + err.Error())
		} else {
			baseDir = m.BaseDir()
		}

		dir := filepath.Join(pkg.Dir, baseDir)
		if pkg.Dependency.Kind() == domain.KindLocal && !dirExists(dir) {
			dir = pkg.Dir
		}
		if rel, err := filepath.Rel(root, dir); err == nil {
			dir = rel
		}

		entries = append(entries, domain.SourceEntry{Name: pkg.Dependency.Name, Dir: dir})
	}
	return entries
}
