package resolver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mops/internal/adapters/config"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports/mocks"
	"go.trai.ch/mops/internal/engine/resolver"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFileName), []byte(content), 0o600))
}

func pkgDir(root, name, version string) string {
	return filepath.Join(root, domain.PackagesDirName, name+"@"+version)
}

func newResolver(t *testing.T, ctrl *gomock.Controller, opts ...resolver.Option) (*resolver.Resolver, *mocks.MockLogger) {
	t.Helper()
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	reader := config.NewComposite(config.NewTOMLReader(log), nil)
	return resolver.New(reader, log, opts...), log
}

func resolve(t *testing.T, r *resolver.Resolver, root string, policy domain.ConflictPolicy) (*domain.Resolution, error) {
	t.Helper()
	return r.Resolve(context.Background(), resolver.Request{Root: root, Env: "local", Policy: policy})
}

func TestResolve_RootRequestWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, log := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\nbase = \"0.9.0\"\na = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\nbase = \"1.0.0\"\n")

	log.EXPECT().Warn(`conflicting package versions "base" - 0.9.0, 1.0.0`)

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)

	base, ok := res.Get("base")
	require.True(t, ok)
	assert.Equal(t, "0.9.0", base.Dependency.Version())
	assert.True(t, base.IsRoot)
	assert.Equal(t, pkgDir(root, "base", "0.9.0"), base.Dir)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, domain.Conflict{Name: "base", Requested: []string{"0.9.0", "1.0.0"}}, res.Conflicts[0])
}

func TestResolve_HigherTransitiveWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, log := newResolver(t, ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\nb = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\nlib = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "b", "1.0.0"), "[dependencies]\nlib = \"1.2.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)

	lib, ok := res.Get("lib")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", lib.Dependency.Version())
	assert.False(t, lib.IsRoot)
	assert.Equal(t, []string{"a", "b", "lib"}, res.Order)
}

func TestResolve_TiesKeepFirstSeen(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\nb = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\nlib = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "b", "1.0.0"), "[dependencies]\nlib = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)

	lib, _ := res.Get("lib")
	assert.Equal(t, "1.0.0", lib.Dependency.Version())
}

func TestResolve_GitRefsCompareByTag(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\nb = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\nlib = \"https://github.com/org/lib#v1.0.0\"\n")
	writeManifest(t, pkgDir(root, "b", "1.0.0"), "[dependencies]\nlib = \"https://github.com/org/lib#v1.1.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictIgnore)
	require.NoError(t, err)

	lib, _ := res.Get("lib")
	assert.Equal(t, "https://github.com/org/lib#v1.1.0", lib.Dependency.Locator())
	assert.Equal(t, filepath.Join(root, ".mops", "_github", "lib#v1.1.0"), lib.Dir)
	require.Len(t, res.Conflicts, 1)
}

func TestResolve_GitRefsIgnoreTagInRepoName(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\nb = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\ncompat = \"https://github.com/org/compat-v1.0.0-x#main\"\n")
	writeManifest(t, pkgDir(root, "b", "1.0.0"), "[dependencies]\ncompat = \"https://github.com/org/compat-v1.0.0-x#v0.5.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictIgnore)
	require.NoError(t, err)

	compat, ok := res.Get("compat")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/org/compat-v1.0.0-x#v0.5.0", compat.Dependency.Locator())
}

func TestResolve_ConflictPolicyError(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\nbase = \"0.9.0\"\na = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\nbase = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictError)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflictDetected)
	require.NotNil(t, res, "the computed resolution accompanies the error")
	assert.Len(t, res.Packages, 2)
}

func TestResolve_ConflictPolicyIgnore(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\nbase = \"0.9.0\"\na = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\nbase = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictIgnore)
	require.NoError(t, err)
	assert.Len(t, res.Conflicts, 1)
}

func TestResolve_CycleTerminates(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies]\nb = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "b", "1.0.0"), "[dependencies]\na = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Order)
}

func TestResolve_DevDependenciesOnlyAtRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\n\n[dev-dependencies]\ntest = \"2.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dev-dependencies]\nbench = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)

	test, ok := res.Get("test")
	require.True(t, ok)
	assert.True(t, test.IsRoot)
	_, ok = res.Get("bench")
	assert.False(t, ok)
}

func TestResolve_LaterRootDeclarationWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\nlib = \"1.0.0\"\n\n[dev-dependencies]\nlib = \"0.9.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictIgnore)
	require.NoError(t, err)

	lib, ok := res.Get("lib")
	require.True(t, ok)
	assert.Equal(t, "0.9.0", lib.Dependency.Version())
	assert.True(t, lib.IsRoot)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, []string{"1.0.0", "0.9.0"}, res.Conflicts[0].Requested)
}

func TestResolve_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\nb = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"),
		"[dependencies]\nlib = \"1.0.0\"\nutil = \"https://github.com/org/util#v1.0.0\"\n")
	writeManifest(t, pkgDir(root, "b", "1.0.0"),
		"[dependencies]\nlib = \"1.2.0\"\nutil = \"https://github.com/org/util#v2.0.0\"\n")
	writeManifest(t, pkgDir(root, "lib", "1.0.0"), "")
	writeManifest(t, pkgDir(root, "lib", "1.2.0"), "")

	first, err := resolve(t, r, root, domain.ConflictIgnore)
	require.NoError(t, err)
	second, err := resolve(t, r, root, domain.ConflictIgnore)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Conflicts, 2)
	lib, _ := first.Get("lib")
	assert.Equal(t, "1.2.0", lib.Dependency.Version())
}

func TestResolve_LocalDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\ncfg = \"./env/{MOPS_ENV}/cfg\"\n")
	writeManifest(t, filepath.Join(root, "env", "local", "cfg"), "[dependencies]\nnever = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)

	cfg, ok := res.Get("cfg")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "env", "local", "cfg"), cfg.Dir)
	_, ok = res.Get("never")
	assert.False(t, ok, "local packages are not descended")
}

func TestResolve_SourcesModeSkipsMissingPackages(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\nabsent = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)
	_, ok := res.Get("absent")
	assert.True(t, ok, "declared packages are resolved even when not installed")
}

func TestResolve_MissingRootManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	_, err := resolve(t, r, t.TempDir(), domain.ConflictWarning)
	assert.ErrorIs(t, err, domain.ErrManifestNotFound)
}

func TestResolve_BrokenTransitiveManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	r, _ := newResolver(t, ctrl)

	root := t.TempDir()
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\n")
	writeManifest(t, pkgDir(root, "a", "1.0.0"), "[dependencies\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrManifestParseFailed)
	assert.Contains(t, err.Error(), domain.ErrUnresolvedPackage.Error())
}

// fakeAcquirer writes a manifest for each requested package from a fixture table.
type fakeAcquirer struct {
	t         *testing.T
	root      string
	manifests map[string]string
	calls     [][]string
	fail      error
}

func (f *fakeAcquirer) AcquireAll(_ context.Context, deps []domain.Dependency) error {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.String())
	}
	f.calls = append(f.calls, names)
	if f.fail != nil {
		return f.fail
	}
	for _, d := range deps {
		writeManifest(f.t, domain.LocalDir(f.root, d, ""), f.manifests[d.Name])
	}
	return nil
}

func TestResolve_AcquiresEachFrontier(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	acq := &fakeAcquirer{t: t, root: root, manifests: map[string]string{
		"a": "[dependencies]\nc = \"1.0.0\"\n",
		"b": "",
		"c": "",
	}}
	r, _ := newResolver(t, ctrl, resolver.WithAcquirer(acq))
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\nb = \"1.0.0\"\nlocal = \"./lib\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a@1.0.0", "b@1.0.0"}, {"c@1.0.0"}}, acq.calls)
	assert.Equal(t, []string{"a", "b", "local", "c"}, res.Order)
}

func TestResolve_AcquireFailureReturnsNoResolution(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	acq := &fakeAcquirer{t: t, root: root, fail: zerr.With(zerr.Wrap(domain.ErrFetchFailed, domain.ErrUnresolvedPackage.Error()), "package", "a@1.0.0")}
	r, _ := newResolver(t, ctrl, resolver.WithAcquirer(acq))
	writeManifest(t, root, "[dependencies]\na = \"1.0.0\"\n")

	res, err := resolve(t, r, root, domain.ConflictWarning)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}
