package acquire_test

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mops/internal/adapters/cas"
	"go.trai.ch/mops/internal/adapters/fs"
	"go.trai.ch/mops/internal/adapters/telemetry"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/mops/internal/core/ports/mocks"
	"go.trai.ch/mops/internal/engine/acquire"
	"go.trai.ch/mops/internal/engine/pool"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func tarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

type fixture struct {
	root      string
	cache     *cas.Store
	registry  *mocks.MockRegistry
	git       *mocks.MockGitFetcher
	manifests *mocks.MockManifestReader
	logger    *mocks.MockLogger
}

func newFixture(t *testing.T, ctrl *gomock.Controller) *fixture {
	t.Helper()
	cache, err := cas.NewStore(filepath.Join(t.TempDir(), "cache"), fs.NewHasher(fs.NewWalker()))
	require.NoError(t, err)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	return &fixture{
		root:      t.TempDir(),
		cache:     cache,
		registry:  mocks.NewMockRegistry(ctrl),
		git:       mocks.NewMockGitFetcher(ctrl),
		manifests: mocks.NewMockManifestReader(ctrl),
		logger:    logger,
	}
}

func (f *fixture) acquirer(tel ports.Telemetry) *acquire.Acquirer {
	if tel == nil {
		tel = telemetry.NoOp{}
	}
	return acquire.New(f.root, pool.New(4), acquire.Deps{
		Cache:     f.cache,
		Registry:  f.registry,
		Git:       f.git,
		Manifests: f.manifests,
		Telemetry: tel,
		Logger:    f.logger,
	})
}

func registryDep(name, version string) domain.Dependency {
	return domain.Dependency{Name: name, Source: domain.RegistrySource{Version: version}}
}

func gitDep(t *testing.T, name, locator string) domain.Dependency {
	t.Helper()
	dep, err := domain.ParseManifestEntry(name, locator)
	require.NoError(t, err)
	return dep
}

func TestAcquireAll_RegistryDownloadPopulatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	dep := registryDep("base", "0.10.2")
	body := tarball(t, map[string]string{"mops.toml": "[package]\nname = \"base\"\n", "src/Nat.mo": "module {}"})
	f.registry.EXPECT().DownloadArchive(gomock.Any(), "base", "0.10.2").
		Return(io.NopCloser(bytes.NewReader(body)), nil)

	require.NoError(t, f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{dep}))

	assert.FileExists(t, filepath.Join(f.root, ".mops", "base@0.10.2", "src", "Nat.mo"))
	assert.True(t, f.cache.Exists("base@0.10.2"))
}

func TestAcquireAll_MaterializesFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "mops.toml"), []byte("[package]\n"), 0o600))
	require.NoError(t, f.cache.Populate("base@0.10.2", src))

	vertex := mocks.NewMockVertex(ctrl)
	tel := mocks.NewMockTelemetry(ctrl)
	tel.EXPECT().Record(gomock.Any(), "acquire base@0.10.2").
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) { return ctx, vertex })
	vertex.EXPECT().Cached()
	vertex.EXPECT().Complete(nil)

	require.NoError(t, f.acquirer(tel).AcquireAll(context.Background(), []domain.Dependency{registryDep("base", "0.10.2")}))
	assert.FileExists(t, filepath.Join(f.root, ".mops", "base@0.10.2", "mops.toml"))
}

func TestAcquireAll_ExistingDirectoryIsDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	require.NoError(t, os.MkdirAll(filepath.Join(f.root, ".mops", "base@0.10.2"), 0o750))

	require.NoError(t, f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{registryDep("base", "0.10.2")}))
	assert.False(t, f.cache.Exists("base@0.10.2"), "nothing downloaded, nothing cached")
}

func TestAcquireAll_SingleFlightPerKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	body := tarball(t, map[string]string{"src/A.mo": "module {}"})
	f.registry.EXPECT().DownloadArchive(gomock.Any(), "a", "1.0.0").
		Return(io.NopCloser(bytes.NewReader(body)), nil).Times(1)

	a := f.acquirer(nil)
	deps := []domain.Dependency{registryDep("a", "1.0.0"), registryDep("a", "1.0.0")}
	require.NoError(t, a.AcquireAll(context.Background(), deps))
	require.NoError(t, a.AcquireAll(context.Background(), deps[:1]))
}

func TestAcquireAll_SkipsLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	local := domain.Dependency{Name: "lib", Source: domain.LocalSource{Path: "./lib"}}
	require.NoError(t, f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{local}))
}

func TestAcquireAll_RegistryFailureNamesPackage(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	f.registry.EXPECT().DownloadArchive(gomock.Any(), "broken", "1.0.0").
		Return(nil, zerr.Wrap(domain.ErrFetchFailed, "unexpected status 404 Not Found"))

	err := f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{registryDep("broken", "1.0.0")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Contains(t, err.Error(), domain.ErrUnresolvedPackage.Error())
	assert.NoDirExists(t, filepath.Join(f.root, ".mops", "broken@1.0.0"))
	assert.False(t, f.cache.Exists("broken@1.0.0"))
}

func TestAcquireAll_CorruptArchiveRemovesTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	f.registry.EXPECT().DownloadArchive(gomock.Any(), "bad", "1.0.0").
		Return(io.NopCloser(bytes.NewReader([]byte("not gzip"))), nil)

	err := f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{registryDep("bad", "1.0.0")})
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(f.root, ".mops", "bad@1.0.0"))
}

func TestAcquireAll_FirstFailureInDeclarationOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	f.registry.EXPECT().DownloadArchive(gomock.Any(), "first", "1.0.0").
		Return(nil, zerr.Wrap(domain.ErrFetchFailed, "first down"))
	f.registry.EXPECT().DownloadArchive(gomock.Any(), "second", "1.0.0").
		Return(nil, zerr.Wrap(domain.ErrFetchFailed, "second down"))

	err := f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{
		registryDep("first", "1.0.0"),
		registryDep("second", "1.0.0"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first down")
}

func writeGitTree(dest string) error {
	if err := os.MkdirAll(filepath.Join(dest, "src"), 0o750); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "src", "lib.mo"), []byte("module {}"), 0o600)
}

func TestAcquireAll_GitDependenciesAcquiredEagerly(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	parent := gitDep(t, "parent", "https://github.com/org/parent#v1.0.0")
	child := gitDep(t, "child", "https://github.com/org/child#v0.2.0")
	registryChild := registryDep("ignored", "1.0.0")

	f.git.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.GitSource, dest string) error { return writeGitTree(dest) }).
		Times(2)

	parentDir := filepath.Join(f.root, parent.DirName())
	childDir := filepath.Join(f.root, child.DirName())
	f.manifests.EXPECT().Read(gomock.Any(), parentDir).
		Return(&domain.Manifest{Dependencies: []domain.Dependency{child, registryChild}}, nil)
	f.manifests.EXPECT().Read(gomock.Any(), childDir).Return(nil, nil)

	require.NoError(t, f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{parent}))

	assert.DirExists(t, parentDir)
	assert.DirExists(t, childDir)
	assert.True(t, f.cache.Exists(child.CacheKey()))
	assert.NoDirExists(t, filepath.Join(f.root, registryChild.DirName()), "only git dependencies are pulled eagerly")
}

func TestAcquireAll_GitChildFailureFailsParent(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	parent := gitDep(t, "parent", "https://github.com/org/parent#v1.0.0")
	child := gitDep(t, "child", "https://github.com/org/child#v0.2.0")

	f.git.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, src domain.GitSource, dest string) error {
			if src.Name == "child" {
				return zerr.Wrap(domain.ErrStaleResponse, "archive response too old")
			}
			return writeGitTree(dest)
		}).
		Times(2)
	f.manifests.EXPECT().Read(gomock.Any(), filepath.Join(f.root, parent.DirName())).
		Return(&domain.Manifest{Dependencies: []domain.Dependency{child}}, nil)

	err := f.acquirer(nil).AcquireAll(context.Background(), []domain.Dependency{parent})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
	assert.Contains(t, err.Error(), "dependency failed")
}

func TestAcquireAll_PopulateFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	cache := mocks.NewMockPackageCache(ctrl)
	cache.EXPECT().Exists("base@1.0.0").Return(false)
	cache.EXPECT().Populate("base@1.0.0", gomock.Any()).Return(domain.ErrCachePopulateFailed)
	f.logger.EXPECT().Warn(gomock.Any())

	body := tarball(t, map[string]string{"src/A.mo": "module {}"})
	f.registry.EXPECT().DownloadArchive(gomock.Any(), "base", "1.0.0").
		Return(io.NopCloser(bytes.NewReader(body)), nil)

	a := acquire.New(f.root, pool.New(1), acquire.Deps{
		Cache:     cache,
		Registry:  f.registry,
		Git:       f.git,
		Manifests: f.manifests,
		Telemetry: telemetry.NoOp{},
		Logger:    f.logger,
	})
	require.NoError(t, a.AcquireAll(context.Background(), []domain.Dependency{registryDep("base", "1.0.0")}))
	assert.DirExists(t, filepath.Join(f.root, ".mops", "base@1.0.0"))
}
