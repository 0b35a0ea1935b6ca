package ports

import "go.trai.ch/mops/internal/core/domain"

// PackageCache is the user-wide store of fully populated package directories.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type PackageCache interface {
	// Exists reports whether a complete entry is stored under key.
	Exists(key string) bool

	// Populate copies srcDir into the cache under key. On failure no entry is left behind.
	Populate(key, srcDir string) error

	// Materialize copies the entry for key to destDir.
	// It returns domain.ErrCacheMiss when there is no such entry.
	Materialize(key, destDir string) error

	// Entry returns the recorded metadata of an entry.
	Entry(key string) (domain.CacheEntry, bool)

	// Clean removes every entry.
	Clean() error

	// Dir returns the cache root.
	Dir() string
}
