// Package cas implements the content-addressed package cache.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	mopsfs "go.trai.ch/mops/internal/adapters/fs"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

const indexFileName = "index.json"

var _ ports.PackageCache = (*Store)(nil)

// Store implements ports.PackageCache as one directory per entry under a root,
// with a JSON index of entry digests.
//
// Entries are staged in a temporary directory inside the root and renamed into
// place, so an entry directory is either absent or complete.
type Store struct {
	root   string
	hasher ports.TreeHasher
	now    func() time.Time

	mu    sync.RWMutex
	index map[string]domain.CacheEntry
}

// NewStore creates a Store rooted at root, creating the directory if needed.
func NewStore(root string, hasher ports.TreeHasher) (*Store, error) {
	s := &Store{
		root:   filepath.Clean(root),
		hasher: hasher,
		now:    time.Now,
		index:  make(map[string]domain.CacheEntry),
	}
	if err := os.MkdirAll(s.root, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create cache directory"), "path", s.root)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the cache root.
func (s *Store) Dir() string {
	return s.root
}

// Exists reports whether a complete entry is stored under key.
func (s *Store) Exists(key string) bool {
	if !validKey(key) {
		return false
	}
	info, err := os.Stat(s.entryDir(key))
	return err == nil && info.IsDir()
}

// Populate copies srcDir into the cache under key. Populating an existing key is a no-op.
func (s *Store) Populate(key, srcDir string) error {
	if !validKey(key) {
		return zerr.With(zerr.Wrap(domain.ErrCachePopulateFailed, "invalid cache key"), "key", key)
	}
	if s.Exists(key) {
		return nil
	}

	tmp, err := os.MkdirTemp(s.root, ".populate-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCachePopulateFailed.Error()), "key", key)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck // Best effort cleanup of staging area

	staged := filepath.Join(tmp, "entry")
	if err := mopsfs.CopyDir(srcDir, staged); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCachePopulateFailed.Error()), "key", key)
	}

	digest, err := s.hasher.HashTree(staged)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCachePopulateFailed.Error()), "key", key)
	}

	if err := os.Rename(staged, s.entryDir(key)); err != nil {
		// Another process may have populated the same key first.
		if s.Exists(key) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrCachePopulateFailed.Error()), "key", key)
	}

	return s.record(domain.CacheEntry{
		Key:         key,
		Dir:         s.entryDir(key),
		Digest:      digest,
		PopulatedAt: s.now(),
	})
}

// Materialize copies the entry for key to destDir via a temporary sibling of destDir.
func (s *Store) Materialize(key, destDir string) error {
	if !s.Exists(key) {
		return zerr.With(zerr.Wrap(domain.ErrCacheMiss, "no cache entry"), "key", key)
	}

	parent := filepath.Dir(filepath.Clean(destDir))
	if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheMaterializeFailed.Error()), "path", parent)
	}

	tmp, err := os.MkdirTemp(parent, ".materialize-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheMaterializeFailed.Error()), "path", parent)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck // Best effort cleanup of staging area

	staged := filepath.Join(tmp, "entry")
	if err := mopsfs.CopyDir(s.entryDir(key), staged); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheMaterializeFailed.Error()), "key", key)
	}

	if err := mopsfs.RenameWithFallback(staged, destDir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheMaterializeFailed.Error()), "path", destDir)
	}
	return nil
}

// Entry returns the recorded metadata of a present entry.
func (s *Store) Entry(key string) (domain.CacheEntry, bool) {
	if !s.Exists(key) {
		return domain.CacheEntry{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.index[key]
	return e, ok
}

// Clean removes every entry and the index.
func (s *Store) Clean() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to clean cache"), "path", s.root)
	}
	if err := os.MkdirAll(s.root, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create cache directory"), "path", s.root)
	}
	s.index = make(map[string]domain.CacheEntry)
	return nil
}

func (s *Store) entryDir(key string) string {
	return filepath.Join(s.root, key)
}

func validKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.HasPrefix(key, ".") &&
		!strings.ContainsAny(key, `/\`)
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(filepath.Join(s.root, indexFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, domain.ErrCacheIndexFailed.Error())
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.index); err != nil {
		return zerr.Wrap(err, domain.ErrCacheIndexFailed.Error())
	}
	return nil
}

func (s *Store) record(entry domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[entry.Key] = entry

	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheIndexFailed.Error())
	}
	if err := atomicWriteFile(filepath.Join(s.root, indexFileName), data); err != nil {
		return zerr.Wrap(err, domain.ErrCacheIndexFailed.Error())
	}
	return nil
}

// atomicWriteFile writes data to a file atomically by writing to a temp file and renaming it.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
