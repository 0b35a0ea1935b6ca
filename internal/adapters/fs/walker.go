// Package fs provides file system adapters for walking, hashing and copying package trees.
package fs

import (
	iofs "io/fs"
	"iter"
	"path/filepath"
	"slices"
)

// defaultIgnores are directory names never descended into.
var defaultIgnores = []string{".git"}

// Walker iterates over the regular files of a directory tree.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the path of every regular file under root in lexical order.
// Directories named in ignores, and .git, are skipped entirely.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && (slices.Contains(defaultIgnores, d.Name()) || slices.Contains(ignores, d.Name())) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
