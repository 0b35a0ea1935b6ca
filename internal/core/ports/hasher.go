package ports

// TreeHasher computes content digests of directory trees.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type TreeHasher interface {
	// HashTree returns a digest over the relative paths and contents of every file under dir.
	HashTree(dir string) (string, error)
}
