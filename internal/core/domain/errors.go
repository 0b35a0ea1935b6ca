package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidDependency is returned when a dependency declaration cannot be classified.
	ErrInvalidDependency = zerr.New("invalid dependency")

	// ErrFetchFailed is returned when a package could not be downloaded.
	ErrFetchFailed = zerr.New("failed to fetch package")

	// ErrArchiveExtractFailed is returned when a downloaded archive cannot be unpacked.
	ErrArchiveExtractFailed = zerr.New("failed to extract archive")

	// ErrStaleResponse is returned when a git archive response is older than the allowed age.
	ErrStaleResponse = zerr.New("stale response")

	// ErrCacheMiss is returned when a cache entry is requested but not present.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrCachePopulateFailed is returned when a directory cannot be stored in the package cache.
	ErrCachePopulateFailed = zerr.New("failed to populate package cache")

	// ErrCacheMaterializeFailed is returned when a cache entry cannot be copied out.
	ErrCacheMaterializeFailed = zerr.New("failed to materialize cache entry")

	// ErrCacheIndexFailed is returned when the cache index cannot be read or written.
	ErrCacheIndexFailed = zerr.New("failed to update cache index")

	// ErrConflictDetected is returned when conflicting requests exist and the policy is "error".
	ErrConflictDetected = zerr.New("conflicting package versions")

	// ErrRemoteRejected is returned when the registry answers with an explicit error result.
	ErrRemoteRejected = zerr.New("registry rejected request")

	// ErrManifestNotFound is returned when a project directory has no manifest.
	ErrManifestNotFound = zerr.New("manifest not found")

	// ErrManifestParseFailed is returned when a manifest cannot be decoded.
	ErrManifestParseFailed = zerr.New("failed to parse manifest")

	// ErrUnresolvedPackage is returned when a package could not be materialized during resolution.
	ErrUnresolvedPackage = zerr.New("unresolved package")

	// ErrPublishValidation is returned when a package fails pre-publish validation.
	ErrPublishValidation = zerr.New("package validation failed")

	// ErrPublishFailed is returned when an upload step of the publish pipeline fails.
	ErrPublishFailed = zerr.New("failed to publish package")

	// ErrSettingsLoadFailed is returned when a settings file exists but cannot be read.
	ErrSettingsLoadFailed = zerr.New("failed to load settings")

	// ErrLockfileWriteFailed is returned when the lockfile cannot be written.
	ErrLockfileWriteFailed = zerr.New("failed to write lockfile")

	// ErrHashFailed is returned when a directory tree cannot be hashed.
	ErrHashFailed = zerr.New("failed to hash directory")

	// ErrInvalidConflictPolicy is returned for an unknown conflict policy name.
	ErrInvalidConflictPolicy = zerr.New("invalid conflict policy")
)
