package domain

import "time"

const (
	// DefaultConcurrency bounds the number of package acquisitions in flight.
	DefaultConcurrency = 8
	// DefaultEnv is the value substituted for {MOPS_ENV} when none is configured.
	DefaultEnv = "local"
	// DefaultRegistryURL is the registry gateway base URL.
	DefaultRegistryURL = "https://mops.one/api"
	// DefaultLogLevel is the log level when none is configured.
	DefaultLogLevel = "info"
)

// Settings holds tool-wide configuration.
type Settings struct {
	CacheDir    string         `yaml:"cache_dir"`
	RegistryURL string         `yaml:"registry_url"`
	GitHost     string         `yaml:"git_host"`
	Concurrency int            `yaml:"concurrency"`
	Conflicts   ConflictPolicy `yaml:"conflicts"`
	Env         string         `yaml:"env"`
	LogLevel    string         `yaml:"log_level"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		CacheDir:    DefaultCachePath(),
		RegistryURL: DefaultRegistryURL,
		GitHost:     DefaultGitHost,
		Concurrency: DefaultConcurrency,
		Conflicts:   ConflictWarning,
		Env:         DefaultEnv,
		LogLevel:    DefaultLogLevel,
	}
}

// CacheEntry describes a fully populated package cache entry.
type CacheEntry struct {
	Key         string    `json:"key"`
	Dir         string    `json:"dir"`
	Digest      string    `json:"digest"`
	PopulatedAt time.Time `json:"populated_at"`
}
