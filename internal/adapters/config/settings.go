package config

import (
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Environment variables that override settings files.
const (
	EnvCacheDir    = "MOPS_CACHE_DIR"
	EnvRegistryURL = "MOPS_REGISTRY_URL"
	EnvEnv         = "MOPS_ENV"
)

var _ ports.SettingsLoader = (*SettingsLoader)(nil)

// SettingsLoader implements ports.SettingsLoader with YAML files.
type SettingsLoader struct {
	userPath string
	getenv   func(string) string
}

// SettingsOption configures a SettingsLoader.
type SettingsOption func(*SettingsLoader)

// WithUserPath overrides the location of the user-wide settings file.
func WithUserPath(path string) SettingsOption {
	return func(l *SettingsLoader) {
		l.userPath = path
	}
}

// WithGetenv overrides how environment variables are looked up.
func WithGetenv(getenv func(string) string) SettingsOption {
	return func(l *SettingsLoader) {
		l.getenv = getenv
	}
}

// NewSettingsLoader creates a SettingsLoader reading the user settings file and the environment.
func NewSettingsLoader(opts ...SettingsOption) *SettingsLoader {
	l := &SettingsLoader{
		userPath: domain.DefaultUserSettingsPath(),
		getenv:   os.Getenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies, in order, the defaults, the user settings file, the project
// settings file under root and the environment. Missing files are skipped.
func (l *SettingsLoader) Load(root string) (domain.Settings, error) {
	s := domain.DefaultSettings()

	for _, path := range []string{l.userPath, domain.ProjectSettingsPath(root)} {
		if path == "" {
			continue
		}
		if err := mergeFile(&s, path); err != nil {
			return domain.Settings{}, err
		}
	}

	if v := l.getenv(EnvCacheDir); v != "" {
		s.CacheDir = v
	}
	if v := l.getenv(EnvRegistryURL); v != "" {
		s.RegistryURL = v
	}
	if v := l.getenv(EnvEnv); v != "" {
		s.Env = v
	}

	return normalize(s)
}

func mergeFile(s *domain.Settings, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Settings paths are fixed locations
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error()), "path", path)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrSettingsLoadFailed, err.Error()), "path", path)
	}
	return nil
}

func normalize(s domain.Settings) (domain.Settings, error) {
	defaults := domain.DefaultSettings()

	policy, err := domain.ParseConflictPolicy(string(s.Conflicts))
	if err != nil {
		return domain.Settings{}, err
	}
	s.Conflicts = policy

	if s.Concurrency < 1 {
		s.Concurrency = defaults.Concurrency
	}
	if s.CacheDir == "" {
		s.CacheDir = defaults.CacheDir
	}
	if s.RegistryURL == "" {
		s.RegistryURL = defaults.RegistryURL
	}
	if s.GitHost == "" {
		s.GitHost = defaults.GitHost
	}
	if s.Env == "" {
		s.Env = defaults.Env
	}
	if s.LogLevel == "" {
		s.LogLevel = defaults.LogLevel
	}
	return s, nil
}
