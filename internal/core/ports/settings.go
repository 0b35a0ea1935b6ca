package ports

import "go.trai.ch/mops/internal/core/domain"

// SettingsLoader defines the interface for loading tool settings.
//
//go:generate mockgen -source=settings.go -destination=mocks/mock_settings.go -package=mocks
type SettingsLoader interface {
	// Load merges defaults, the user and project settings files, and the environment.
	Load(root string) (domain.Settings, error)
}
