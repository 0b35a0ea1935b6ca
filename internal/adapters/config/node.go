package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mops/internal/adapters/legacy"
	"go.trai.ch/mops/internal/adapters/logger"
	"go.trai.ch/mops/internal/core/ports"
)

const (
	// ManifestNodeID is the unique identifier for the manifest reader Graft node.
	ManifestNodeID graft.ID = "adapter.manifest_reader"
	// SettingsNodeID is the unique identifier for the settings loader Graft node.
	SettingsNodeID graft.ID = "adapter.settings_loader"
)

func init() {
	graft.Register(graft.Node[ports.ManifestReader]{
		ID:        ManifestNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, legacy.NodeID},
		Run: func(ctx context.Context) (ports.ManifestReader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			vessel, err := graft.Dep[*legacy.Reader](ctx)
			if err != nil {
				return nil, err
			}
			return NewComposite(NewTOMLReader(log), vessel), nil
		},
	})

	graft.Register(graft.Node[ports.SettingsLoader]{
		ID:        SettingsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SettingsLoader, error) {
			return NewSettingsLoader(), nil
		},
	})
}
