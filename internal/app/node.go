package app

import (
	"context"
	"net/http"

	"github.com/grindlemire/graft"
	"go.trai.ch/mops/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/adapters/transport"          //nolint:depguard // Wired in app layer
	"go.trai.ch/mops/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			config.ManifestNodeID,
			fs.HasherNodeID,
			progrock.NodeID,
			logger.NodeID,
			transport.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	settings, err := graft.Dep[ports.SettingsLoader](ctx)
	if err != nil {
		return nil, err
	}

	manifests, err := graft.Dep[ports.ManifestReader](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.TreeHasher](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	httpClient, err := graft.Dep[*http.Client](ctx)
	if err != nil {
		return nil, err
	}

	return New(settings, manifests, hasher, telemetry, log, NewBackendsFactory(hasher, httpClient)), nil
}
