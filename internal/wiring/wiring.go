// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/mops/internal/adapters/config"
	_ "go.trai.ch/mops/internal/adapters/fs"
	_ "go.trai.ch/mops/internal/adapters/legacy"
	_ "go.trai.ch/mops/internal/adapters/logger"
	_ "go.trai.ch/mops/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/mops/internal/adapters/transport"
	// Register app nodes.
	_ "go.trai.ch/mops/internal/app"
)
