// Package telemetry holds telemetry adapters that need no backend.
package telemetry

import (
	"context"

	"go.trai.ch/mops/internal/core/ports"
)

var (
	_ ports.Telemetry = NoOp{}
	_ ports.Vertex    = noOpVertex{}
)

// NoOp is a ports.Telemetry that records nothing.
type NoOp struct{}

// Record returns ctx unchanged and a vertex that ignores every call.
func (NoOp) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, noOpVertex{}
}

type noOpVertex struct{}

func (noOpVertex) Cached() {}

func (noOpVertex) Complete(error) {}
