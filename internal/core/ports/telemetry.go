package ports

import "context"

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records units of work such as package acquisitions.
type Telemetry interface {
	// Record starts a new vertex.
	Record(ctx context.Context, name string) (context.Context, Vertex)
}

// Vertex is one recorded unit of work.
type Vertex interface {
	// Cached marks the vertex as satisfied without doing the work.
	Cached()
	// Complete finishes the vertex, failed when err is non-nil.
	Complete(err error)
}
