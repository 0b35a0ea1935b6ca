package transport

import (
	"context"
	"net/http"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the shared HTTP client Graft node.
const NodeID graft.ID = "adapter.http_client"

func init() {
	graft.Register(graft.Node[*http.Client]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*http.Client, error) {
			return NewClient(), nil
		},
	})
}
