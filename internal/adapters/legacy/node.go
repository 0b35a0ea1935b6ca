package legacy

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mops/internal/adapters/logger"
	"go.trai.ch/mops/internal/core/ports"
)

// NodeID is the unique identifier for the legacy manifest reader Graft node.
const NodeID graft.ID = "adapter.legacy"

func init() {
	graft.Register(graft.Node[*Reader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Reader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewReader(DhallDecoder{}, log), nil
		},
	})
}
