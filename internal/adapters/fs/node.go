package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.zr.dev/zr/internal/core/ports"
)

// HasherNodeID is the unique identifier for the input/output hasher Graft node.
const HasherNodeID graft.ID = "adapter.hasher"

// ResolverNodeID is the unique identifier for the input resolver Graft node.
const ResolverNodeID graft.ID = "adapter.resolver"

func init() {
	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(NewWalker()), nil
		},
	})

	graft.Register(graft.Node[ports.InputResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.InputResolver, error) {
			return NewResolver(), nil
		},
	})
}
