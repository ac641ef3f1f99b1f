package nix

import (
	"context"

	"github.com/grindlemire/graft"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
)

// ResolverNodeID is the unique identifier for the Nix dependency resolver Graft node.
const ResolverNodeID graft.ID = "adapter.nix_resolver"

// EnvFactoryNodeID is the unique identifier for the Nix environment factory Graft node.
const EnvFactoryNodeID graft.ID = "adapter.nix_env_factory"

func init() {
	graft.Register(graft.Node[ports.DependencyResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DependencyResolver, error) {
			return NewResolver()
		},
	})

	graft.Register(graft.Node[ports.EnvironmentFactory]{
		ID:        EnvFactoryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ResolverNodeID},
		Run: func(ctx context.Context) (ports.EnvironmentFactory, error) {
			resolver, err := graft.Dep[ports.DependencyResolver](ctx)
			if err != nil {
				return nil, err
			}
			return NewEnvFactoryWithCache(resolver, domain.DefaultEnvCachePath()), nil
		},
	})
}
