package ports

import "context"

// EnvironmentFactory constructs hermetic process environments from a task's
// declared tools (alias -> "package@version" specs), concretely implemented
// by internal/adapters/nix.EnvFactory against the Nix package set.
//
//go:generate mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentFactory interface {
	// GetEnvironment resolves tools into a set of "KEY=VALUE" environment
	// variables suitable for process execution.
	GetEnvironment(ctx context.Context, tools map[string]string) ([]string, error)
}

// DependencyResolver resolves a tool alias and version to the Nixpkgs commit
// hash and attribute path that provide it, concretely implemented by
// internal/adapters/nix.Resolver against the NixHub API.
type DependencyResolver interface {
	// Resolve returns the Nixpkgs commit hash and attribute path for alias at
	// version.
	Resolve(ctx context.Context, alias, version string) (commitHash, attrPath string, err error)
}
