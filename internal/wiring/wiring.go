// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.zr.dev/zr/internal/adapters/cas"
	_ "go.zr.dev/zr/internal/adapters/config"
	_ "go.zr.dev/zr/internal/adapters/daemon"
	_ "go.zr.dev/zr/internal/adapters/fs"
	_ "go.zr.dev/zr/internal/adapters/logger"
	_ "go.zr.dev/zr/internal/adapters/nix"
	_ "go.zr.dev/zr/internal/adapters/shell"
	_ "go.zr.dev/zr/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.zr.dev/zr/internal/app"
	_ "go.zr.dev/zr/internal/engine/scheduler"
)
