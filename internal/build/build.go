// Package build holds build-time information injected via linker flags.
package build

// Version is the application version.
// It defaults to "dev" and can be overwritten by linker flags.
var Version = "dev"

// Commit is the VCS commit hash the binary was built from.
var Commit = "unknown"

// Date is the build timestamp, set by the release pipeline.
var Date = "unknown"
