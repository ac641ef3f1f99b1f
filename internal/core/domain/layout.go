package domain

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DaemonSocketName is the name of the daemon's Unix domain socket file.
	DaemonSocketName = "daemon.sock"

	// DaemonPIDName is the name of the daemon's PID file.
	DaemonPIDName = "daemon.pid"

	// DaemonLogName is the name of the daemon's log file.
	DaemonLogName = "daemon.log"

	// SocketPerm is the permission mode applied to the daemon's Unix domain
	// socket so only the owning user can connect.
	SocketPerm = 0o600

	// DaemonInactivityTimeout is how long the daemon waits without receiving a
	// request before it shuts itself down.
	DaemonInactivityTimeout = 30 * time.Minute

	// WatchDebounceWindow is the default coalescing window the Watch
	// Coordinator holds filesystem events for before mapping them to
	// affected workspace members and triggering a re-run.
	WatchDebounceWindow = 200 * time.Millisecond

	// ZrDirName is the name of the internal workspace directory.
	ZrDirName = ".zr"

	// StoreDirName is the name of the content addressable store directory.
	StoreDirName = "store"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// BuildCacheDirName is the name of the build-result cache directory,
	// nested under the cache root alongside the NixHub and environment
	// caches. Holds one <fingerprint>.meta / <fingerprint>.out pair per
	// cached task run, sharded into subdirectories by fingerprint prefix.
	BuildCacheDirName = "builds"

	// FingerprintShardLen is the number of leading fingerprint characters
	// used as the sharding subdirectory, so a single directory never holds
	// more than a small fraction of all cache entries.
	FingerprintShardLen = 2

	// NixHubDirName is the name of the NixHub cache directory.
	NixHubDirName = "nixhub"

	// EnvDirName is the name of the environment cache directory.
	EnvDirName = "environments"

	// ZrFileName is the name of the project configuration file.
	ZrFileName = "zr.yaml"

	// WorkFileName is the name of the workspace configuration file.
	WorkFileName = "zr.work.yaml"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultZrPath returns the default root directory for zr metadata.
func DefaultZrPath() string {
	return ZrDirName
}

// DefaultStorePath returns the default path for the content addressable store.
// It joins .zr and store.
func DefaultStorePath() string {
	return filepath.Join(ZrDirName, StoreDirName)
}

// DefaultNixHubCachePath returns the default path for the NixHub cache.
// It joins .zr, cache, and nixhub.
func DefaultNixHubCachePath() string {
	return filepath.Join(ZrDirName, CacheDirName, NixHubDirName)
}

// DefaultEnvCachePath returns the default path for the environment cache.
// It joins .zr, cache, and environments.
func DefaultEnvCachePath() string {
	return filepath.Join(ZrDirName, CacheDirName, EnvDirName)
}

// DefaultBuildCachePath returns the default path for the build-result cache.
// It joins .zr, cache, and builds.
func DefaultBuildCachePath() string {
	return filepath.Join(ZrDirName, CacheDirName, BuildCacheDirName)
}

// CacheEntryShard returns the sharding subdirectory for a fingerprint: its
// first FingerprintShardLen characters, or the whole fingerprint if shorter.
func CacheEntryShard(fingerprint string) string {
	if len(fingerprint) <= FingerprintShardLen {
		return fingerprint
	}
	return fingerprint[:FingerprintShardLen]
}

// DefaultDebugLogPath returns the default path for the debug log.
// It joins .zr and debug.log.
func DefaultDebugLogPath() string {
	return filepath.Join(ZrDirName, DebugLogFile)
}

// daemonRuntimeDir returns the directory the daemon keeps its socket, PID,
// and log files in. It prefers the user's cache directory so the path stays
// short and stable regardless of which project root the daemon was spawned
// from; it falls back to a temp directory if the cache directory can't be
// determined.
func daemonRuntimeDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, ZrDirName)
}

// DefaultDaemonSocketPath returns the default path for the daemon's Unix
// domain socket.
func DefaultDaemonSocketPath() string {
	return filepath.Join(daemonRuntimeDir(), DaemonSocketName)
}

// DefaultDaemonPIDPath returns the default path for the daemon's PID file.
func DefaultDaemonPIDPath() string {
	return filepath.Join(daemonRuntimeDir(), DaemonPIDName)
}

// DefaultDaemonLogPath returns the default path for the daemon's log file.
func DefaultDaemonLogPath() string {
	return filepath.Join(daemonRuntimeDir(), DaemonLogName)
}
