// Package daemonv1 carries the wire messages and service stubs for zr's
// optional warm-cache daemon. The daemon is a supplemented, non-core
// collaborator (spec.md §1 treats "remote cache backends" and toolchain
// concerns as external); its transport is real gRPC over a Unix domain
// socket, but the messages below are plain Go structs paired with a JSON
// wire codec (see codec.go) rather than protoc-generated types, since this
// module is built without running the protobuf compiler.
package daemonv1

// PingRequest carries no fields; Ping is a liveness probe.
type PingRequest struct{}

// PingResponse reports how long the daemon will idle before self-terminating.
type PingResponse struct {
	IdleRemainingSeconds int64 `json:"idle_remaining_seconds"`
}

// StatusRequest carries no fields.
type StatusRequest struct{}

// StatusResponse reports the daemon's process and activity state.
type StatusResponse struct {
	Running              bool  `json:"running"`
	Pid                  int32 `json:"pid"`
	UptimeSeconds        int64 `json:"uptime_seconds"`
	LastActivityUnix     int64 `json:"last_activity_unix"`
	IdleRemainingSeconds int64 `json:"idle_remaining_seconds"`
}

// ShutdownRequest asks the daemon to terminate.
type ShutdownRequest struct {
	Graceful bool `json:"graceful"`
}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Success bool `json:"success"`
}

// ConfigMtime pairs a config file path with its last-observed modification time.
type ConfigMtime struct {
	Path          string `json:"path"`
	MtimeUnixNano int64  `json:"mtime_unix_nano"`
}

// GetGraphRequest asks the daemon for a lowered graph for cwd, along with the
// client's view of config file mtimes so the daemon can detect staleness.
type GetGraphRequest struct {
	Cwd          string         `json:"cwd"`
	ConfigMtimes []*ConfigMtime `json:"config_mtimes,omitempty"`
}

// TaskProto is the wire representation of a domain.Task.
type TaskProto struct {
	Name            string            `json:"name"`
	Command         string            `json:"command"`
	Inputs          []string          `json:"inputs,omitempty"`
	Outputs         []string          `json:"outputs,omitempty"`
	Tools           map[string]string `json:"tools,omitempty"`
	Dependencies    []string          `json:"dependencies,omitempty"`
	Environment     map[string]string `json:"environment,omitempty"`
	WorkingDir      string            `json:"working_dir,omitempty"`
	RebuildStrategy string            `json:"rebuild_strategy,omitempty"`
}

// GetGraphResponse carries the daemon's lowered, validated graph.
type GetGraphResponse struct {
	CacheHit bool         `json:"cache_hit"`
	Root     string       `json:"root"`
	Tasks    []*TaskProto `json:"tasks,omitempty"`
}

// GetEnvironmentRequest asks the daemon to hydrate a toolchain environment.
type GetEnvironmentRequest struct {
	EnvId string            `json:"env_id"`
	Tools map[string]string `json:"tools,omitempty"`
}

// GetEnvironmentResponse carries the hydrated environment.
type GetEnvironmentResponse struct {
	CacheHit bool     `json:"cache_hit"`
	EnvVars  []string `json:"env_vars,omitempty"`
}

// GetInputHashRequest asks the daemon's watch-driven hash cache for a task's
// most recently computed input hash, if any.
type GetInputHashRequest struct {
	TaskName    string            `json:"task_name"`
	Root        string            `json:"root"`
	Environment map[string]string `json:"environment,omitempty"`
}

// GetInputHashResponse_State mirrors ports.InputHashState across the wire.
type GetInputHashResponse_State int32 //nolint:revive // matches protoc-gen-go naming convention

const (
	// GetInputHashResponse_UNKNOWN means the cache has no entry for this task.
	GetInputHashResponse_UNKNOWN GetInputHashResponse_State = 0 //nolint:revive,stylecheck
	// GetInputHashResponse_READY means Hash is a valid, current input hash.
	GetInputHashResponse_READY GetInputHashResponse_State = 1 //nolint:revive,stylecheck
	// GetInputHashResponse_PENDING means a hash computation is in flight.
	GetInputHashResponse_PENDING GetInputHashResponse_State = 2 //nolint:revive,stylecheck
)

// GetInputHashResponse carries the cached input hash state.
type GetInputHashResponse struct {
	State GetInputHashResponse_State `json:"state"`
	Hash  string                     `json:"hash"`
}

// ExecuteTaskRequest asks the daemon to run a task's command through its
// warm, already-hydrated executor.
type ExecuteTaskRequest struct {
	TaskName        string            `json:"task_name"`
	Command         string            `json:"command"`
	WorkingDir      string            `json:"working_dir"`
	TaskEnvironment map[string]string `json:"task_environment,omitempty"`
	NixEnvironment  []string          `json:"nix_environment,omitempty"`
	PtyRows         int32             `json:"pty_rows"`
	PtyCols         int32             `json:"pty_cols"`
}

// ExecuteTaskResponse streams one chunk of combined stdout/stderr output.
type ExecuteTaskResponse struct {
	Data []byte `json:"data"`
}
