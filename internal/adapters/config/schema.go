package config

// WorkspaceFile represents the structure of the zr.work.yaml configuration file.
type WorkspaceFile struct {
	Version  string            `yaml:"version"`
	Root     string            `yaml:"root"`
	Tools    map[string]string `yaml:"tools"`
	Projects []string          `yaml:"projects"`
	Ignore   []string          `yaml:"ignore"`
	Resources ResourcesDTO     `yaml:"resources"`
}

// ConfigFile represents the structure of the zr.yaml configuration file.
type ConfigFile struct {
	Version  string                  `yaml:"version"`
	Project  string                  `yaml:"project"`
	Root     string                  `yaml:"root"`
	Tools    map[string]string       `yaml:"tools"`
	Tasks    map[string]*TaskDTO     `yaml:"tasks"`
	Workflow map[string]WorkflowDTO  `yaml:"workflow"`
	Profile  map[string]ProfileDTO   `yaml:"profile"`
	Matrix   map[string]MatrixDTO    `yaml:"matrix"`
	Alias    map[string]string       `yaml:"alias"`
	Template map[string]*TaskDTO     `yaml:"template"`
	Resources ResourcesDTO           `yaml:"resources"`
}

// RetryDTO configures the Process Supervisor's retry-with-backoff policy.
type RetryDTO struct {
	Max         uint32 `yaml:"max"`
	DelayMS     uint64 `yaml:"delay_ms"`
	Exponential bool   `yaml:"exponential"`
}

// ResourcesDTO carries global concurrency caps from the [resources] section.
type ResourcesDTO struct {
	MaxConcurrent uint32 `yaml:"max_concurrent"`

	// TagConcurrency bounds how many tasks sharing a given tag may run at
	// once, independent of MaxConcurrent and any per-task cap.
	TagConcurrency map[string]uint32 `yaml:"tag_concurrency"`
}

// MatrixDTO is a named matrix referenced by a task's `matrix` field.
type MatrixDTO map[string][]string

// ProfileDTO carries an overlay applied over tasks and env for a named profile.
type ProfileDTO struct {
	Env  map[string]string  `yaml:"env"`
	Task map[string]TaskDTO `yaml:"task"`
}

// StageDTO is one stage of a workflow: a set of tasks with their own
// parallel/fail-fast policy and an optional approval gate.
type StageDTO struct {
	Name       string   `yaml:"name"`
	Tasks      []string `yaml:"tasks"`
	Parallel   *bool    `yaml:"parallel"`
	FailFast   *bool    `yaml:"fail_fast"`
	Condition  string   `yaml:"condition"`
	Approval   bool     `yaml:"approval"`
	OnFailure  string   `yaml:"on_failure"`
}

// WorkflowDTO is an ordered sequence of stages.
type WorkflowDTO struct {
	Stages []StageDTO `yaml:"stages"`
}

// TaskDTO represents a task definition in the configuration.
type TaskDTO struct {
	Input       []string          `yaml:"input"`
	Cmd         string            `yaml:"cmd"`
	Target      []string          `yaml:"target"`
	Tools       []string          `yaml:"tools"`
	DependsOn   []string          `yaml:"dependsOn"`
	SerialDeps  []string          `yaml:"serialDeps"`
	Environment map[string]string `yaml:"environment"`
	WorkingDir  string            `yaml:"workingDir"`
	Rebuild     string            `yaml:"rebuild"`

	// Template is the name of a [template.<name>] this task inlines before
	// its own fields are applied as overrides.
	Template string `yaml:"template"`

	TimeoutMS     uint64            `yaml:"timeout_ms"`
	Retry         RetryDTO          `yaml:"retry"`
	AllowFailure  bool              `yaml:"allow_failure"`
	Condition     string            `yaml:"condition"`
	CacheEnabled  *bool             `yaml:"cache"`
	MaxConcurrent uint32            `yaml:"max_concurrent"`
	MaxCPUCores   uint32            `yaml:"max_cpu_cores"`
	MaxMemoryMB   uint64            `yaml:"max_memory_mb"`
	Tags          []string          `yaml:"tags"`
	Matrix        map[string][]string `yaml:"matrix"`
}
