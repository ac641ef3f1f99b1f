package domain

import "time"

// RebuildStrategy controls when a task should execute.
type RebuildStrategy string

const (
	// RebuildOnChange executes the task only when inputs have changed (default).
	RebuildOnChange RebuildStrategy = "on-change"

	// RebuildAlways executes the task on every run, bypassing the cache.
	RebuildAlways RebuildStrategy = "always"
)

// Retry describes the retry-with-backoff policy applied by the Process
// Supervisor when a task's command fails or times out.
type Retry struct {
	// Max is the maximum number of retry attempts after the first. Zero means
	// no retry.
	Max uint32
	// DelayMS is the base delay, in milliseconds, before a retry attempt.
	DelayMS uint64
	// Exponential doubles DelayMS per attempt (attempt 0-indexed) when true.
	Exponential bool
}

// Delay returns the wait duration before the given 0-indexed retry attempt.
func (r Retry) Delay(attempt uint32) time.Duration {
	ms := r.DelayMS
	if r.Exponential {
		ms <<= attempt
	}
	return time.Duration(ms) * time.Millisecond
}

// RequiredTool names a toolchain a task depends on, by kind and version
// (e.g. kind "go", version "1.21"), resolved by an EnvironmentFactory.
type RequiredTool struct {
	Kind    string
	Version string
}

// Task represents a named unit of work in the dependency graph.
//
// Tasks with a non-empty Command are "Exec" tasks: the Process Supervisor and
// Cache Store apply to them. Tasks with an empty Command are "Meta" tasks:
// pure dependency aggregators with no process to run and nothing to cache.
//
// It uses InternedString for fields that are frequently repeated to save memory.
type Task struct {
	Name InternedString

	// Command is the verbatim shell command line, passed uninterpreted to
	// the platform shell (spec §4.F, §1 Non-goals: the core never parses
	// command strings); empty marks a meta task.
	Command string

	// Inputs and Outputs drive file-granularity fingerprinting for the
	// on-change rebuild strategy; they are not part of the declared
	// fingerprint inputs described by the Fingerprint Hasher contract unless
	// referenced through an explicit ${file.hash(path)} expression.
	Inputs  []InternedString
	Outputs []InternedString

	Tools map[string]string

	// Dependencies is the union of ParallelDeps and SerialDeps, used as the
	// graph's edge set. SerialDeps additionally constrains execution order
	// among themselves regardless of scheduler parallelism.
	Dependencies []InternedString
	ParallelDeps []InternedString
	SerialDeps   []InternedString

	Environment map[string]string
	WorkingDir  InternedString

	RebuildStrategy RebuildStrategy

	// Timeout bounds execution; zero means unbounded.
	Timeout time.Duration

	Retry Retry

	// AllowFailure suppresses error propagation to dependents/aggregate
	// status on a Failed or TimedOut terminal, without suppressing recording.
	AllowFailure bool

	// Condition is an expression string evaluated by the Expression Evaluator
	// before scheduling; a false result transitions the task directly to
	// Skipped without invoking the Process Supervisor.
	Condition string

	CacheEnabled bool

	// MaxConcurrent bounds how many instances of this task name may run
	// concurrently; zero means unlimited. Relevant chiefly to matrix
	// variants sharing a base name.
	MaxConcurrent uint32

	MaxCPUCores    uint32
	MaxMemoryBytes uint64

	RequiredTools []RequiredTool
	Tags          []string

	// Matrix, when non-nil, marks this task as a template to be expanded by
	// the Task Model & Graph Builder into one variant per element of the
	// Cartesian product of its values.
	Matrix map[string][]string
}

// IsMeta reports whether the task has no command and is therefore a pure
// dependency aggregator, ineligible for caching or execution.
func (t Task) IsMeta() bool {
	return t.Command == ""
}
