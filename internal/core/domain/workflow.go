package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ExpandAlias resolves an alias's raw definition ("run A B C") into its
// task set. The leading "run" keyword is required and discarded.
func ExpandAlias(raw string) ([]string, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 || fields[0] != "run" {
		return nil, zerr.With(ErrInvalidAliasDefinition, "definition", raw)
	}
	return fields[1:], nil
}

// Stage is one step of a Workflow: a named set of tasks executed together
// against the scheduler, with its own parallel/fail-fast policy and an
// optional condition or approval gate.
type Stage struct {
	Name      string
	Tasks     []string
	Parallel  bool
	FailFast  bool
	Condition string
	Approval  bool
	OnFailure string
}

// Workflow is an ordered sequence of stages. Stages run sequentially; within
// a stage the scheduler runs with the stage's tasks as the run set.
type Workflow struct {
	Name   string
	Stages []Stage
}
