package workflow

import "errors"

var (
	// ErrWorkflowViolation covers decisions against already-decided or
	// inactive steps and illegal status transitions. No state changes when
	// it is returned.
	ErrWorkflowViolation = errors.New("workflow violation")

	// ErrUnknownStep is returned when a decision names a step order the
	// workflow does not define.
	ErrUnknownStep = errors.New("unknown workflow step")
)
