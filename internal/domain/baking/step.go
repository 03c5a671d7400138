package baking

import (
	"errors"
	"fmt"
	"strings"
)

type StepStatus string

const (
	StepPending    StepStatus = "PENDING"
	StepInProgress StepStatus = "IN_PROGRESS"
	StepCompleted  StepStatus = "COMPLETED"
	StepSkipped    StepStatus = "SKIPPED"
	StepFailed     StepStatus = "FAILED"
)

func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepSkipped || s == StepFailed
}

type StepAction string

const (
	ActionStart    StepAction = "start"
	ActionComplete StepAction = "complete"
	ActionSkip     StepAction = "skip"
	ActionFail     StepAction = "fail"
)

// ErrInvalidTransition is returned for any action the current status does not allow.
var ErrInvalidTransition = errors.New("invalid step transition")

// StartPolicy decides what starting an already running step does.
type StartPolicy string

const (
	// StartLenient re-stamps the start time of an IN_PROGRESS step.
	StartLenient StartPolicy = "lenient"
	// StartStrict rejects starting an IN_PROGRESS step.
	StartStrict StartPolicy = "strict"
)

func ParseStartPolicy(raw string) (StartPolicy, error) {
	switch StartPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StartLenient:
		return StartLenient, nil
	case StartStrict:
		return StartStrict, nil
	default:
		return "", fmt.Errorf("unknown start policy %q", raw)
	}
}

// UnknownParameterPolicy decides what completing a step with an actual value
// for a parameter the step never planned does.
type UnknownParameterPolicy string

const (
	UnknownParameterSkip   UnknownParameterPolicy = "skip"
	UnknownParameterReject UnknownParameterPolicy = "reject"
)

func ParseUnknownParameterPolicy(raw string) (UnknownParameterPolicy, error) {
	switch UnknownParameterPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", UnknownParameterSkip:
		return UnknownParameterSkip, nil
	case UnknownParameterReject:
		return UnknownParameterReject, nil
	default:
		return "", fmt.Errorf("unknown parameter policy %q", raw)
	}
}

// transitions lists, per action, the statuses it may leave from.
// Restarting IN_PROGRESS is handled by the start policy.
var transitions = map[StepAction]struct {
	from []StepStatus
	to   StepStatus
}{
	ActionStart:    {from: []StepStatus{StepPending}, to: StepInProgress},
	ActionComplete: {from: []StepStatus{StepPending, StepInProgress}, to: StepCompleted},
	ActionSkip:     {from: []StepStatus{StepPending, StepInProgress}, to: StepSkipped},
	ActionFail:     {from: []StepStatus{StepInProgress}, to: StepFailed},
}

// NextStatus returns the status a step moves to when action is applied.
func NextStatus(current StepStatus, action StepAction, policy StartPolicy) (StepStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return current, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	if action == ActionStart && current == StepInProgress && policy != StartStrict {
		return StepInProgress, nil
	}
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return current, fmt.Errorf("%w: cannot %s a step that is %s", ErrInvalidTransition, action, current)
}
