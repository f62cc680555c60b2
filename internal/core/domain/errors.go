package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates a task state change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid task transition")

	// Dispatch Errors.

	// ErrNotAllowed indicates the allow-list rejected the command.
	ErrNotAllowed = errors.New("command not allowed")

	// ErrUnknownTool indicates the dispatcher does not recognise the tool name.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingParameter indicates a required tool parameter is absent or empty.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter indicates a tool parameter has the wrong shape.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrRateLimited indicates the submission rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Host Errors.

	// ErrHostExecution indicates the command host raised an error.
	ErrHostExecution = errors.New("command execution failed")

	// ErrNoActiveContext indicates the host has no workspace or editor
	// context to report. Callers treat it as "unavailable", not a failure.
	ErrNoActiveContext = errors.New("no active context")

	// ErrUnknownCommand indicates the host has no command with that name.
	ErrUnknownCommand = errors.New("unknown command")
)

// FailureReason is the machine-checkable cause attached to a failed tool result.
type FailureReason string

// Failure reasons reported by the dispatcher.
const (
	ReasonNotAllowed       FailureReason = "NotAllowed"
	ReasonUnknownTool      FailureReason = "UnknownTool"
	ReasonMissingParameter FailureReason = "MissingParameter"
	ReasonInvalidParameter FailureReason = "InvalidParameter"
	ReasonHostExecution    FailureReason = "HostExecutionFailure"
	ReasonRateLimited      FailureReason = "RateLimited"
	ReasonInternal         FailureReason = "Internal"
)

// ReasonFor classifies err into a FailureReason.
func ReasonFor(err error) FailureReason {
	switch {
	case errors.Is(err, ErrNotAllowed):
		return ReasonNotAllowed
	case errors.Is(err, ErrUnknownTool):
		return ReasonUnknownTool
	case errors.Is(err, ErrMissingParameter):
		return ReasonMissingParameter
	case errors.Is(err, ErrInvalidParameter):
		return ReasonInvalidParameter
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrHostExecution):
		return ReasonHostExecution
	default:
		return ReasonInternal
	}
}
