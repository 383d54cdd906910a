package domain

import (
	"errors"
	"fmt"
)

// Precondition failures. These abort an operation before anything
// destructive has happened and are surfaced to the immediate caller.
var (
	// ErrMissingCreateCommand means the container was not created with
	// a recorded command and cannot be safely recreated.
	ErrMissingCreateCommand = errors.New("container has no recorded create command, cannot safely recreate")

	// ErrPullStart means the pull backend did not return a session id.
	ErrPullStart = errors.New("pull did not return a session id")

	// ErrEmptyImageRef means an image operation was requested without
	// an image reference.
	ErrEmptyImageRef = errors.New("image reference is empty")
)

// PullFailedError reports a pull session that completed with
// success=false.
type PullFailedError struct {
	Image string
}

func (e *PullFailedError) Error() string {
	return fmt.Sprintf("failed to pull image %s", e.Image)
}

// RecreateError reports a container create call that returned an error
// field, optionally with details from the backend.
type RecreateError struct {
	Name    string
	Reason  string
	Details string
}

func (e *RecreateError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("failed to recreate container %s: %s (%s)", e.Name, e.Reason, e.Details)
	}
	return fmt.Sprintf("failed to recreate container %s: %s", e.Name, e.Reason)
}
