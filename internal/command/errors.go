package command

import (
	"errors"
	"fmt"

	"github.com/conn-castle/package-console/internal/messages"
)

// ErrorCategory classifies a HostError for the host.
type ErrorCategory string

// Error categories.
const (
	CategoryNotSpecified     ErrorCategory = "NotSpecified"
	CategoryInvalidOperation ErrorCategory = "InvalidOperation"
	CategoryInvalidArgument  ErrorCategory = "InvalidArgument"
	CategoryObjectNotFound   ErrorCategory = "ObjectNotFound"
)

// Fixed error identifiers.
const (
	ErrorIDNoActiveWorkspace   = "NoActiveWorkspace"
	ErrorIDNoCompatibleProject = "NoCompatibleProject"
	ErrorIDProjectNotFound     = "ProjectNotFound"
	ErrorIDCommandFailed       = "CommandFailed"
	ErrorIDCommandPanicked     = "CommandPanicked"
)

// ErrAlreadyExecuted is returned when a Runtime is asked to execute a second time.
var ErrAlreadyExecuted = errors.New(messages.CommandAlreadyExecuted)

// HostError is the error record reported to the host.
type HostError struct {
	ID       string
	Category ErrorCategory
	// Target names the object the failure concerns, if any.
	Target any
	// Err is the innermost cause.
	Err error
	// Detail is the full message of the original error chain when it differs from Err.
	Detail      string
	Terminating bool
}

func (e *HostError) Error() string {
	if e.Err == nil {
		return e.ID
	}
	return e.Err.Error()
}

// Unwrap returns the cause.
func (e *HostError) Unwrap() error {
	return e.Err
}

// AsHostError extracts a HostError from err.
func AsHostError(err error) (*HostError, bool) {
	var he *HostError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// Innermost follows the Unwrap chain to its last error. Joined errors stop the walk.
func Innermost(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return err
}

// NewNoActiveWorkspaceError returns the fatal error reported when no workspace is open.
func NewNoActiveWorkspaceError() *HostError {
	return &HostError{
		ID:          ErrorIDNoActiveWorkspace,
		Category:    CategoryInvalidOperation,
		Err:         errors.New(messages.WorkspaceNotOpen),
		Terminating: true,
	}
}

// NewNoCompatibleProjectError returns the fatal error reported when no project can be used.
func NewNoCompatibleProjectError() *HostError {
	return &HostError{
		ID:          ErrorIDNoCompatibleProject,
		Category:    CategoryInvalidOperation,
		Err:         errors.New(messages.WorkspaceNoCompatibleProject),
		Terminating: true,
	}
}

// NewProjectNotFoundError reports a named project missing from the workspace.
func NewProjectNotFoundError(name string) *HostError {
	return &HostError{
		ID:          ErrorIDProjectNotFound,
		Category:    CategoryObjectNotFound,
		Target:      name,
		Err:         fmt.Errorf(messages.WorkspaceProjectNotFoundFmt, name),
		Terminating: true,
	}
}

// terminatingError converts a failure escaping command logic into a terminating HostError.
// HostErrors pass through; anything else is unwrapped to its innermost cause.
func terminatingError(err error) *HostError {
	if he, ok := AsHostError(err); ok {
		he.Terminating = true
		return he
	}
	inner := Innermost(err)
	he := &HostError{
		ID:          ErrorIDCommandFailed,
		Category:    CategoryNotSpecified,
		Err:         inner,
		Terminating: true,
	}
	if inner != err {
		he.Detail = err.Error()
	}
	return he
}

func panicError(recovered any) *HostError {
	if err, ok := recovered.(error); ok {
		he := terminatingError(err)
		he.ID = ErrorIDCommandPanicked
		return he
	}
	return &HostError{
		ID:          ErrorIDCommandPanicked,
		Category:    CategoryNotSpecified,
		Err:         fmt.Errorf(messages.CommandPanicFmt, recovered),
		Terminating: true,
	}
}
