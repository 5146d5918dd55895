package cli

import (
	"errors"
	"fmt"

	"mercator-hq/relay/pkg/budget"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/models"
	"mercator-hq/relay/pkg/routing"
)

// Process exit codes.
const (
	ExitOK                 = 0
	ExitError              = 1
	ExitConfig             = 2
	ExitBudgetExceeded     = 3
	ExitAllProvidersFailed = 4
)

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error to the process exit code. Budget rejections and
// provider outages get distinct codes so scripts can tell a billing stop
// from a retryable failure.
func ExitCode(err error) int {
	var validation config.ValidationError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, budget.ErrBudgetExceeded):
		return ExitBudgetExceeded
	case errors.Is(err, routing.ErrAllProvidersFailed):
		return ExitAllProvidersFailed
	case errors.As(err, &validation), errors.Is(err, models.ErrModelNotFound):
		return ExitConfig
	default:
		return ExitError
	}
}
