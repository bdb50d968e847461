package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for tool registration and execution.
var (
	// ErrToolNameEmpty indicates a tool was defined without a name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolExecuteNil indicates a tool was defined without an execute function.
	ErrToolExecuteNil = errors.New("tool execute function cannot be nil")

	// ErrToolNotFound indicates the requested tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolAlreadyRegistered indicates a duplicate registration attempt.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrMissingArgument indicates a required argument was not provided.
	ErrMissingArgument = errors.New("missing required argument")
)

// NotFoundError wraps ErrToolNotFound with the tool name.
func NotFoundError(name string) error {
	return fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// MissingArgumentError wraps ErrMissingArgument with tool and argument names.
func MissingArgumentError(tool, arg string) error {
	return fmt.Errorf("%w: %s requires %q", ErrMissingArgument, tool, arg)
}
