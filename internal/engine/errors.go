package engine

import (
	"errors"
	"fmt"
	"time"
)

// Error classifications for the execution engine boundary.
const (
	ErrTypeSchema        = "schema"
	ErrTypeNotFound      = "engine_not_found"
	ErrTypeNotAFile      = "engine_not_a_file"
	ErrTypeNotExecutable = "engine_not_executable"
	ErrTypeTransport     = "transport"
	ErrTypeExecution     = "execution_failed"
	ErrTypeProtocol      = "protocol"
	ErrTypeTimeout       = "timeout"
)

// Error represents the different failure modes of an engine round trip.
type Error struct {
	Type        string
	Message     string
	ExitCode    int    // set for execution failures
	Diagnostics string // captured diagnostic-channel text, if any
	Cause       error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsType reports whether err is an engine Error of the given type.
func IsType(err error, errType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errType
}

// Common error constructors
func NewSchemaError(column string) *Error {
	return &Error{Type: ErrTypeSchema, Message: fmt.Sprintf("missing required input column %q", column)}
}

func NewNotFoundError(path string) *Error {
	return &Error{Type: ErrTypeNotFound, Message: fmt.Sprintf("engine executable not found: %s", path)}
}

func NewNotAFileError(path string) *Error {
	return &Error{Type: ErrTypeNotAFile, Message: fmt.Sprintf("engine path is not a file: %s", path)}
}

func NewNotExecutableError(path string) *Error {
	return &Error{Type: ErrTypeNotExecutable, Message: fmt.Sprintf("engine is not executable: %s", path)}
}

func NewTransportError(message string, cause error) *Error {
	return &Error{Type: ErrTypeTransport, Message: message, Cause: cause}
}

func NewExecutionError(exitCode int, diagnostics string) *Error {
	return &Error{
		Type:        ErrTypeExecution,
		Message:     fmt.Sprintf("engine failed with exit code %d", exitCode),
		ExitCode:    exitCode,
		Diagnostics: diagnostics,
	}
}

func NewProtocolError(line string, cause error) *Error {
	return &Error{Type: ErrTypeProtocol, Message: fmt.Sprintf("malformed engine output line %q", line), Cause: cause}
}

func NewTimeoutError(timeout time.Duration) *Error {
	return &Error{Type: ErrTypeTimeout, Message: fmt.Sprintf("engine run exceeded %v", timeout)}
}
