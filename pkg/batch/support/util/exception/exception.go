// Package exception provides the error type shared by the loader, engine and configuration modules.
// Errors carry the module they originate from and wrap the underlying cause, so
// errors.Is / errors.As see through them.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// BatchError is an error raised by one of the framework modules.
type BatchError struct {
	// Module indicates where the error occurred (e.g., "loader", "gorm", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewBatchError creates a new BatchError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap; may be nil.
func NewBatchError(module, message string, originalErr error) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf creates a new BatchError using a format string.
// If the last argument is an error it becomes OriginalErr and is not passed to fmt.Sprintf.
//
// Example:
//
//	NewBatchErrorf("gorm", "failed to insert into %s", "response_events", err)
//	-> message: "failed to insert into response_events", originalErr: err
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return &BatchError{
		Module:      module,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsBatchError reports whether any error in err's chain is a *BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}

// ModuleOf returns the module of the first *BatchError in err's chain, or "" if there is none.
func ModuleOf(err error) string {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Module
	}
	return ""
}

// ExtractErrorMessage returns the Message field for a BatchError and err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := err.(*BatchError); ok {
		return be.Message
	}
	return err.Error()
}
