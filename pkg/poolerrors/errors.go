// Package poolerrors provides structured errors for the lease pool with error
// categorization, key-value context and stack capture.
//
// # Overview
//
// Every failure in this module is a programming error at the call site; none
// of them is retryable. The package classifies them so callers can branch on
// the category:
//   - ErrorTypeInvalidArgument: nil policy or pool, non-positive capacity,
//     nil item passed to Return
//   - ErrorTypeMisuse: double release of a lease, item access after release,
//     returning an item that is already idle
//   - ErrorTypeConfig: invalid tier tables or configuration documents
//   - ErrorTypeCreate: an item policy failed to construct an item
//
// # Basic Usage
//
//	if capacity <= 0 {
//	    return nil, poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "capacity must be positive").
//	        WithDetail("capacity", capacity)
//	}
//
//	if errors.Is(err, poolerrors.ErrMisuse) {
//	    // lease was already released
//	}
//
// # Thread Safety
//
// Error instances are not safe for concurrent modification. Finish adding
// details before sharing an error across goroutines.
package poolerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// ErrorTypeInvalidArgument represents rejected arguments
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrorTypeMisuse represents lease or item lifecycle violations
	ErrorTypeMisuse ErrorType = "misuse"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeCreate represents item construction failures
	ErrorTypeCreate ErrorType = "create"
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinels for errors.Is. A structured *Error matches the sentinel of its
// type, so callers do not need to import ErrorType constants to branch.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMisuse          = errors.New("misuse")
	ErrConfig          = errors.New("invalid configuration")
	ErrCreate          = errors.New("item creation failed")
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error
//   - Message: Human-readable description
//   - Cause: The underlying error, if any
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel matching this error's type.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Type == ErrorTypeInvalidArgument
	case ErrMisuse:
		return e.Type == ErrorTypeMisuse
	case ErrConfig:
		return e.Type == ErrorTypeConfig
	case ErrCreate:
		return e.Type == ErrorTypeCreate
	}
	return false
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
//
// Example:
//
//	err := poolerrors.New(poolerrors.ErrorTypeConfig, "tiers must be strictly increasing").
//	    WithDetail("index", i).
//	    WithDetail("threshold", t)
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, capturing the
// call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error, preserving it as the cause. If err is already
// a structured Error its stack is kept. Returns nil if err is nil.
//
// Example:
//
//	item, err := policy.Create()
//	if err != nil {
//	    return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeCreate, "policy failed to create item").
//	        WithDetail("kind", policy.Kind().String())
//	}
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks whether any error in err's chain is a structured Error of the
// given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == errType {
			return true
		}
		err = e.Cause
	}
	return false
}

// captureStack captures up to maxFrames of the call stack, skipping the
// given number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
