package errors

import (
	stderrors "errors"
	"fmt"
)

// Process exit codes returned by the CLI.
const (
	ExitOK     = 0
	ExitFatal  = 1
	ExitConfig = 2
)

// Error is a coded error carrying the operation that failed.
type Error struct {
	// Code classifies the failure.
	Code ErrorCode

	// Op is the operation that failed (e.g. "resolve branch", "list bucket").
	Op string

	// Message is an optional human-readable detail.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Message != "" {
		if msg != "" {
			msg += ": "
		}
		msg += e.Message
	}
	if e.Err != nil {
		if msg != "" {
			return fmt.Sprintf("%s: %v", msg, e.Err)
		}
		return e.Err.Error()
	}
	if msg == "" {
		return string(e.Code)
	}
	return msg
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause.
func New(code ErrorCode, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and operation. It returns nil if err is nil.
func Wrap(err error, code ErrorCode, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain,
// or CodeUnknown when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsRetryable reports whether any *Error in err's chain carries a retryable code.
func IsRetryable(err error) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Code.Retryable() {
			return true
		}
		err = e.Err
	}
	return false
}

// ExitCode maps an error returned from a run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if CodeOf(err) == CodeInvalidConfig {
		return ExitConfig
	}
	return ExitFatal
}

// Standard library helpers, re-exported for callers importing this package as errors.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
)
