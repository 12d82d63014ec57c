package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// AppError is the single structured error type used throughout the engine.
// Every layer (core, backends, interfaces) returns *AppError so that HTTP
// status mapping, logging, and metrics labeling stay consistent.
type AppError struct {
	Code    ErrorCode
	Message string
	Detail  string
	Cause   error
	Stack   string
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s(%d)] %s: %s", e.Code.String(), int(e.Code), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s(%d)] %s", e.Code.String(), int(e.Code), e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetail returns a shallow copy with Detail set.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// New constructs a fresh AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Stack: captureStack(1)}
}

// Newf constructs a fresh AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack(1)}
}

// Wrap constructs an AppError wrapping an existing error. Returns nil if err
// is nil so it can be used inline in a return statement. Preserves the
// original code when the caller passes CodeUnknown and err is already an
// *AppError, so cross-layer propagation never loses the original category.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err, Stack: captureStack(1)}
}

// IsCode reports whether any error in err's chain is an *AppError with code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err's chain carries CodeNotFound.
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

// IsCancelled reports whether err's chain carries CodeCancelled.
func IsCancelled(err error) bool { return IsCode(err, CodeCancelled) }

// GetCode extracts the ErrorCode from the first *AppError in err's chain, or
// CodeUnknown when none is present.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Convenience factories for the most common error conditions.

func NotFound(message string) *AppError       { return New(CodeNotFound, message) }
func InvalidRequest(message string) *AppError { return New(CodeInvalidRequest, message) }
func Internal(message string) *AppError       { return New(CodeInternal, message) }
func Cancelled(message string) *AppError      { return New(CodeCancelled, message) }
