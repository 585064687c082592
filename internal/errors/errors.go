// Package errors provides the bot's structured error type.
// Detection code never returns these across its boundary; they surface from
// configuration, persistence and the session/CLI layers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an AppError.
type Code int

const (
	Unknown Code = iota
	Internal
	ConfigMissing
	ConfigInvalid
	TemplateDecode
	AudioStream
	AudioDevice
	CaptureFailed
	InputDispatch
	StoreFailed
	Cancelled
)

var codeNames = [...]string{
	Unknown:        "UNKNOWN",
	Internal:       "INTERNAL",
	ConfigMissing:  "CONFIG_MISSING",
	ConfigInvalid:  "CONFIG_INVALID",
	TemplateDecode: "TEMPLATE_DECODE",
	AudioStream:    "AUDIO_STREAM",
	AudioDevice:    "AUDIO_DEVICE",
	CaptureFailed:  "CAPTURE_FAILED",
	InputDispatch:  "INPUT_DISPATCH",
	StoreFailed:    "STORE_FAILED",
	Cancelled:      "CANCELLED",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("CODE(%d)", int(c))
	}
	return codeNames[c]
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the code of the first AppError in err's chain, or Unknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}

// IsCode checks if an error chain carries a specific error code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// IsRetryable reports whether the fault is transient device or capture trouble.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case AudioStream, AudioDevice, CaptureFailed:
		return true
	default:
		return false
	}
}
