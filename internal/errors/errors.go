package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// StructuralParse indicates malformed YAML in a comment or docstring
	StructuralParse ErrorCode = "STRUCTURAL_PARSE"
	// SourceUnavailable indicates a symbol's source could not be read or tokenized
	SourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	// ExampleCode indicates an example block failed to parse, execute or evaluate
	ExampleCode ErrorCode = "EXAMPLE_CODE"
	// AssertionMismatch indicates an example produced a value other than the documented one
	AssertionMismatch ErrorCode = "ASSERTION_MISMATCH"
	// ConfigInvalid indicates an unreadable or invalid configuration file
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// DocError represents a pydocket error with code, message, and suggestions
type DocError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a DocError with the suggested fixes registered for code.
func New(code ErrorCode, message string, cause error) *DocError {
	return &DocError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *DocError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *DocError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DocError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *DocError) WithDetails(details interface{}) *DocError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first DocError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var de *DocError
	if errors.As(err, &de) {
		return de.Code
	}
	return InternalError
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var de *DocError
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StructuralParse: {
		{
			Description: "Quote the comment text or fix the YAML so it parses as a mapping or a plain scalar",
		},
	},
	SourceUnavailable: {
		{
			Command:     "pydocket read <file.py>",
			Description: "Check that the file exists and parses as Python",
		},
	},
	AssertionMismatch: {
		{
			Description: "Paste the 'Correct value' block under the example if the new result is intended",
		},
	},
	ConfigInvalid: {
		{
			Command:     "pydocket init --force",
			Description: "Regenerate .pydocket.toml with defaults",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
