package toolbelt

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the toolkit. Check with errors.Is.
var (
	// ErrToolNotFound is returned when dispatch names an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool is returned when a registration reuses a taken name.
	// The already-registered tool always stays in place.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrValidation marks argument payloads rejected before the target ran.
	ErrValidation = errors.New("validation failed")

	// ErrNoToolCalls is returned by ParseCalls when a model response carries
	// no tool calls.
	ErrNoToolCalls = errors.New("no tool calls in response")
)

// SchemaError reports an argument type that cannot be rendered as a tool
// schema. Param is the dotted path of the offending field.
type SchemaError struct {
	Param  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Param == "" {
		return "cannot derive schema: " + e.Reason
	}
	return fmt.Sprintf("cannot derive schema for %q: %s", e.Param, e.Reason)
}

// ConfigError reports an invalid tool or toolkit configuration, such as a
// contradictory policy combination or a recursive argument type. It is raised
// at construction time, never during a call.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// ValidationError describes an argument payload that failed schema validation.
// Path is the dotted location of the failure ("address.street", "tags.0");
// it is empty when the failure is not tied to a single field. Unwrap yields
// ErrValidation so errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid arguments: " + e.Reason
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(path, reason string) *ValidationError {
	return &ValidationError{Path: path, Reason: reason, Err: ErrValidation}
}

// RetryError reports an exhausted retry budget. Unwrap yields the failure of
// the final attempt.
type RetryError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts in %s: %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// UpstreamError reports a failure of a remote backend (HTTP API, MCP server)
// as opposed to a failure of the tool machinery itself. Status carries the
// HTTP status code when one exists, zero otherwise.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := "upstream failure"
	if e.Status != 0 {
		msg = fmt.Sprintf("upstream failure (status %d)", e.Status)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetryExhausted reports whether err is or wraps a RetryError.
func IsRetryExhausted(err error) bool {
	var re *RetryError
	return errors.As(err, &re)
}

// IsUpstreamError reports whether err is or wraps an UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
