// Package errors provides structured error handling for HydroFlow.
// It implements coded errors with context and an HTTP status mapping so
// the REST layer can distinguish bad-input, not-found, and internal failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Input errors (1xx)
	CodeInvalidResourceID Code = "E101"
	CodeBadRequest        Code = "E102"
	CodeScheduleParse     Code = "E103"
	CodeInvalidTimestamp  Code = "E104"
	CodeUnknownEventKind  Code = "E105"
	CodeInvalidModel      Code = "E106"

	// Resource errors (2xx)
	CodeResourceNotFound Code = "E201"
	CodeUnknownPipe      Code = "E202"
	CodeUnknownNode      Code = "E203"
	CodeUnknownSensor    Code = "E204"

	// Simulation errors (3xx)
	CodeSimulationFailed Code = "E301"
	CodeNoQualityModel   Code = "E302"
	CodeScenarioClosed   Code = "E303"

	// Export / system errors (4xx)
	CodeExportFailed    Code = "E401"
	CodeDownloadFailed  Code = "E402"
	CodeSerialization   Code = "E403"
	CodeContextCanceled Code = "E404"

	// Unknown
	CodeUnknown Code = "E999"
)

// Error is the base error type for all HydroFlow errors.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// --- Convenience constructors ---

// InvalidResourceID reports a malformed resource identifier.
func InvalidResourceID(id string) *Error {
	return New(CodeInvalidResourceID, "invalid resource id").WithContext("id", id)
}

// NotFound reports an unknown resource identifier.
func NotFound(kind, id string) *Error {
	return New(CodeResourceNotFound, kind+" not found").WithContext("id", id)
}

// UnknownPipe reports a pipe id missing from the network link list.
func UnknownPipe(pipeID string) *Error {
	return New(CodeUnknownPipe, "pipe not in network").WithContext("pipe_id", pipeID)
}

// ScheduleParse reports a malformed leak schedule line.
func ScheduleParse(line int, err error) *Error {
	return Wrap(err, CodeScheduleParse, "leak schedule parse error").
		WithContext("line", line)
}

// InvalidTimestamp reports a timestamp that could not be parsed.
func InvalidTimestamp(value string, line int) *Error {
	return New(CodeInvalidTimestamp, "failed to parse timestamp").
		WithContext("value", value).
		WithContext("line", line)
}

// ContextCanceled reports a canceled operation.
func ContextCanceled(operation string) *Error {
	return New(CodeContextCanceled, "operation canceled").
		WithContext("operation", operation)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var hfErr *Error
	if errors.As(err, &hfErr) {
		return hfErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a resource lookup failure.
func IsNotFound(err error) bool {
	return IsCode(err, CodeResourceNotFound)
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var hfErr *Error
	if errors.As(err, &hfErr) {
		return hfErr.Code
	}
	return CodeUnknown
}

// HTTPStatus maps an error to the HTTP status the REST layer should send.
// Malformed input maps to 400, unknown resources to 404, everything else
// to 500. Payloads naming network elements that do not exist count as
// malformed input.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeInvalidResourceID, CodeBadRequest, CodeScheduleParse,
		CodeInvalidTimestamp, CodeUnknownEventKind, CodeInvalidModel,
		CodeUnknownPipe, CodeUnknownNode, CodeUnknownSensor:
		return http.StatusBadRequest
	case CodeResourceNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
