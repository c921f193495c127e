package cosmic

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration marks programmer and setup mistakes: an incomplete
// handler chain, offset pagination without a page size, streaming combined
// with response-header capture. These are never retried.
var ErrConfiguration = errors.New("configuration error")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	CodeUnauthenticated   ErrorCode = "unauthenticated"
	CodePermissionDenied  ErrorCode = "permission_denied"
	CodeNotFound          ErrorCode = "not_found"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeConflict          ErrorCode = "conflict"
	CodeGone              ErrorCode = "gone"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
	CodeCanceled          ErrorCode = "canceled"
	CodeInternal          ErrorCode = "internal"
	CodeNotImplemented    ErrorCode = "not_implemented"
	CodeUnavailable       ErrorCode = "unavailable"
	CodeDeadlineExceeded  ErrorCode = "deadline_exceeded"
	CodeUnknown           ErrorCode = "unknown"
)

// CodeForStatus maps an HTTP status code to an ErrorCode.
func CodeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidArgument
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodePermissionDenied
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case http.StatusConflict:
		return CodeConflict
	case http.StatusGone:
		return CodeGone
	case http.StatusTooManyRequests:
		return CodeResourceExhausted
	case 499:
		return CodeCanceled
	case http.StatusNotImplemented:
		return CodeNotImplemented
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return CodeUnavailable
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return CodeDeadlineExceeded
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeUnknown
}

// HTTPError is a failed HTTP exchange that matched no typed error definition.
type HTTPError struct {
	Metadata ResponseMetadata
	Body     []byte
}

// NewHTTPError builds an HTTPError from a failed response.
func NewHTTPError(resp *Response) *HTTPError {
	return &HTTPError{Metadata: resp.Metadata, Body: resp.Raw}
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("http %d", e.Metadata.Status)
	if e.Metadata.StatusText != "" {
		msg += " " + e.Metadata.StatusText
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		msg += ": " + body
	}
	return msg
}

// StatusCode returns the response status.
func (e *HTTPError) StatusCode() int { return e.Metadata.Status }

// Code maps the response status to an ErrorCode.
func (e *HTTPError) Code() ErrorCode { return CodeForStatus(e.Metadata.Status) }

// ErrorBase carries the message and response metadata of a typed domain
// error. Embed it in error types returned by ErrorDefinition.New; the hook
// stage fills in the metadata.
type ErrorBase struct {
	Message  string
	Metadata ResponseMetadata
}

// NewErrorBase returns an ErrorBase with the given message.
func NewErrorBase(message string) ErrorBase {
	return ErrorBase{Message: message}
}

func (e ErrorBase) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Metadata.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Metadata.Status, e.Message)
}

// StatusCode returns the status of the response that produced the error.
func (e ErrorBase) StatusCode() int { return e.Metadata.Status }

func (e *ErrorBase) setMetadata(md ResponseMetadata) { e.Metadata = md }

type metadataSetter interface {
	setMetadata(ResponseMetadata)
}

// statusCoder is implemented by HTTPError and by typed errors embedding
// ErrorBase.
type statusCoder interface {
	StatusCode() int
}

// Violation is one failed constraint of a validated value.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports a request or response body that does not satisfy
// its schema. Value holds a pretty-printed snapshot of the offending value.
type ValidationError struct {
	Violations []Violation
	Value      string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Path == "" {
			msgs[i] = v.Message
			continue
		}
		msgs[i] = v.Path + ": " + v.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func newValidationError(value any, violations []Violation) *ValidationError {
	snapshot, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		snapshot = []byte(fmt.Sprintf("%#v", value))
	}
	return &ValidationError{Violations: violations, Value: string(snapshot)}
}

// violationsFrom converts validator field errors to violations. prefix is
// prepended to every path, for list elements.
func violationsFrom(errs validator.ValidationErrors, prefix string) []Violation {
	out := make([]Violation, 0, len(errs))
	for _, fe := range errs {
		out = append(out, Violation{
			Path:    joinPath(prefix, fieldPath(fe.Namespace())),
			Message: formatValidationError(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	case strings.HasPrefix(path, "["):
		return prefix + path
	default:
		return prefix + "." + path
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "len":
		return fmt.Sprintf("must have length %s", ve.Param())
	case "eq":
		return fmt.Sprintf("must equal %s", ve.Param())
	case "ne":
		return fmt.Sprintf("must not equal %s", ve.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
