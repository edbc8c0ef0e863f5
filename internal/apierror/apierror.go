package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind is the machine-readable error class surfaced to clients.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindUnauthorized    Kind = "unauthorized"
	KindConflict        Kind = "conflict"
	KindValidation      Kind = "validation"
	KindUpstreamFailure Kind = "upstream_failure"
	KindLowConfidence   Kind = "low_confidence"
	KindNoPrediction    Kind = "no_prediction"
	KindInternal        Kind = "internal"
)

// Error carries a kind plus a human-readable detail. Stack traces and wrapped
// causes never reach the response body.
type Error struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Detail + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

func NotFound(detail string) *Error   { return New(KindNotFound, detail) }
func Forbidden(detail string) *Error  { return New(KindForbidden, detail) }
func Conflict(detail string) *Error   { return New(KindConflict, detail) }
func Validation(detail string) *Error { return New(KindValidation, detail) }

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindLowConfidence, KindNoPrediction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   *Error `json:"error"`
}

// Write renders err as the terminal JSON response. Unknown error types are
// collapsed into an internal error with a generic detail.
func Write(w http.ResponseWriter, err error) {
	apiErr := From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Kind.Status())
	json.NewEncoder(w).Encode(errorBody{Success: false, Error: apiErr})
}

// From extracts an *Error from err, or wraps it as internal.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Kind: KindInternal, Detail: "something went wrong"}
}
