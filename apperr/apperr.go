// Package apperr defines the typed error kinds and HTTP envelope used by
// the operator-facing surface (spec.md §7). Consensus code never returns
// an *Error — only request-parsing, cryptographic-usage, and
// resource-lookup failures at the edge do.
package apperr

import "net/http"

// Kind is one of the five error kinds spec.md §7 names.
type Kind string

const (
	KindBadRequest         Kind = "BadRequest"
	KindUnauthorized       Kind = "Unauthorized"
	KindForbidden          Kind = "Forbidden"
	KindNotFound           Kind = "NotFound"
	KindValidationRejected Kind = "ValidationRejected"
)

// httpStatus maps each Kind to the status code spec.md §7 assigns it.
// ValidationRejected (surfaced in batch flows as a false/null result, not
// an error) maps to 400 when it does reach the HTTP layer directly, e.g.
// a rejected /sendTransaction.
var httpStatus = map[Kind]int{
	KindBadRequest:         http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindValidationRejected: http.StatusBadRequest,
}

// Error is the structured failure type rendered as
// {error, message, payload?} by the HTTP layer.
type Error struct {
	Kind    Kind
	Message string
	Payload any
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// Status returns the HTTP status code for e.
func (e *Error) Status() int {
	if s, ok := httpStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithPayload builds an *Error with a payload attached, for responses that need
// to carry structured context (e.g. the rejected request body).
func WithPayload(kind Kind, message string, payload any) *Error {
	return &Error{Kind: kind, Message: message, Payload: payload}
}

// envelope is the wire shape of an error response.
type envelope struct {
	Error   Kind   `json:"error"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

// Envelope returns e's JSON-ready envelope.
func (e *Error) Envelope() any {
	return envelope{Error: e.Kind, Message: e.Message, Payload: e.Payload}
}

// BadRequest is a convenience constructor for the common case.
func BadRequest(message string) *Error { return New(KindBadRequest, message) }

// NotFound is a convenience constructor for the common case.
func NotFound(message string) *Error { return New(KindNotFound, message) }
