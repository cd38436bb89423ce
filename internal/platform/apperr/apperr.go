// Package apperr classifies errors crossing the component boundary so the
// HTTP layer can answer with a uniform {success, error} shape.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindConfig     Kind = "CONFIGURATION_ERROR"
	KindValidation Kind = "VALIDATION_ERROR"
	KindNotFound   Kind = "NOT_FOUND"
	KindUpstream   Kind = "UPSTREAM_ERROR"
	KindConflict   Kind = "CONFLICT"
	KindInternal   Kind = "INTERNAL_ERROR"
)

// Error carries a kind, an operator-facing message and optional debug details.
type Error struct {
	Kind    Kind
	Message string
	Debug   map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDebug attaches one debug value.
func (e *Error) WithDebug(key string, v any) *Error {
	if e.Debug == nil {
		e.Debug = make(map[string]any)
	}
	e.Debug[key] = v
	return e
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Config(msg string, err error) *Error { return Wrap(KindConfig, msg, err) }
func Validation(msg string) *Error { return New(KindValidation, msg) }
func NotFound(msg string) *Error { return New(KindNotFound, msg) }
func Upstream(msg string, err error) *Error { return Wrap(KindUpstream, msg, err) }
func Conflict(msg string) *Error { return New(KindConflict, msg) }
func Internal(msg string, err error) *Error { return Wrap(KindInternal, msg, err) }

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConfig:
		return http.StatusServiceUnavailable
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the operator-facing message. Internal errors are not echoed.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == KindInternal {
			return "internal server error"
		}
		if ae.Err != nil && ae.Kind != KindConfig {
			return ae.Message + ": " + ae.Err.Error()
		}
		return ae.Message
	}
	return "internal server error"
}

// DebugOf returns the debug payload of the first *Error in the chain.
func DebugOf(err error) map[string]any {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Debug
	}
	return nil
}
