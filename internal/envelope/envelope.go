// Package envelope defines the uniform response body returned by every API
// endpoint and server-side action, and the normalizer that turns any failure
// into that body.
//
// Success:
//
//	{ "success": true, "data": {...} }
//
// Failure (HTTP):
//
//	{ "success": false, "error": { "message": "User not found", "code": "not_found" } }
//
// Failure (server-side action) additionally carries "status".
package envelope

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
)

// Mode selects how a failure is shaped.
type Mode int

const (
	// ModeAPI returns the status separately for the HTTP transport.
	ModeAPI Mode = iota
	// ModeServer embeds the status in the body for non-HTTP callers.
	ModeServer
)

// ErrorBody is the error part of the envelope.
type ErrorBody struct {
	Message string             `json:"message" example:"User not found"`
	Details apperr.FieldErrors `json:"details,omitempty" swaggertype:"object"`
	Code    string             `json:"code,omitempty" example:"not_found"`
}

// Response is the envelope. Exactly one of Data and Error is set, as decided
// by Success. Status is only populated in ModeServer.
type Response[T any] struct {
	Success bool       `json:"success"`
	Data    *T         `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Status  int        `json:"status,omitempty"`
}

// OK wraps data in a success envelope.
func OK[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: &data}
}

// Fail builds a failure envelope from a typed error.
func Fail[T any](e *apperr.Error, mode Mode) Response[T] {
	r := Response[T]{
		Success: false,
		Error: &ErrorBody{
			Message: e.Message,
			Details: e.Fields,
			Code:    e.Code(),
		},
	}
	if mode == ModeServer {
		r.Status = e.Status
	}
	return r
}

// Err converts a failure envelope back into a typed error. It returns nil for
// a success envelope. Missing statuses default to 500.
func (r Response[T]) Err() *apperr.Error {
	if r.Success {
		return nil
	}
	if r.Error == nil {
		return apperr.New(r.Status, apperr.UnexpectedMessage)
	}
	if len(r.Error.Details) > 0 {
		e := apperr.Validation(r.Error.Details)
		e.Message = r.Error.Message
		return e
	}
	e := apperr.New(r.Status, r.Error.Message)
	switch r.Error.Code {
	case apperr.CodeNotFound:
		e.Kind = apperr.KindNotFound
	case apperr.CodeForbidden:
		e.Kind = apperr.KindForbidden
	case apperr.CodeUnauthorized:
		e.Kind = apperr.KindUnauthorized
	}
	return e
}

// HandleError normalizes v into a failure envelope and the HTTP status to
// send. Dispatch order:
//
//  1. typed *apperr.Error: used as is;
//  2. schema-validation failure: converted to a Validation error;
//  3. any other error: 500 with its message;
//  4. any other value: 500 "An unexpected error occurred".
//
// Every branch is logged at error level on lg (the global logger when nil).
func HandleError[T any](lg *zerolog.Logger, v any, mode Mode) (int, Response[T]) {
	e := apperr.From(v)
	if e == nil {
		e = apperr.Generic(apperr.UnexpectedMessage)
	}
	if lg == nil {
		lg = &log.Logger
	}

	ev := lg.Error().
		Str("kind", e.Kind.String()).
		Int("status", e.Status).
		Str("code", e.Code())
	if len(e.Fields) > 0 {
		ev = ev.Interface("details", e.Fields)
	}
	if err, ok := v.(error); ok {
		ev = ev.Err(err)
	}
	ev.Msg(describe(v, e))

	return e.Status, Fail[T](e, mode)
}

// describe names the dispatch branch for the log line.
func describe(v any, e *apperr.Error) string {
	err, ok := v.(error)
	if !ok {
		return "unknown error value"
	}
	var typed *apperr.Error
	switch {
	case e.Kind == apperr.KindValidation:
		return "validation error"
	case errors.As(err, &typed):
		return e.Kind.String() + " error"
	default:
		return "unexpected error"
	}
}
