// Package apperr defines the closed set of typed errors the API reports to
// clients.
//
// Every expected failure is an *Error tagged with a Kind. The kind decides the
// HTTP status and the stable machine code; the message is safe to show to end
// users. Validation errors additionally carry the per-field messages produced
// by the schema engine.
//
// Anything that is not an *Error (a plain Go error, a panic value) is folded
// into the same shape by From, so callers only ever deal with one type.
package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind enumerates the error variants.
type Kind int

const (
	KindGeneric Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthorized
)

// Stable, machine-readable codes sent in the error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeValidation       = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeRateLimited      = "too_many_requests"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeHTTPError        = "http_error"
	CodeInternal         = "internal_error"
)

// UnexpectedMessage is reported for failures that carry no usable message.
const UnexpectedMessage = "An unexpected error occurred"

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "generic"
	}
}

// Error is the typed error value. Status is always within [400,599].
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  FieldErrors

	cause error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying error, if any.
func (e *Error) Unwrap() error { return e.cause }

// Code returns the machine-readable code for the envelope.
func (e *Error) Code() string {
	switch e.Kind {
	case KindValidation:
		return CodeValidation
	case KindNotFound:
		return CodeNotFound
	case KindForbidden:
		return CodeForbidden
	case KindUnauthorized:
		return CodeUnauthorized
	}
	switch {
	case e.Status == http.StatusBadRequest:
		return CodeBadRequest
	case e.Status == http.StatusConflict:
		return CodeConflict
	case e.Status == http.StatusTooManyRequests:
		return CodeRateLimited
	case e.Status == http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case e.Status >= 500:
		return CodeInternal
	default:
		return CodeHTTPError
	}
}

// Validation builds a 400 error whose message summarises every field.
// An empty set is replaced by a single generic "input" entry so the error
// always carries field details.
func Validation(fields FieldErrors) *Error {
	if len(fields) == 0 {
		fields = FieldErrors{}.Add("input", "Invalid input.")
	}
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusBadRequest,
		Message: fields.Message(),
		Fields:  fields,
	}
}

// NotFound reports a missing resource, e.g. NotFound("User") -> "User not found".
func NotFound(resource string) *Error {
	if strings.TrimSpace(resource) == "" {
		resource = "Resource"
	}
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: resource + " not found"}
}

// Forbidden reports an authenticated caller acting outside their rights.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return &Error{Kind: KindForbidden, Status: http.StatusForbidden, Message: message}
}

// Unauthorized reports a missing or invalid session.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// Generic reports an unexpected condition with status 500.
func Generic(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// New builds a generic-kind error with an explicit status. Statuses outside
// [400,599] are replaced by 500.
func New(status int, message string) *Error {
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = UnexpectedMessage
	}
	return &Error{Kind: KindGeneric, Status: status, Message: message}
}

// Wrap converts err into a generic 500 error that keeps err as its cause.
// Typed errors are returned unchanged.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	e := Generic(err.Error())
	e.cause = err
	return e
}

// FieldErrorer is implemented by schema-validation failures that already carry
// per-field messages.
type FieldErrorer interface {
	error
	FieldErrors() FieldErrors
}

// From classifies any value into an *Error:
//
//  1. a typed *Error (possibly wrapped) is returned as is;
//  2. a schema-validation failure becomes a Validation error;
//  3. any other error becomes a 500 carrying its message;
//  4. anything else becomes a 500 with UnexpectedMessage.
//
// From(nil) returns nil.
func From(v any) *Error {
	if v == nil {
		return nil
	}
	err, ok := v.(error)
	if !ok {
		return Generic(UnexpectedMessage)
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var fe FieldErrorer
	if errors.As(err, &fe) {
		return Validation(fe.FieldErrors())
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return Validation(fromValidator(ve))
	}
	return Wrap(err)
}

// IsKind reports whether err is a typed error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

// fromValidator is the fallback translation for raw validator errors that did
// not pass through the validation package.
func fromValidator(ve validator.ValidationErrors) FieldErrors {
	var out FieldErrors
	for _, fe := range ve {
		name := fe.Field()
		if name != "" {
			name = strings.ToLower(name[:1]) + name[1:]
		}
		msg := "Failed on the '" + fe.Tag() + "' rule"
		if fe.Tag() == "required" {
			msg = "Required"
		}
		out = out.Add(name, msg)
	}
	return out
}

// capitalize upper-cases the first letter of a field name and keeps the rest.
// Casers are stateful, so one is built per call.
func capitalize(field string) string {
	return cases.Title(language.Und, cases.NoLower).String(field)
}
