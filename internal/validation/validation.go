// Package validation is the schema engine used by the gate. Input structs
// declare their rules with `validate` struct tags; a failed check is reported
// as *Errors, which carries human messages grouped by the JSON name of the
// top-level field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
)

// Validator validates a params struct. *Engine implements it; tests and
// callers may supply their own.
type Validator interface {
	Struct(s any) error
}

// Errors is a schema failure with per-field messages.
type Errors struct {
	Fields apperr.FieldErrors
}

func (e *Errors) Error() string { return e.Fields.Message() }

// FieldErrors exposes the messages to apperr.From.
func (e *Errors) FieldErrors() apperr.FieldErrors { return e.Fields }

// Engine wraps a configured validator.Validate.
type Engine struct {
	v *validator.Validate
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine.
func Default() *Engine {
	defaultOnce.Do(func() { defaultEngine = New() })
	return defaultEngine
}

// New builds an engine with the project rules registered.
func New() *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validation: register %q: %v", tag, err))
		}
	}
	return &Engine{v: v}
}

// Struct validates s and returns *Errors on failure. Errors that are not
// field failures (e.g. s is not a struct) are returned unchanged.
func (e *Engine) Struct(s any) error {
	err := e.v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	return &Errors{Fields: Translate(ve)}
}

// Translate converts validator failures into ordered field messages.
func Translate(ve validator.ValidationErrors) apperr.FieldErrors {
	var out apperr.FieldErrors
	for _, fe := range ve {
		key := fieldKey(fe.Namespace())
		for _, msg := range messageFor(fe) {
			out = out.Add(key, msg)
		}
	}
	return out
}

// fieldKey keeps the first path segment below the root struct and drops any
// index, so "SignInWithOAuth.user.email" -> "user" and "Ask.tags[1]" -> "tags".
func fieldKey(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[:i]
	}
	if i := strings.IndexByte(ns, '['); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

// label turns a Go field name into display words: "ProviderAccountID" ->
// "Provider Account ID". Slice elements ("Tags[0]") are singularised.
func label(fe validator.FieldError) string {
	name := fe.StructField()
	elem := false
	if i := strings.IndexByte(name, '['); i >= 0 {
		name, elem = name[:i], true
	}
	rs := []rune(name)
	var b strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(rs[i-1])
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if prevLower || (unicode.IsUpper(rs[i-1]) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	out := b.String()
	if elem {
		out = strings.TrimSuffix(out, "s")
	}
	return out
}
