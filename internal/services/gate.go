package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/validation"
)

// Gate bundles the collaborators every operation passes through before it
// touches the database.
type Gate struct {
	// Auth identifies the caller. A nil provider treats everyone as anonymous.
	Auth auth.Provider
	// Conn opens (once) and returns the shared database handle.
	Conn *repo.Connector
	// Validator is used when Options.Schema is nil. Nil selects
	// validation.Default().
	Validator validation.Validator
}

// NewGate returns a Gate using the default validation engine.
func NewGate(p auth.Provider, conn *repo.Connector) *Gate {
	return &Gate{Auth: p, Conn: conn, Validator: validation.Default()}
}

// Options configures one Run.
type Options[T any] struct {
	// Params are validated when non-nil.
	Params *T
	// Schema overrides the gate's validator.
	Schema validation.Validator
	// Authorize requires a signed-in caller.
	Authorize bool
}

// Result is what a successful Run hands to the operation.
type Result[T any] struct {
	Params  *T
	Session *auth.Session // nil unless Authorize was set
	DB      *gorm.DB
}

// Run validates params, authorizes the caller and connects to storage, in
// that order, stopping at the first failure.
//
// Validation collects every field failure in one pass; failures that are not
// field errors (a schema that cannot check the params at all) are reported
// as a generic error. Authorization with no session yields Unauthorized.
func Run[T any](ctx context.Context, g *Gate, opt Options[T]) (*Result[T], error) {
	res := &Result[T]{Params: opt.Params}

	if opt.Params != nil {
		schema := opt.Schema
		if schema == nil {
			schema = g.Validator
		}
		if schema == nil {
			schema = validation.Default()
		}
		if err := schema.Struct(opt.Params); err != nil {
			var fe apperr.FieldErrorer
			if errors.As(err, &fe) || apperr.IsKind(err, apperr.KindValidation) {
				return nil, apperr.From(err)
			}
			return nil, apperr.Generic(MsgSchemaUnexpected)
		}
	}

	if opt.Authorize {
		s, err := g.session(ctx)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, apperr.Unauthorized("")
		}
		res.Session = s
	}

	if g.Conn == nil {
		return nil, apperr.Wrap(repo.ErrNoOpener)
	}
	db, err := g.Conn.Connect(ctx)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	res.DB = db
	return res, nil
}

// session asks the provider for the caller, tolerating a nil provider.
func (g *Gate) session(ctx context.Context) (*auth.Session, error) {
	if g.Auth == nil {
		return nil, nil
	}
	s, err := g.Auth.Session(ctx)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return s, nil
}

// OptionalSession returns the caller's session or nil, without failing for
// anonymous callers.
func (g *Gate) OptionalSession(ctx context.Context) *auth.Session {
	s, err := g.session(ctx)
	if err != nil {
		return nil
	}
	return s
}
