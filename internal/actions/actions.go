// Package actions exposes the services to non-HTTP callers such as the CLI.
// Every action returns a server-mode envelope: failures carry their status
// in the body instead of being returned as Go errors.
package actions

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/envelope"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/services"
	"github.com/tbourn/go-devflow-backend/internal/utils"
)

// Do runs fn and wraps its outcome. Errors go through the normalizer and are
// logged on lg (the global logger when nil).
func Do[T any](ctx context.Context, lg *zerolog.Logger, fn func(context.Context) (T, error)) envelope.Response[T] {
	v, err := fn(ctx)
	if err != nil {
		_, r := envelope.HandleError[T](lg, err, envelope.ModeServer)
		return r
	}
	return envelope.OK(v)
}

// Actions bundles the services behind one session provider.
type Actions struct {
	Logger *zerolog.Logger

	Users       *services.UserService
	Auth        *services.AuthService
	Questions   *services.QuestionService
	Answers     *services.AnswerService
	Votes       *services.VoteService
	Collections *services.CollectionService
}

// Deps are the collaborators shared by every action.
type Deps struct {
	Session          auth.Provider
	Conn             *repo.Connector
	Bus              events.Bus
	BcryptCost       int
	SearchCandidates int
	Logger           *zerolog.Logger
}

// New wires the services for d.
func New(d Deps) *Actions {
	g := services.NewGate(d.Session, d.Conn)
	return &Actions{
		Logger:      d.Logger,
		Users:       services.NewUserService(g),
		Auth:        services.NewAuthService(g, d.Bus, d.BcryptCost),
		Questions:   services.NewQuestionService(g, d.Bus, d.SearchCandidates),
		Answers:     services.NewAnswerService(g, d.Bus),
		Votes:       services.NewVoteService(g, d.Bus),
		Collections: services.NewCollectionService(g, d.Bus),
	}
}

// SignUpWithCredentials registers a user with email and password.
func (a *Actions) SignUpWithCredentials(ctx context.Context, p services.SignUpParams) envelope.Response[auth.Session] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*auth.Session, error) {
		return a.Auth.SignUp(ctx, p)
	}))
}

// SignInWithCredentials checks an email and password.
func (a *Actions) SignInWithCredentials(ctx context.Context, p services.SignInParams) envelope.Response[auth.Session] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*auth.Session, error) {
		return a.Auth.SignIn(ctx, p)
	}))
}

// GetUsers lists every user.
func (a *Actions) GetUsers(ctx context.Context) envelope.Response[[]domain.User] {
	return Do(ctx, a.Logger, a.Users.List)
}

// GetQuestions lists one page of questions.
func (a *Actions) GetQuestions(ctx context.Context, p services.ListParams) envelope.Response[utils.Page[domain.Question]] {
	return Do(ctx, a.Logger, func(ctx context.Context) (utils.Page[domain.Question], error) {
		return a.Questions.List(ctx, p)
	})
}

// GetQuestion returns one question.
func (a *Actions) GetQuestion(ctx context.Context, id string) envelope.Response[domain.Question] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*domain.Question, error) {
		return a.Questions.Get(ctx, services.IDParams{ID: id})
	}))
}

// CreateQuestion asks a question as the session user.
func (a *Actions) CreateQuestion(ctx context.Context, p services.AskQuestionParams) envelope.Response[domain.Question] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*domain.Question, error) {
		return a.Questions.Ask(ctx, p)
	}))
}

// EditQuestion edits a question of the session user.
func (a *Actions) EditQuestion(ctx context.Context, p services.EditQuestionParams) envelope.Response[domain.Question] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*domain.Question, error) {
		return a.Questions.Edit(ctx, p)
	}))
}

// SearchQuestions ranks questions against a free-text query.
func (a *Actions) SearchQuestions(ctx context.Context, p services.SearchParams) envelope.Response[[]services.SearchHit] {
	return Do(ctx, a.Logger, func(ctx context.Context) ([]services.SearchHit, error) {
		return a.Questions.Search(ctx, p)
	})
}

// CreateAnswer answers a question as the session user.
func (a *Actions) CreateAnswer(ctx context.Context, p services.CreateAnswerParams) envelope.Response[domain.Answer] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*domain.Answer, error) {
		return a.Answers.Create(ctx, p)
	}))
}

// CreateVote toggles a vote of the session user.
func (a *Actions) CreateVote(ctx context.Context, p services.VoteParams) envelope.Response[services.VoteSummary] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*services.VoteSummary, error) {
		return a.Votes.Vote(ctx, p)
	}))
}

// ToggleSaveQuestion saves or unsaves a question for the session user.
func (a *Actions) ToggleSaveQuestion(ctx context.Context, p services.CollectionParams) envelope.Response[services.SavedStatus] {
	return Do(ctx, a.Logger, deref(func(ctx context.Context) (*services.SavedStatus, error) {
		return a.Collections.Toggle(ctx, p)
	}))
}

// deref adapts a pointer-returning call to a value-returning one.
func deref[T any](fn func(context.Context) (*T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var zero T
		v, err := fn(ctx)
		if err != nil || v == nil {
			return zero, err
		}
		return *v, nil
	}
}
