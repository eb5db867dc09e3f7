package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/services"
)

// Sessions writes and clears the session cookie. *auth.Manager implements it.
type Sessions interface {
	Establish(ctx context.Context, w http.ResponseWriter, s auth.Session) error
	Destroy(ctx context.Context, w http.ResponseWriter) error
}

// Handlers groups every HTTP endpoint. Handlers are transport-thin: they
// read the path, query and body, call one service operation and write the
// envelope.
type Handlers struct {
	users       *services.UserService
	accounts    *services.AccountService
	auth        *services.AuthService
	questions   *services.QuestionService
	answers     *services.AnswerService
	tags        *services.TagService
	votes       *services.VoteService
	collections *services.CollectionService

	sessions Sessions
	idem     *IdempotencyStore
}

// Services are the operations the handlers expose.
type Services struct {
	Users       *services.UserService
	Accounts    *services.AccountService
	Auth        *services.AuthService
	Questions   *services.QuestionService
	Answers     *services.AnswerService
	Tags        *services.TagService
	Votes       *services.VoteService
	Collections *services.CollectionService
}

// New returns Handlers bound to svc. sessions may be nil, in which case
// sign-in succeeds without setting a cookie; idem may be nil to disable
// idempotent replays.
func New(svc Services, sessions Sessions, idem *IdempotencyStore) *Handlers {
	return &Handlers{
		users:       svc.Users,
		accounts:    svc.Accounts,
		auth:        svc.Auth,
		questions:   svc.Questions,
		answers:     svc.Answers,
		tags:        svc.Tags,
		votes:       svc.Votes,
		collections: svc.Collections,
		sessions:    sessions,
		idem:        idem,
	}
}

// IdempotencyStore remembers which resource a (user, scope, key) triple
// created so a retried request can be answered with the same resource.
type IdempotencyStore struct {
	Conn *repo.Connector
	TTL  time.Duration
}

// Exists implements middleware.IdempotencyLookup. Storage failures are
// reported; a missing or expired record is not.
func (s *IdempotencyStore) Exists(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	id, err := s.lookup(ctx, userID, scope, key, now)
	return id != "", err
}

func (s *IdempotencyStore) lookup(ctx context.Context, userID, scope, key string, now time.Time) (string, error) {
	if s == nil || s.Conn == nil {
		return "", nil
	}
	db, err := s.Conn.Connect(ctx)
	if err != nil {
		return "", err
	}
	rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
	if repo.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.ResourceID, nil
}

// Remember records that key created resourceID. A concurrent duplicate is
// not an error: the first writer wins.
func (s *IdempotencyStore) Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	if s == nil || s.Conn == nil {
		return nil
	}
	db, err := s.Conn.Connect(ctx)
	if err != nil {
		return err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if _, err := repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		return err
	}
	return nil
}
