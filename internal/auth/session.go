// Package auth provides the session collaborator used by the gate: who is
// signed in for the current request. The HTTP server keeps sessions in an
// scs cookie store; the CLI and tests use a static provider.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-devflow-backend/internal/config"
)

// Session identifies the signed-in user.
type Session struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Image  string `json:"image,omitempty"`
}

// Provider returns the current session, or nil when nobody is signed in.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
}

// ContextUserKey is the gin context key holding the signed-in user id.
const ContextUserKey = "userID"

const (
	keyUserID = "user_id"
	keyName   = "name"
	keyEmail  = "email"
	keyImage  = "image"
)

// ErrNoSession is returned by Establish and Destroy when the context was not
// prepared by Middleware.
var ErrNoSession = errors.New("auth: request has no session context")

type loadedKey struct{}

// Manager stores sessions server-side and identifies them by cookie.
type Manager struct {
	sm *scs.SessionManager
}

// NewManager returns a Manager backed by the scs in-memory store.
func NewManager(cfg config.SessionConfig) *Manager {
	sm := scs.New()
	sm.Lifetime = cfg.Lifetime
	sm.Cookie.Name = cfg.CookieName
	sm.Cookie.Secure = cfg.Secure
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Persist = false
	return &Manager{sm: sm}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string { return m.sm.Cookie.Name }

// Middleware loads the session named by the request cookie into the request
// context and exposes the user id under ContextUserKey. An unknown or
// expired token yields an empty session.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if ck, err := c.Request.Cookie(m.sm.Cookie.Name); err == nil {
			token = ck.Value
		}
		ctx, err := m.sm.Load(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("session load failed")
			ctx, _ = m.sm.Load(c.Request.Context(), "")
		}
		ctx = context.WithValue(ctx, loadedKey{}, true)
		c.Request = c.Request.WithContext(ctx)

		if uid := m.sm.GetString(ctx, keyUserID); uid != "" {
			c.Set(ContextUserKey, uid)
		}
		c.Next()
	}
}

func loaded(ctx context.Context) bool {
	v, _ := ctx.Value(loadedKey{}).(bool)
	return v
}

// Session implements Provider.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	if !loaded(ctx) {
		return nil, nil
	}
	uid := m.sm.GetString(ctx, keyUserID)
	if uid == "" {
		return nil, nil
	}
	return &Session{
		UserID: uid,
		Name:   m.sm.GetString(ctx, keyName),
		Email:  m.sm.GetString(ctx, keyEmail),
		Image:  m.sm.GetString(ctx, keyImage),
	}, nil
}

// Establish signs s in: the token is renewed, the data committed and the
// cookie written to w. Call it before the response body is written.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, s Session) error {
	if !loaded(ctx) {
		return ErrNoSession
	}
	if err := m.sm.RenewToken(ctx); err != nil {
		return err
	}
	m.sm.Put(ctx, keyUserID, s.UserID)
	m.sm.Put(ctx, keyName, s.Name)
	m.sm.Put(ctx, keyEmail, strings.ToLower(s.Email))
	m.sm.Put(ctx, keyImage, s.Image)

	token, expiry, err := m.sm.Commit(ctx)
	if err != nil {
		return err
	}
	m.sm.WriteSessionCookie(ctx, w, token, expiry)
	return nil
}

// Destroy signs the current session out and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter) error {
	if !loaded(ctx) {
		return ErrNoSession
	}
	if err := m.sm.Destroy(ctx); err != nil {
		return err
	}
	m.sm.WriteSessionCookie(ctx, w, "", time.Time{})
	return nil
}

// Static always returns the same session; nil means anonymous.
type Static struct {
	S *Session
}

// Session implements Provider.
func (p Static) Session(context.Context) (*Session, error) {
	if p.S == nil {
		return nil, nil
	}
	s := *p.S
	return &s, nil
}

// Func adapts a function to Provider.
type Func func(ctx context.Context) (*Session, error)

// Session implements Provider.
func (f Func) Session(ctx context.Context) (*Session, error) { return f(ctx) }
