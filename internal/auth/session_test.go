package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-devflow-backend/internal/config"
)

func newTestEngine(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.POST("/signin", func(c *gin.Context) {
		err := m.Establish(c.Request.Context(), c.Writer, Session{UserID: "u1", Name: "Ada", Email: "ADA@example.com"})
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusOK)
	})
	r.POST("/signout", func(c *gin.Context) {
		if err := m.Destroy(c.Request.Context(), c.Writer); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/me", func(c *gin.Context) {
		s, err := m.Session(c.Request.Context())
		if err != nil || s == nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": s, "ctx": c.GetString(ContextUserKey)})
	})
	return r
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestManager_EstablishReadDestroy(t *testing.T) {
	m := NewManager(config.SessionConfig{CookieName: "devflow_session", Lifetime: time.Hour})
	r := newTestEngine(m)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signin", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ck := sessionCookie(t, rec, "devflow_session")
	assert.True(t, ck.HttpOnly)
	assert.NotEmpty(t, ck.Value)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"u1"`)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
	assert.Contains(t, rec.Body.String(), `"ctx":"u1"`)

	req = httptest.NewRequest(http.MethodPost, "/signout", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	expired := sessionCookie(t, rec, "devflow_session")
	assert.Less(t, expired.MaxAge, 0)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManager_UnknownTokenIsAnonymous(t *testing.T) {
	m := NewManager(config.SessionConfig{CookieName: "sid", Lifetime: time.Hour})
	r := newTestEngine(m)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "not-a-real-token"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManager_WithoutMiddleware(t *testing.T) {
	m := NewManager(config.SessionConfig{CookieName: "sid", Lifetime: time.Hour})

	s, err := m.Session(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, s)

	rec := httptest.NewRecorder()
	assert.ErrorIs(t, m.Establish(context.Background(), rec, Session{UserID: "u"}), ErrNoSession)
	assert.ErrorIs(t, m.Destroy(context.Background(), rec), ErrNoSession)
}

func TestStaticAndFuncProviders(t *testing.T) {
	s, err := Static{}.Session(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, s)

	want := &Session{UserID: "u1"}
	got, err := Static{S: want}.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.NotSame(t, want, got)

	f := Func(func(context.Context) (*Session, error) { return want, nil })
	got, _ = f.Session(context.Background())
	assert.Same(t, want, got)
}
