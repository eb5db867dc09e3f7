package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHelpers_GetIdempotencyKey_IsReplay_UserIDFromCtx(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/questions", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false by default")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must be ignored")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("non-bool replay flag must be ignored")
	}

	if got := userIDFromCtx(c); got != "" {
		t.Fatalf("anonymous user id = %q", got)
	}
	c.Set("userID", "u1")
	if got := userIDFromCtx(c); got != "u1" {
		t.Fatalf("user id = %q", got)
	}

	if got := IdempotencyScope(c); got != "POST /api/questions" {
		t.Fatalf("scope = %q", got)
	}
}

func TestIdempotencyValidator_NoHeader_NoLookupCalled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	called := false
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return false, nil
	}))
	r.POST("/x", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key should not be present when header missing")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != http.StatusNoContent || called {
		t.Fatalf("status=%d lookupCalled=%v", w.Code, called)
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_ = captureLogger(t)

	cases := map[string]struct {
		opts IdempotencyOptions
		key  string
	}{
		"too long":      {IdempotencyOptions{MaxLen: 5}, "abcdef"},
		"default chars": {IdempotencyOptions{}, "has space"},
		"custom":        {IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc"},
		"default max":   {IdempotencyOptions{}, strings.Repeat("a", 201)},
	}
	for name, tc := range cases {
		r := gin.New()
		r.Use(IdempotencyValidator(tc.opts, nil))
		r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(HeaderIdempotencyKey, tc.key)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, w.Code)
		}
		body := decodeEnvelope(t, w)
		if body.Error == nil || body.Error.Message != MsgBadIdempotencyKey || body.Error.Code != "bad_request" {
			t.Fatalf("%s: unexpected body %s", name, w.Body.String())
		}
	}
}

func TestIdempotencyValidator_ReplayMarksContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})

	var gotUser, gotScope, gotKey string
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(_ context.Context, userID, scope, key string, now time.Time) (bool, error) {
		gotUser, gotScope, gotKey = userID, scope, key
		if now.Location() != time.UTC {
			t.Errorf("lookup time must be UTC")
		}
		return key == "seen", nil
	}))
	r.POST("/api/questions", func(c *gin.Context) {
		k, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": k, "replay": IsReplay(c), "bypass": IsRateBypass(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/questions", nil)
	req.Header.Set(HeaderIdempotencyKey, "seen")
	r.ServeHTTP(w, req)

	if w.Body.String() != `{"bypass":true,"key":"seen","replay":true}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if gotUser != "u1" || gotScope != "POST /api/questions" || gotKey != "seen" {
		t.Fatalf("lookup args: %q %q %q", gotUser, gotScope, gotKey)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/questions", nil)
	req.Header.Set(HeaderIdempotencyKey, "fresh")
	r.ServeHTTP(w, req)
	if w.Body.String() != `{"bypass":false,"key":"fresh","replay":false}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestIdempotencyValidator_LookupErrorIsNotFatal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(context.Context, string, string, string, time.Time) (bool, error) {
		return false, errors.New("db down")
	}))
	r.POST("/x", func(c *gin.Context) {
		if IsReplay(c) {
			t.Fatalf("lookup error must not mark a replay")
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(buf.String(), "idempotency lookup failed") {
		t.Fatalf("lookup failure not logged: %s", buf.String())
	}
}
