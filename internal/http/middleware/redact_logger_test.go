package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func lastLine(t *testing.T, s string) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("bad log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u-42")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/users/:id", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside handler")
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet,
		"/users/123e4567-e89b-12d3-a456-426614174000?email=ada@example.com&phone=212-555-1212&password=hunter2", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "devflow_session=abc")
	req.Header.Set("X-Api-Key", "k")
	req.Header.Set("X-Note", "mail me at ada@example.com")
	req.Header.Set(requestIDHeader, "rid-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	for _, leak := range []string{"ada@example.com", "212-555-1212", "hunter2", "Bearer secret", "devflow_session=abc"} {
		if strings.Contains(out, leak) {
			t.Fatalf("log leaked %q: %s", leak, out)
		}
	}
	if !strings.Contains(out, `"message":"inside handler"`) || !strings.Contains(out, `"request_id":"rid-7"`) {
		t.Fatalf("handler log must carry request-scoped fields: %s", out)
	}

	m := lastLine(t, out)
	if m["level"] != "info" || m["message"] != "http_request" {
		t.Fatalf("unexpected access line: %v", m)
	}
	if m["path"] != "/users/:id" || m["user_id"] != "u-42" {
		t.Fatalf("unexpected fields: %v", m)
	}
	q, _ := m["query"].(string)
	if !strings.Contains(q, "password=[REDACTED]") || !strings.Contains(q, "[REDACTED:email]") || !strings.Contains(q, "[REDACTED:phone]") {
		t.Fatalf("query not scrubbed: %q", q)
	}
	headers, _ := m["headers"].(map[string]any)
	if headers["Authorization"] != "[REDACTED]" || headers["Cookie"] != "[REDACTED]" || headers["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", headers)
	}
	if headers["X-Note"] != "mail me at [REDACTED:email]" {
		t.Fatalf("header value not scrubbed: %v", headers["X-Note"])
	}
}

func TestRedactingLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusBadGateway, "error"},
	}
	for _, tc := range cases {
		buf := captureLogger(t)
		r := gin.New()
		r.Use(RedactingLogger(RedactOptions{}))
		r.GET("/s", func(c *gin.Context) { c.Status(tc.status) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/s", nil))

		if got := lastLine(t, buf.String())["level"]; got != tc.level {
			t.Fatalf("status %d logged at %v, want %s", tc.status, got, tc.level)
		}
	}
}

func TestRedactingLogger_UnmatchedPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := lastLine(t, buf.String())["path"]; got != "/nope" {
		t.Fatalf("path = %v", got)
	}
}

func TestRedactQuery(t *testing.T) {
	mask := lowerSet([]string{"password"}, []string{"Token"})
	got := redactQuery("password=x&token=y&q=go&flag", mask)
	if got != "password=[REDACTED]&token=[REDACTED]&q=go&flag" {
		t.Fatalf("got %q", got)
	}
	if redactQuery("", mask) != "" {
		t.Fatalf("empty query must stay empty")
	}
}
