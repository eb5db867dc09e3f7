package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
)

type envelopeBody struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
		Code    string              `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var b envelopeBody
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("json %q: %v", w.Body.String(), err)
	}
	return b
}

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// capture logs from LoggerFrom(c)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) { fail(c, errors.New("kaboom")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	b := decodeEnvelope(t, w)
	if b.Success || b.Error == nil || b.Error.Message != "kaboom" || b.Error.Code != "internal_error" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_Fail_TypedErrorsAndSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/missing", func(c *gin.Context) { Fail(c, apperr.NotFound("Question")) })
	r.GET("/invalid", func(c *gin.Context) {
		Fail(c, apperr.Validation(apperr.FieldErrors{}.Add("title", "Required")))
	})
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"ok": true, "n": 1}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	b := decodeEnvelope(t, w)
	if w.Code != http.StatusNotFound || b.Error.Message != "Question not found" || b.Error.Code != "not_found" {
		t.Fatalf("404 body: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	b = decodeEnvelope(t, w)
	if w.Code != http.StatusBadRequest || b.Error.Message != "Title is required" {
		t.Fatalf("400 body: %d %s", w.Code, w.Body.String())
	}
	if got := b.Error.Details["title"]; len(got) != 1 || got[0] != "Required" {
		t.Fatalf("details = %v", b.Error.Details)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	b = decodeEnvelope(t, w)
	if !b.Success || b.Error != nil || string(b.Data) != `{"n":1,"ok":true}` {
		t.Fatalf("unexpected ok body: %s", w.Body.String())
	}
}

func Test_bindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type payload struct {
		Name string `json:"name"`
	}
	run := func(body string) (*httptest.ResponseRecorder, payload, bool) {
		var p payload
		var bound bool
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		bound = bindJSON(c, &p)
		return w, p, bound
	}

	if _, p, bound := run(`{"name":"ada"}`); !bound || p.Name != "ada" {
		t.Fatalf("valid body: bound=%v p=%+v", bound, p)
	}
	if _, p, bound := run(``); !bound || p.Name != "" {
		t.Fatalf("empty body must bind to zero value: bound=%v p=%+v", bound, p)
	}
	if _, _, bound := run(`{"name":"ada","extra":[1,2]}`); !bound {
		t.Fatalf("unknown fields must be ignored")
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	var p payload
	if !bindJSON(c, &p) || w.Code != http.StatusOK {
		t.Fatalf("no body: code=%d", w.Code)
	}

	w, _, bound := run(`{"name":`)
	if bound || w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: bound=%v code=%d", bound, w.Code)
	}
	if !strings.Contains(w.Body.String(), MsgInvalidJSON) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func Test_pathID_pageQuery_notModified(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=7", nil)
	c.Params = gin.Params{{Key: "id", Value: "  "}}
	if _, found := pathID(c, "Answer"); found {
		t.Fatalf("blank id must not be found")
	}
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Answer not found") {
		t.Fatalf("blank id = %d %s", w.Code, w.Body.String())
	}
	if page, size := pageQuery(c); page != 3 || size != 7 {
		t.Fatalf("pageQuery = %d,%d", page, size)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("If-None-Match", `W/"x"`)
	if notModified(c, `W/"y"`) {
		t.Fatalf("different etag reported as not modified")
	}
	if !notModified(c, `W/"x"`) {
		t.Fatalf("matching etag not detected")
	}
	c.Writer.WriteHeaderNow()
	if w.Code != http.StatusNotModified || w.Header().Get("ETag") != `W/"x"` {
		t.Fatalf("304 = %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}
