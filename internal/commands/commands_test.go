package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/config"
	httpapi "github.com/tbourn/go-devflow-backend/internal/http"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// testEnv points the CLI at a throwaway SQLite file and quiet logs.
func testEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devflow.db")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PATH", path)
	t.Setenv("OTEL_ENABLED", "false")
	return path
}

// unsetEnv removes k for the rest of the test; the original is restored.
func unsetEnv(t *testing.T, k string) {
	t.Helper()
	t.Setenv(k, "")
	require.NoError(t, os.Unsetenv(k))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--env-file="}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type sessionEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	} `json:"data"`
	Status int `json:"status"`
}

func TestRoot_InvalidConfig(t *testing.T) {
	testEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestMigrate_ConfiguredDatabase(t *testing.T) {
	path := testEnv(t)

	out, err := run(t, "migrate", "--db-wait", "2s")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("migrated %d models\n", len(repo.Models())), out)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestMigrate_SQLiteFile(t *testing.T) {
	testEnv(t)
	file := filepath.Join(t.TempDir(), "seed.db")

	_, err := run(t, "migrate", "--sqlite-file", file, "--db-wait", "2s")
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(file), &gorm.Config{})
	require.NoError(t, err)
	for _, m := range repo.Models() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
}

func TestMigrate_MissingSQLiteDirFails(t *testing.T) {
	testEnv(t)
	file := filepath.Join(t.TempDir(), "nope", "seed.db")

	_, err := run(t, "migrate", "--sqlite-file", file, "--db-wait", "300ms")
	require.Error(t, err)
}

func TestAdmin_SignUpListAndAsk(t *testing.T) {
	testEnv(t)

	out, err := run(t, "admin", "signup",
		"--name", "Ada Lovelace",
		"--username", "ada",
		"--email", "Ada@Example.com",
		"--password", "Str0ng!pass",
	)
	require.NoError(t, err)

	var s sessionEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	require.True(t, s.Success)
	require.NotEmpty(t, s.Data.UserID)
	assert.Equal(t, "ada@example.com", s.Data.Email)

	out, err = run(t, "admin", "users")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "ada"`)

	out, err = run(t, "admin", "ask", "--as", s.Data.UserID,
		"--title", "How do goroutines leak?",
		"--content", "Looking for common patterns.",
		"--tag", "Go", "--tag", "concurrency",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)

	out, err = run(t, "admin", "questions", "--query", "goroutines")
	require.NoError(t, err)
	assert.Contains(t, out, "How do goroutines leak?")
	assert.Contains(t, out, `"total": 1`)
}

func TestAdmin_FailuresPrintEnvelope(t *testing.T) {
	testEnv(t)

	out, err := run(t, "admin", "signup",
		"--name", "Ada Lovelace",
		"--username", "ada",
		"--password", "Str0ng!pass",
	)
	require.Error(t, err)
	var pe printedError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, out, "Email is required")
	assert.Contains(t, out, `"status": 400`)

	out, err = run(t, "admin", "ask",
		"--title", "Anonymous question",
		"--content", "body",
		"--tag", "go",
	)
	require.Error(t, err)
	assert.Contains(t, out, `"status": 401`)
}

func TestAPI_UsersList(t *testing.T) {
	testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/users", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"u1","name":"Ada","username":"ada","email":"ada@example.com","reputation":3}]}`)
	}))
	defer srv.Close()

	out, err := run(t, "api", "users", "list", "--base-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "u1"`)
	assert.Contains(t, out, `"success": true`)
}

func TestAPI_NonSuccessStatus(t *testing.T) {
	testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/missing", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"error":{"message":"User not found"}}`)
	}))
	defer srv.Close()

	out, err := run(t, "api", "users", "get", "missing", "--base-url", srv.URL)
	require.Error(t, err)
	var pe printedError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, out, "HTTP error: 404")
	assert.Contains(t, out, `"status": 404`)
}

func TestAPI_OAuthSignInSendsIdentity(t *testing.T) {
	testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/signin-with-oauth", r.URL.Path)
		var body struct {
			Provider          string `json:"provider"`
			ProviderAccountID string `json:"providerAccountId"`
			User              struct {
				Email string `json:"email"`
			} `json:"user"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "github", body.Provider)
		assert.Equal(t, "12345", body.ProviderAccountID)
		assert.Equal(t, "ada@example.com", body.User.Email)
		_, _ = io.WriteString(w, `{"success":true,"data":{"userId":"u1","name":"Ada","email":"ada@example.com"}}`)
	}))
	defer srv.Close()

	out, err := run(t, "api", "oauth-signin", "--base-url", srv.URL,
		"--provider-account-id", "12345",
		"--name", "Ada",
		"--username", "ada",
		"--email", "ada@example.com",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"userId": "u1"`)
}

func TestAPI_BaseURLFromConfigFileAndDotenv(t *testing.T) {
	testEnv(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	}))
	defer srv.Close()

	unsetEnv(t, "API_BASE_URL")
	t.Setenv("DEVFLOW_TEST_HOST", srv.URL)
	cfgFile := filepath.Join(t.TempDir(), "devflow.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("API_BASE_URL: ${DEVFLOW_TEST_HOST}/api\n"), 0o600))

	_, err := run(t, "--config="+cfgFile, "api", "accounts", "list")
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	unsetEnv(t, "API_BASE_URL")
	t.Setenv("CONFIG_FILE", "")
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_BASE_URL="+srv.URL+"\n"), 0o600))

	root := NewRootCmd("test")
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--env-file=" + envFile, "api", "users", "list"})
	require.NoError(t, root.Execute())
	assert.EqualValues(t, 2, hits.Load())
}

func TestConnectWithRetry(t *testing.T) {
	var calls atomic.Int32
	conn := repo.NewConnector(func(ctx context.Context) (*gorm.DB, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection refused")
		}
		return gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	})
	t.Cleanup(func() { _ = conn.Close() })

	db, err := connectWithRetry(context.Background(), conn, 10*time.Second)
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.EqualValues(t, 3, calls.Load())

	start := time.Now()
	_, err = connectWithRetry(context.Background(), repo.NewConnector(nil), 10*time.Second)
	require.ErrorIs(t, err, repo.ErrNoOpener)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConnectWithRetry_ContextCancelled(t *testing.T) {
	conn := repo.NewConnector(func(ctx context.Context) (*gorm.DB, error) {
		return nil, errors.New("connection refused")
	})
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := connectWithRetry(ctx, conn, time.Minute)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "connect database:"))
}

func TestNewServer(t *testing.T) {
	testEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Port = "9099"
	cfg.GinMode = "test"

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))

	srv := newServer(cfg, httpapi.Deps{Conn: repo.StaticConnector(db)})
	assert.Equal(t, ":9099", srv.Addr)
	assert.Equal(t, cfg.ReadHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, cfg.MaxHeaderBytes, srv.MaxHeaderBytes)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, cfg.APIBasePath+"/tags", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
