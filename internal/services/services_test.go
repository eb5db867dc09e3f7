package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// testEnv is one private database with helpers to build services on it.
type testEnv struct {
	db   *gorm.DB
	conn *repo.Connector
	bus  *recordingBus
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testEnv{db: db, conn: repo.StaticConnector(db), bus: &recordingBus{}}
}

// gate returns a gate signed in as userID; "" is anonymous.
func (e *testEnv) gate(userID string) *Gate {
	var p auth.Static
	if userID != "" {
		p.S = &auth.Session{UserID: userID, Name: "Tester"}
	}
	return NewGate(p, e.conn)
}

func (e *testEnv) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{Name: "User " + username, Username: username, Email: username + "@example.com"}
	require.NoError(t, repo.CreateUser(context.Background(), e.db, u))
	return u
}

func (e *testEnv) question(t *testing.T, authorID, title string, tags ...string) *domain.Question {
	t.Helper()
	if len(tags) == 0 {
		tags = []string{"go"}
	}
	q, err := NewQuestionService(e.gate(authorID), nil, 0).Ask(context.Background(), AskQuestionParams{
		Title:   title,
		Content: "How do I " + title + "?",
		Tags:    tags,
	})
	require.NoError(t, err)
	return q
}

// requireAppErr asserts err is a typed error with the given status and message.
func requireAppErr(t *testing.T, err error, status int, msg string) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	e := apperr.From(err)
	require.Equal(t, status, e.Status, "message: %s", e.Message)
	if msg != "" {
		require.Equal(t, msg, e.Message)
	}
	return e
}

type busMsg struct {
	topic string
	args  []any
}

// recordingBus keeps every published message.
type recordingBus struct {
	mu   sync.Mutex
	msgs []busMsg
}

func (b *recordingBus) Publish(topic string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, busMsg{topic, args})
}

func (b *recordingBus) interactions() []events.Interaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Interaction
	for _, m := range b.msgs {
		if m.topic != events.TopicInteraction {
			continue
		}
		out = append(out, m.args[0].(events.Interaction))
	}
	return out
}

func (b *recordingBus) signIns() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.msgs {
		if m.topic == events.TopicUserSignedIn {
			out = append(out, m.args[0].(string))
		}
	}
	return out
}

const testCost = bcrypt.MinCost
