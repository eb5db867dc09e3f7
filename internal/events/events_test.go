package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

func newEventsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:events_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func TestReputation(t *testing.T) {
	cases := []struct {
		name string
		ev   Interaction
		want delta
	}{
		{"ask", Interaction{UserID: "a", AuthorID: "a", Action: domain.ActionPost, ActionType: domain.ActionTypeQuestion}, delta{author: 5}},
		{"answer", Interaction{UserID: "a", AuthorID: "a", Action: domain.ActionPost, ActionType: domain.ActionTypeAnswer}, delta{author: 10}},
		{"delete answer", Interaction{UserID: "a", AuthorID: "a", Action: domain.ActionDelete, ActionType: domain.ActionTypeAnswer}, delta{author: -10}},
		{"upvote", Interaction{UserID: "v", AuthorID: "a", Action: domain.ActionUpvote}, delta{actor: 2, author: 10}},
		{"downvote", Interaction{UserID: "v", AuthorID: "a", Action: domain.ActionDownvote}, delta{actor: -1, author: -2}},
		{"switch to downvote", Interaction{UserID: "v", AuthorID: "a", Action: domain.ActionDownvote, Previous: domain.VoteUp}, delta{actor: -3, author: -12}},
		{"unvote up", Interaction{UserID: "v", AuthorID: "a", Action: domain.ActionUnvote, Previous: domain.VoteUp}, delta{actor: -2, author: -10}},
		{"self vote", Interaction{UserID: "a", AuthorID: "a", Action: domain.ActionUpvote}, delta{actor: 2}},
		{"view", Interaction{UserID: "v", AuthorID: "a", Action: domain.ActionView}, delta{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reputation(tc.ev))
		})
	}
}

type captureBus struct{ topics []string }

func (b *captureBus) Publish(topic string, _ ...any) { b.topics = append(b.topics, topic) }

func TestPublish_SkipsNilBusAndAnonymous(t *testing.T) {
	Publish(nil, Interaction{UserID: "u"})
	PublishSignIn(nil, "u")

	b := &captureBus{}
	Publish(b, Interaction{})
	PublishSignIn(b, "")
	assert.Empty(t, b.topics)

	Publish(b, Interaction{UserID: "u", Action: domain.ActionView})
	PublishSignIn(b, "u")
	assert.Equal(t, []string{TopicInteraction, TopicUserSignedIn}, b.topics)
}

func TestRecorder_PersistsInteractionAndReputation(t *testing.T) {
	db := newEventsDB(t)
	ctx := context.Background()
	author := &domain.User{Name: "Ada", Username: "ada", Email: "ada@example.com"}
	voter := &domain.User{Name: "Bob", Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.CreateUser(ctx, db, author))
	require.NoError(t, repo.CreateUser(ctx, db, voter))

	bus := NewBus(10)
	rec, err := NewRecorder(bus, repo.StaticConnector(db))
	require.NoError(t, err)
	t.Cleanup(rec.Close)

	Publish(bus, Interaction{
		UserID:     voter.ID,
		AuthorID:   author.ID,
		Action:     domain.ActionUpvote,
		ActionID:   uuid.NewString(),
		ActionType: domain.ActionTypeQuestion,
	})

	assert.Eventually(t, func() bool {
		got, err := repo.GetUser(ctx, db, author.ID)
		return err == nil && got.Reputation == 10
	}, 2*time.Second, 10*time.Millisecond)

	got, err := repo.GetUser(ctx, db, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Reputation)

	list, err := repo.ListInteractions(ctx, db, voter.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ActionUpvote, list[0].Action)
}

func TestRecorder_RecordIgnoresMissingAuthor(t *testing.T) {
	db := newEventsDB(t)
	ctx := context.Background()
	u := &domain.User{Name: "Ada", Username: "ada", Email: "ada@example.com"}
	require.NoError(t, repo.CreateUser(ctx, db, u))

	r := &Recorder{conn: repo.StaticConnector(db)}
	err := r.Record(ctx, Interaction{
		UserID: u.ID, AuthorID: "gone", Action: domain.ActionUpvote,
		ActionID: "q1", ActionType: domain.ActionTypeQuestion,
	})
	require.NoError(t, err)

	got, _ := repo.GetUser(ctx, db, u.ID)
	assert.Equal(t, 2, got.Reputation)
}
