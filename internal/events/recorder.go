package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	evbus "github.com/vardius/message-bus"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// NewBus returns a message bus whose subscribers buffer up to queueSize
// messages each.
func NewBus(queueSize int) evbus.MessageBus {
	return evbus.New(queueSize)
}

// Recorder persists published interactions and applies reputation changes.
type Recorder struct {
	bus  evbus.MessageBus
	conn *repo.Connector

	timeout time.Duration

	// subscribed callbacks, kept so Unsubscribe sees the same func values
	onInteraction func(Interaction)
	onSignIn      func(string)
}

// NewRecorder subscribes a Recorder to bus.
func NewRecorder(bus evbus.MessageBus, conn *repo.Connector) (*Recorder, error) {
	r := &Recorder{bus: bus, conn: conn, timeout: 10 * time.Second}
	r.onInteraction = r.interactionEvent
	r.onSignIn = r.signInEvent

	if err := r.bus.Subscribe(TopicInteraction, r.onInteraction); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicInteraction, err)
	}
	if err := r.bus.Subscribe(TopicUserSignedIn, r.onSignIn); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicUserSignedIn, err)
	}
	return r, nil
}

// Close unsubscribes the recorder; queued messages are dropped.
func (r *Recorder) Close() {
	_ = r.bus.Unsubscribe(TopicInteraction, r.onInteraction)
	_ = r.bus.Unsubscribe(TopicUserSignedIn, r.onSignIn)
}

func (r *Recorder) interactionEvent(ev Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.Record(ctx, ev); err != nil {
		log.Error().Err(err).
			Str("user_id", ev.UserID).
			Str("action", ev.Action).
			Str("action_id", ev.ActionID).
			Msg("failed to record interaction")
	}
}

func (r *Recorder) signInEvent(userID string) {
	log.Debug().Str("user_id", userID).Msg("user signed in")
}

// Record stores ev and its reputation changes in one transaction.
func (r *Recorder) Record(ctx context.Context, ev Interaction) error {
	db, err := r.conn.Connect(ctx)
	if err != nil {
		return err
	}
	d := reputation(ev)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := repo.CreateInteraction(ctx, tx, &domain.Interaction{
			UserID:     ev.UserID,
			Action:     ev.Action,
			ActionID:   ev.ActionID,
			ActionType: ev.ActionType,
		})
		if err != nil {
			return err
		}
		if err := applyReputation(ctx, tx, ev.UserID, d.actor); err != nil {
			return err
		}
		return applyReputation(ctx, tx, ev.AuthorID, d.author)
	})
}

// applyReputation ignores users that no longer exist.
func applyReputation(ctx context.Context, tx *gorm.DB, userID string, pts int) error {
	if userID == "" || pts == 0 {
		return nil
	}
	if err := repo.AddReputation(ctx, tx, userID, pts); err != nil && !repo.IsNotFound(err) {
		return err
	}
	return nil
}
