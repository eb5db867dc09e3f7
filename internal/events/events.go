// Package events carries in-process notifications about user activity.
// Services publish on the bus; the Recorder persists interactions and keeps
// reputation up to date without blocking the request.
package events

const TopicInteraction = "interaction:recorded"
const TopicUserSignedIn = "auth:signin"

// Bus is the publishing half of the message bus.
type Bus interface {
	Publish(topic string, args ...any)
}

// Interaction describes something UserID did to a question or answer.
// AuthorID owns the target. Previous holds the vote type being replaced or
// removed by an upvote, downvote or unvote.
type Interaction struct {
	UserID     string
	Action     string
	ActionID   string
	ActionType string
	AuthorID   string
	Previous   string
}

// Publish sends ev when bus is set.
func Publish(bus Bus, ev Interaction) {
	if bus == nil || ev.UserID == "" {
		return
	}
	bus.Publish(TopicInteraction, ev)
}

// PublishSignIn announces a successful sign-in of userID.
func PublishSignIn(bus Bus, userID string) {
	if bus == nil || userID == "" {
		return
	}
	bus.Publish(TopicUserSignedIn, userID)
}
