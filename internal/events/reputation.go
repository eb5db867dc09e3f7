package events

import "github.com/tbourn/go-devflow-backend/internal/domain"

// delta is a reputation change for the acting user and the content author.
type delta struct {
	actor, author int
}

func (d delta) add(o delta) delta { return delta{d.actor + o.actor, d.author + o.author} }
func (d delta) neg() delta        { return delta{-d.actor, -d.author} }

func voteDelta(voteType string) delta {
	switch voteType {
	case domain.VoteUp:
		return delta{actor: 2, author: 10}
	case domain.VoteDown:
		return delta{actor: -1, author: -2}
	}
	return delta{}
}

// reputation returns the changes caused by ev. The author part is dropped
// when users act on their own content.
func reputation(ev Interaction) delta {
	var d delta
	switch ev.Action {
	case domain.ActionPost, domain.ActionDelete:
		pts := 5
		if ev.ActionType == domain.ActionTypeAnswer {
			pts = 10
		}
		if ev.Action == domain.ActionDelete {
			pts = -pts
		}
		return delta{author: pts}
	case domain.ActionUpvote, domain.ActionDownvote:
		d = voteDelta(ev.Action).add(voteDelta(ev.Previous).neg())
	case domain.ActionUnvote:
		d = voteDelta(ev.Previous).neg()
	default:
		return delta{}
	}
	if ev.AuthorID == "" || ev.AuthorID == ev.UserID {
		d.author = 0
	}
	return d
}
