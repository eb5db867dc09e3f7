package services

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// VoteService casts and reports votes on questions and answers.
type VoteService struct {
	Gate *Gate
	Bus  events.Bus
}

// NewVoteService constructs a VoteService.
func NewVoteService(g *Gate, bus events.Bus) *VoteService {
	return &VoteService{Gate: g, Bus: bus}
}

// VoteStatus tells how the caller voted on a target.
type VoteStatus struct {
	HasUpvoted   bool `json:"hasUpvoted"`
	HasDownvoted bool `json:"hasDownvoted"`
}

// VoteSummary is the target's counters after a vote and the caller's vote.
type VoteSummary struct {
	VoteStatus
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// target is the voted-on question or answer.
type target struct {
	authorID  string
	upvotes   int
	downvotes int
}

func loadTarget(ctx context.Context, db *gorm.DB, id, kind string) (*target, error) {
	if kind == domain.ActionTypeAnswer {
		a, err := repo.GetAnswer(ctx, db, id)
		if err != nil {
			return nil, notFound(err, "Answer")
		}
		return &target{a.AuthorID, a.Upvotes, a.Downvotes}, nil
	}
	q, err := repo.GetQuestion(ctx, db, id)
	if err != nil {
		return nil, notFound(err, "Question")
	}
	return &target{q.AuthorID, q.Upvotes, q.Downvotes}, nil
}

func bumpCounter(ctx context.Context, db *gorm.DB, id, kind, voteType string, delta int) error {
	column := "downvotes"
	if voteType == domain.VoteUp {
		column = "upvotes"
	}
	if kind == domain.ActionTypeAnswer {
		return repo.IncrementAnswerCounter(ctx, db, id, column, delta)
	}
	return repo.IncrementQuestionCounter(ctx, db, id, column, delta)
}

// Vote toggles the caller's vote: casting the vote they already hold removes
// it, casting the other type switches it, otherwise a new vote is recorded.
// Counters change in the same transaction.
func (s *VoteService) Vote(ctx context.Context, p VoteParams) (*VoteSummary, error) {
	r, err := Run(ctx, s.Gate, Options[VoteParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	userID := r.Session.UserID
	t, err := loadTarget(ctx, r.DB, p.TargetID, p.TargetType)
	if err != nil {
		return nil, err
	}

	ev := events.Interaction{
		UserID:     userID,
		Action:     p.VoteType,
		ActionID:   p.TargetID,
		ActionType: p.TargetType,
		AuthorID:   t.authorID,
	}
	var status VoteStatus
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.GetVote(ctx, tx, userID, p.TargetID, p.TargetType)
		switch {
		case repo.IsNotFound(err):
			v := &domain.Vote{AuthorID: userID, ActionID: p.TargetID, ActionType: p.TargetType, VoteType: p.VoteType}
			if err := repo.CreateVote(ctx, tx, v); err != nil {
				return err
			}
			status = statusOf(p.VoteType)
			return bumpCounter(ctx, tx, p.TargetID, p.TargetType, p.VoteType, 1)
		case err != nil:
			return err
		case existing.VoteType == p.VoteType:
			ev.Action, ev.Previous = domain.ActionUnvote, existing.VoteType
			if err := repo.DeleteVote(ctx, tx, existing.ID); err != nil {
				return err
			}
			return bumpCounter(ctx, tx, p.TargetID, p.TargetType, existing.VoteType, -1)
		default:
			ev.Previous = existing.VoteType
			if err := repo.UpdateVoteType(ctx, tx, existing.ID, p.VoteType); err != nil {
				return err
			}
			status = statusOf(p.VoteType)
			if err := bumpCounter(ctx, tx, p.TargetID, p.TargetType, existing.VoteType, -1); err != nil {
				return err
			}
			return bumpCounter(ctx, tx, p.TargetID, p.TargetType, p.VoteType, 1)
		}
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request recorded the first vote between the lookup
		// and the insert.
		return nil, apperr.New(http.StatusConflict, MsgVoteConflict)
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	events.Publish(s.Bus, ev)
	after, err := loadTarget(ctx, r.DB, p.TargetID, p.TargetType)
	if err != nil {
		return nil, err
	}
	return &VoteSummary{VoteStatus: status, Upvotes: after.upvotes, Downvotes: after.downvotes}, nil
}

// Status reports whether the caller has up- or downvoted a target.
func (s *VoteService) Status(ctx context.Context, p VoteStatusParams) (*VoteStatus, error) {
	r, err := Run(ctx, s.Gate, Options[VoteStatusParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	v, err := repo.GetVote(ctx, r.DB, r.Session.UserID, p.TargetID, p.TargetType)
	if repo.IsNotFound(err) {
		return &VoteStatus{}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	st := statusOf(v.VoteType)
	return &st, nil
}

func statusOf(voteType string) VoteStatus {
	return VoteStatus{HasUpvoted: voteType == domain.VoteUp, HasDownvoted: voteType == domain.VoteDown}
}
