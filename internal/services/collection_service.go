package services

import (
	"context"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/utils"
)

// CollectionService manages the questions a user has saved.
type CollectionService struct {
	Gate *Gate
	Bus  events.Bus
}

// NewCollectionService constructs a CollectionService.
func NewCollectionService(g *Gate, bus events.Bus) *CollectionService {
	return &CollectionService{Gate: g, Bus: bus}
}

// SavedStatus tells whether a question is in the caller's collection.
type SavedStatus struct {
	Saved bool `json:"saved"`
}

// Toggle saves the question, or removes it when it is already saved.
func (s *CollectionService) Toggle(ctx context.Context, p CollectionParams) (*SavedStatus, error) {
	r, err := Run(ctx, s.Gate, Options[CollectionParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	q, err := repo.GetQuestion(ctx, r.DB, p.QuestionID)
	if err != nil {
		return nil, notFound(err, "Question")
	}
	userID := r.Session.UserID

	existing, err := repo.GetCollection(ctx, r.DB, userID, q.ID)
	switch {
	case err == nil:
		if err := repo.DeleteCollection(ctx, r.DB, existing.ID); err != nil {
			return nil, apperr.Wrap(err)
		}
		return &SavedStatus{Saved: false}, nil
	case !repo.IsNotFound(err):
		return nil, apperr.Wrap(err)
	}

	if _, err := repo.CreateCollection(ctx, r.DB, userID, q.ID); err != nil && !repo.IsUniqueViolation(err) {
		return nil, apperr.Wrap(err)
	}
	events.Publish(s.Bus, events.Interaction{
		UserID:     userID,
		Action:     domain.ActionBookmark,
		ActionID:   q.ID,
		ActionType: domain.ActionTypeQuestion,
		AuthorID:   q.AuthorID,
	})
	return &SavedStatus{Saved: true}, nil
}

// Status reports whether the caller saved the question.
func (s *CollectionService) Status(ctx context.Context, p CollectionParams) (*SavedStatus, error) {
	r, err := Run(ctx, s.Gate, Options[CollectionParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	_, err = repo.GetCollection(ctx, r.DB, r.Session.UserID, p.QuestionID)
	if repo.IsNotFound(err) {
		return &SavedStatus{}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &SavedStatus{Saved: true}, nil
}

// List returns one page of the caller's saved questions, newest first.
func (s *CollectionService) List(ctx context.Context, p ListParams) (utils.Page[domain.Collection], error) {
	r, err := Run(ctx, s.Gate, Options[ListParams]{Params: &p, Authorize: true})
	if err != nil {
		return utils.Page[domain.Collection]{}, err
	}
	page, size := utils.ClampPage(p.Page, p.PageSize)
	total, err := repo.CountCollections(ctx, r.DB, r.Session.UserID)
	if err != nil {
		return utils.Page[domain.Collection]{}, apperr.Wrap(err)
	}
	items, err := repo.ListCollectionsPage(ctx, r.DB, r.Session.UserID, utils.Offset(page, size), size)
	if err != nil {
		return utils.Page[domain.Collection]{}, apperr.Wrap(err)
	}
	return utils.NewPage(items, page, size, total), nil
}
