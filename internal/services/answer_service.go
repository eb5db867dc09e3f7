package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/utils"
)

// AnswerService manages answers to questions.
type AnswerService struct {
	Gate *Gate
	Bus  events.Bus
}

// NewAnswerService constructs an AnswerService.
func NewAnswerService(g *Gate, bus events.Bus) *AnswerService {
	return &AnswerService{Gate: g, Bus: bus}
}

// List returns one page of answers to a question, oldest first.
func (s *AnswerService) List(ctx context.Context, p ListAnswersParams) (utils.Page[domain.Answer], error) {
	r, err := Run(ctx, s.Gate, Options[ListAnswersParams]{Params: &p})
	if err != nil {
		return utils.Page[domain.Answer]{}, err
	}
	if _, err := repo.GetQuestion(ctx, r.DB, p.QuestionID); err != nil {
		return utils.Page[domain.Answer]{}, notFound(err, "Question")
	}

	page, size := utils.ClampPage(p.Page, p.PageSize)
	total, err := repo.CountAnswers(ctx, r.DB, p.QuestionID)
	if err != nil {
		return utils.Page[domain.Answer]{}, apperr.Wrap(err)
	}
	items, err := repo.ListAnswersPage(ctx, r.DB, p.QuestionID, utils.Offset(page, size), size)
	if err != nil {
		return utils.Page[domain.Answer]{}, apperr.Wrap(err)
	}
	return utils.NewPage(items, page, size, total), nil
}

// Stats returns the answer count of a question and the newest update.
func (s *AnswerService) Stats(ctx context.Context, questionID string) (int64, *time.Time, error) {
	p := IDParams{ID: questionID}
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return 0, nil, err
	}
	n, last, err := repo.AnswersStats(ctx, r.DB, questionID)
	if err != nil {
		return 0, nil, apperr.Wrap(err)
	}
	return n, last, nil
}

// Create posts an answer by the caller and bumps the question's answer count.
func (s *AnswerService) Create(ctx context.Context, p CreateAnswerParams) (*domain.Answer, error) {
	r, err := Run(ctx, s.Gate, Options[CreateAnswerParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	if _, err := repo.GetQuestion(ctx, r.DB, p.QuestionID); err != nil {
		return nil, notFound(err, "Question")
	}

	a := &domain.Answer{
		AuthorID:   r.Session.UserID,
		QuestionID: p.QuestionID,
		Content:    p.Content,
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateAnswer(ctx, tx, a); err != nil {
			return err
		}
		return repo.IncrementQuestionCounter(ctx, tx, p.QuestionID, "answers", 1)
	})
	if err != nil {
		return nil, notFound(err, "Question")
	}

	events.Publish(s.Bus, events.Interaction{
		UserID:     a.AuthorID,
		Action:     domain.ActionPost,
		ActionID:   a.ID,
		ActionType: domain.ActionTypeAnswer,
		AuthorID:   a.AuthorID,
	})
	out, err := repo.GetAnswer(ctx, r.DB, a.ID)
	if err != nil {
		return nil, notFound(err, "Answer")
	}
	return out, nil
}

// Delete removes an answer the caller wrote, with its votes.
func (s *AnswerService) Delete(ctx context.Context, p IDParams) (*domain.Answer, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	a, err := repo.GetAnswer(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Answer")
	}
	if a.AuthorID != r.Session.UserID {
		return nil, apperr.Forbidden(MsgNotAuthor)
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteVotesFor(ctx, tx, []string{a.ID}); err != nil {
			return err
		}
		if err := repo.DeleteAnswer(ctx, tx, a.ID); err != nil {
			return err
		}
		return repo.IncrementQuestionCounter(ctx, tx, a.QuestionID, "answers", -1)
	})
	if err != nil {
		return nil, notFound(err, "Answer")
	}

	events.Publish(s.Bus, events.Interaction{
		UserID:     r.Session.UserID,
		Action:     domain.ActionDelete,
		ActionID:   a.ID,
		ActionType: domain.ActionTypeAnswer,
		AuthorID:   a.AuthorID,
	})
	return a, nil
}
