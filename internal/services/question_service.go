package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/search"
	"github.com/tbourn/go-devflow-backend/internal/utils"
)

// QuestionService implements asking, editing, listing and searching
// questions.
type QuestionService struct {
	Gate *Gate
	Bus  events.Bus

	// SearchCandidates caps how many recent questions are indexed per search.
	SearchCandidates int
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(g *Gate, bus events.Bus, candidates int) *QuestionService {
	if candidates <= 0 {
		candidates = 500
	}
	return &QuestionService{Gate: g, Bus: bus, SearchCandidates: candidates}
}

// SearchHit is one ranked search result with its question.
type SearchHit struct {
	search.Result
	Question domain.Question `json:"question"`
}

// ViewCount is returned after recording a view.
type ViewCount struct {
	Views int `json:"views"`
}

func (p ListParams) questionFilter() repo.QuestionFilter {
	return repo.QuestionFilter{Query: p.Query, Sort: p.Sort}
}

// List returns one page of questions.
func (s *QuestionService) List(ctx context.Context, p ListParams) (utils.Page[domain.Question], error) {
	r, err := Run(ctx, s.Gate, Options[ListParams]{Params: &p})
	if err != nil {
		return utils.Page[domain.Question]{}, err
	}
	return listQuestions(ctx, r.DB, p.questionFilter(), p.Page, p.PageSize)
}

// Stats returns the number of questions matching p and their newest update,
// for conditional responses.
func (s *QuestionService) Stats(ctx context.Context, p ListParams) (int64, *time.Time, error) {
	r, err := Run(ctx, s.Gate, Options[ListParams]{Params: &p})
	if err != nil {
		return 0, nil, err
	}
	n, last, err := repo.QuestionsStats(ctx, r.DB, p.questionFilter())
	if err != nil {
		return 0, nil, apperr.Wrap(err)
	}
	return n, last, nil
}

func listQuestions(ctx context.Context, db *gorm.DB, f repo.QuestionFilter, page, size int) (utils.Page[domain.Question], error) {
	page, size = utils.ClampPage(page, size)
	total, err := repo.CountQuestions(ctx, db, f)
	if err != nil {
		return utils.Page[domain.Question]{}, apperr.Wrap(err)
	}
	items, err := repo.ListQuestionsPage(ctx, db, f, utils.Offset(page, size), size)
	if err != nil {
		return utils.Page[domain.Question]{}, apperr.Wrap(err)
	}
	return utils.NewPage(items, page, size, total), nil
}

// Get returns question id with its author and tags.
func (s *QuestionService) Get(ctx context.Context, p IDParams) (*domain.Question, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	q, err := repo.GetQuestion(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Question")
	}
	return q, nil
}

// Ask creates a question authored by the caller and links its tags.
func (s *QuestionService) Ask(ctx context.Context, p AskQuestionParams) (*domain.Question, error) {
	r, err := Run(ctx, s.Gate, Options[AskQuestionParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	q := &domain.Question{
		Title:    strings.TrimSpace(p.Title),
		Content:  p.Content,
		AuthorID: r.Session.UserID,
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateQuestion(ctx, tx, q); err != nil {
			return err
		}
		return linkTags(ctx, tx, q.ID, p.Tags)
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	events.Publish(s.Bus, events.Interaction{
		UserID:     q.AuthorID,
		Action:     domain.ActionPost,
		ActionID:   q.ID,
		ActionType: domain.ActionTypeQuestion,
		AuthorID:   q.AuthorID,
	})
	return s.reload(ctx, r.DB, q.ID)
}

// Edit replaces the title, content and tags of a question the caller wrote.
func (s *QuestionService) Edit(ctx context.Context, p EditQuestionParams) (*domain.Question, error) {
	r, err := Run(ctx, s.Gate, Options[EditQuestionParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	q, err := repo.GetQuestion(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Question")
	}
	if q.AuthorID != r.Session.UserID {
		return nil, apperr.Forbidden(MsgNotAuthor)
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateQuestion(ctx, tx, q.ID, map[string]any{
			"title":      strings.TrimSpace(p.Title),
			"content":    p.Content,
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return err
		}
		if err := repo.UnlinkQuestionTags(ctx, tx, q.ID); err != nil {
			return err
		}
		return linkTags(ctx, tx, q.ID, p.Tags)
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	events.Publish(s.Bus, events.Interaction{
		UserID:     r.Session.UserID,
		Action:     domain.ActionEdit,
		ActionID:   q.ID,
		ActionType: domain.ActionTypeQuestion,
		AuthorID:   q.AuthorID,
	})
	return s.reload(ctx, r.DB, q.ID)
}

// Delete removes a question the caller wrote, with its answers, votes,
// saved entries and tag links.
func (s *QuestionService) Delete(ctx context.Context, p IDParams) (*domain.Question, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p, Authorize: true})
	if err != nil {
		return nil, err
	}
	q, err := repo.GetQuestion(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Question")
	}
	if q.AuthorID != r.Session.UserID {
		return nil, apperr.Forbidden(MsgNotAuthor)
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answerIDs, err := repo.AnswerIDsForQuestion(ctx, tx, q.ID)
		if err != nil {
			return err
		}
		if err := repo.DeleteVotesFor(ctx, tx, append(answerIDs, q.ID)); err != nil {
			return err
		}
		if err := repo.UnlinkQuestionTags(ctx, tx, q.ID); err != nil {
			return err
		}
		return repo.DeleteQuestion(ctx, tx, q.ID)
	})
	if err != nil {
		return nil, notFound(err, "Question")
	}

	events.Publish(s.Bus, events.Interaction{
		UserID:     r.Session.UserID,
		Action:     domain.ActionDelete,
		ActionID:   q.ID,
		ActionType: domain.ActionTypeQuestion,
		AuthorID:   q.AuthorID,
	})
	return q, nil
}

// IncrementViews records a view of question id. Signed-in viewers also get
// a view interaction.
func (s *QuestionService) IncrementViews(ctx context.Context, p IDParams) (*ViewCount, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	if err := repo.IncrementQuestionCounter(ctx, r.DB, p.ID, "views", 1); err != nil {
		return nil, notFound(err, "Question")
	}
	q, err := repo.GetQuestion(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Question")
	}

	if sess := s.Gate.OptionalSession(ctx); sess != nil {
		events.Publish(s.Bus, events.Interaction{
			UserID:     sess.UserID,
			Action:     domain.ActionView,
			ActionID:   q.ID,
			ActionType: domain.ActionTypeQuestion,
			AuthorID:   q.AuthorID,
		})
	}
	return &ViewCount{Views: q.Views}, nil
}

// Search ranks the most recent questions against p.Query.
func (s *QuestionService) Search(ctx context.Context, p SearchParams) ([]SearchHit, error) {
	r, err := Run(ctx, s.Gate, Options[SearchParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	recent, err := repo.RecentQuestions(ctx, r.DB, s.SearchCandidates)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	results := search.FromQuestions(recent).TopK(p.Query, p.K)
	if len(results) == 0 {
		return []SearchHit{}, nil
	}

	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	qs, err := repo.QuestionsByIDs(ctx, r.DB, ids)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	byID := make(map[string]domain.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}

	hits := make([]SearchHit, 0, len(results))
	for _, res := range results {
		if q, ok := byID[res.ID]; ok {
			hits = append(hits, SearchHit{Result: res, Question: q})
		}
	}
	return hits, nil
}

func (s *QuestionService) reload(ctx context.Context, db *gorm.DB, id string) (*domain.Question, error) {
	q, err := repo.GetQuestion(ctx, db, id)
	if err != nil {
		return nil, notFound(err, "Question")
	}
	return q, nil
}

// linkTags upserts each distinct tag name and links it to the question.
func linkTags(ctx context.Context, db *gorm.DB, questionID string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		n := repo.NormalizeTagName(name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		t, err := repo.UpsertTag(ctx, db, n)
		if err != nil {
			return err
		}
		if err := repo.LinkTag(ctx, db, t.ID, questionID); err != nil {
			return err
		}
	}
	return nil
}
