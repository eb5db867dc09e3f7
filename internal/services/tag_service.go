package services

import (
	"context"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/utils"
)

// TagService lists tags and the questions carrying them.
type TagService struct {
	Gate *Gate
}

// NewTagService constructs a TagService.
func NewTagService(g *Gate) *TagService { return &TagService{Gate: g} }

// TagQuestions is a tag with one page of its questions.
type TagQuestions struct {
	Tag       domain.Tag                  `json:"tag"`
	Questions utils.Page[domain.Question] `json:"questions"`
}

// List returns one page of tags, most used first unless p.Sort says otherwise.
func (s *TagService) List(ctx context.Context, p ListParams) (utils.Page[domain.Tag], error) {
	r, err := Run(ctx, s.Gate, Options[ListParams]{Params: &p})
	if err != nil {
		return utils.Page[domain.Tag]{}, err
	}
	f := repo.TagFilter{Query: p.Query, Sort: p.Sort}
	page, size := utils.ClampPage(p.Page, p.PageSize)
	total, err := repo.CountTags(ctx, r.DB, f)
	if err != nil {
		return utils.Page[domain.Tag]{}, apperr.Wrap(err)
	}
	items, err := repo.ListTagsPage(ctx, r.DB, f, utils.Offset(page, size), size)
	if err != nil {
		return utils.Page[domain.Tag]{}, apperr.Wrap(err)
	}
	return utils.NewPage(items, page, size, total), nil
}

// Get returns tag id.
func (s *TagService) Get(ctx context.Context, p IDParams) (*domain.Tag, error) {
	r, err := Run(ctx, s.Gate, Options[IDParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	t, err := repo.GetTag(ctx, r.DB, p.ID)
	if err != nil {
		return nil, notFound(err, "Tag")
	}
	return t, nil
}

// Questions returns a tag and one page of its questions.
func (s *TagService) Questions(ctx context.Context, p ListTagQuestionsParams) (*TagQuestions, error) {
	r, err := Run(ctx, s.Gate, Options[ListTagQuestionsParams]{Params: &p})
	if err != nil {
		return nil, err
	}
	t, err := repo.GetTag(ctx, r.DB, p.TagID)
	if err != nil {
		return nil, notFound(err, "Tag")
	}
	f := repo.QuestionFilter{Query: p.Query, TagID: t.ID, Sort: p.Sort}
	qs, err := listQuestions(ctx, r.DB, f, p.Page, p.PageSize)
	if err != nil {
		return nil, err
	}
	return &TagQuestions{Tag: *t, Questions: qs}, nil
}
