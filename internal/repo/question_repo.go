// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for questions,
// answers and tags.
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/domain"
)

// Question list orders.
const (
	SortNewest     = "newest"
	SortPopular    = "popular"
	SortUnanswered = "unanswered"
	SortOldest     = "oldest"
	SortName       = "name"
	SortRecent     = "recent"
)

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	Query    string // case-insensitive substring of title or content
	TagID    string // only questions carrying this tag
	AuthorID string
	Sort     string // newest (default), oldest, popular, unanswered
}

func (f QuestionFilter) apply(q *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", like, like)
	}
	if f.TagID != "" {
		q = q.Where("id IN (?)", q.Session(&gorm.Session{NewDB: true}).
			Model(&domain.TagQuestion{}).Select("question_id").Where("tag_id = ?", f.TagID))
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Sort == SortUnanswered {
		q = q.Where("answers = 0")
	}
	return q
}

func (f QuestionFilter) order() string {
	switch f.Sort {
	case SortPopular:
		return "upvotes DESC, created_at DESC"
	case SortOldest:
		return "created_at ASC"
	default:
		return "created_at DESC"
	}
}

// CreateQuestion inserts q, assigning a UUID when ID is empty.
func CreateQuestion(ctx context.Context, db *gorm.DB, q *domain.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Omit("Author").Create(q).Error
}

// GetQuestion fetches a question with its author and tags.
func GetQuestion(ctx context.Context, db *gorm.DB, id string) (*domain.Question, error) {
	var q domain.Question
	if err := db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	qs := []domain.Question{q}
	if err := attachTags(ctx, db, qs); err != nil {
		return nil, err
	}
	return &qs[0], nil
}

// CountQuestions returns the number of questions matching f.
func CountQuestions(ctx context.Context, db *gorm.DB, f QuestionFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Question{})).Count(&n).Error
	return n, err
}

// ListQuestionsPage returns one page of questions matching f with authors
// and tags attached.
func ListQuestionsPage(ctx context.Context, db *gorm.DB, f QuestionFilter, offset, limit int) ([]domain.Question, error) {
	var out []domain.Question
	err := f.apply(db.WithContext(ctx).Model(&domain.Question{})).
		Preload("Author").
		Order(f.order()).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, attachTags(ctx, db, out)
}

// RecentQuestions returns up to limit questions, newest first, without
// associations. Used to feed the search index.
func RecentQuestions(ctx context.Context, db *gorm.DB, limit int) ([]domain.Question, error) {
	var out []domain.Question
	err := db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// QuestionsByIDs loads questions (with authors and tags) and returns them in
// the order of ids. Unknown IDs are skipped.
func QuestionsByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}
	var rows []domain.Question
	if err := db.WithContext(ctx).Preload("Author").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(rows))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, attachTags(ctx, db, out)
}

// UpdateQuestion applies the given column values to question id. Callers
// check existence first; drivers differ on whether unchanged rows count as
// affected.
func UpdateQuestion(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.Question{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteQuestion removes question id. Answers, tag links and saved entries
// go with it through the foreign key cascades.
func DeleteQuestion(ctx context.Context, db *gorm.DB, id string) error {
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Question{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var counterColumns = map[string]bool{
	"views":     true,
	"upvotes":   true,
	"downvotes": true,
	"answers":   true,
}

// IncrementQuestionCounter adds delta to one of the question counters
// (views, upvotes, downvotes, answers).
func IncrementQuestionCounter(ctx context.Context, db *gorm.DB, id, column string, delta int) error {
	return incrementCounter(ctx, db, &domain.Question{}, id, column, delta)
}

// IncrementAnswerCounter adds delta to upvotes or downvotes of an answer.
func IncrementAnswerCounter(ctx context.Context, db *gorm.DB, id, column string, delta int) error {
	if column == "views" || column == "answers" {
		return fmt.Errorf("unknown answer counter %q", column)
	}
	return incrementCounter(ctx, db, &domain.Answer{}, id, column, delta)
}

func incrementCounter(ctx context.Context, db *gorm.DB, model any, id, column string, delta int) error {
	if !counterColumns[column] {
		return fmt.Errorf("unknown counter %q", column)
	}
	if delta == 0 {
		return nil
	}
	tx := db.WithContext(ctx).Model(model).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- answers ----

// CreateAnswer inserts a, assigning a UUID when ID is empty.
func CreateAnswer(ctx context.Context, db *gorm.DB, a *domain.Answer) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Omit("Author", "Question").Create(a).Error
}

// GetAnswer fetches an answer with its author.
func GetAnswer(ctx context.Context, db *gorm.DB, id string) (*domain.Answer, error) {
	var a domain.Answer
	if err := db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CountAnswers returns the number of answers for a question.
func CountAnswers(ctx context.Context, db *gorm.DB, questionID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Answer{}).Where("question_id = ?", questionID).Count(&n).Error
	return n, err
}

// ListAnswersPage returns one page of answers for a question, oldest first.
func ListAnswersPage(ctx context.Context, db *gorm.DB, questionID string, offset, limit int) ([]domain.Answer, error) {
	var out []domain.Answer
	err := db.WithContext(ctx).
		Preload("Author").
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AnswerIDsForQuestion returns the IDs of all answers to a question.
func AnswerIDsForQuestion(ctx context.Context, db *gorm.DB, questionID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&domain.Answer{}).Where("question_id = ?", questionID).Pluck("id", &ids).Error
	return ids, err
}

// DeleteAnswer removes answer id.
func DeleteAnswer(ctx context.Context, db *gorm.DB, id string) error {
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Answer{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- tags ----

// NormalizeTagName trims and lower-cases a tag name.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UpsertTag returns the tag called name, creating it when missing. Names are
// normalised first. A concurrent insert of the same name is resolved by
// reading the winner back.
func UpsertTag(ctx context.Context, db *gorm.DB, name string) (*domain.Tag, error) {
	name = NormalizeTagName(name)
	var t domain.Tag
	err := db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	if err == nil {
		return &t, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	t = domain.Tag{ID: uuid.NewString(), Name: name}
	if err := db.WithContext(ctx).Create(&t).Error; err != nil {
		if !IsUniqueViolation(err) {
			return nil, err
		}
		if err := db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// LinkTag attaches tag to question and bumps the tag's question count.
func LinkTag(ctx context.Context, db *gorm.DB, tagID, questionID string) error {
	link := &domain.TagQuestion{ID: uuid.NewString(), TagID: tagID, QuestionID: questionID}
	if err := db.WithContext(ctx).Omit("Tag", "Question").Create(link).Error; err != nil {
		return translate(err)
	}
	return db.WithContext(ctx).Model(&domain.Tag{}).Where("id = ?", tagID).
		UpdateColumn("questions", gorm.Expr("questions + 1")).Error
}

// UnlinkQuestionTags detaches every tag from a question and decrements the
// tags' question counts.
func UnlinkQuestionTags(ctx context.Context, db *gorm.DB, questionID string) error {
	var tagIDs []string
	if err := db.WithContext(ctx).Model(&domain.TagQuestion{}).
		Where("question_id = ?", questionID).Pluck("tag_id", &tagIDs).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Where("question_id = ?", questionID).Delete(&domain.TagQuestion{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&domain.Tag{}).Where("id IN ? AND questions > 0", tagIDs).
		UpdateColumn("questions", gorm.Expr("questions - 1")).Error
}

type questionTagRow struct {
	QuestionID string
	ID         string
	Name       string
	Questions  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TagsForQuestions returns the tags of each question, keyed by question ID
// and sorted by name.
func TagsForQuestions(ctx context.Context, db *gorm.DB, questionIDs []string) (map[string][]domain.Tag, error) {
	out := make(map[string][]domain.Tag, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}
	var rows []questionTagRow
	err := db.WithContext(ctx).
		Table("tag_questions").
		Select("tag_questions.question_id, tags.id, tags.name, tags.questions, tags.created_at, tags.updated_at").
		Joins("JOIN tags ON tags.id = tag_questions.tag_id").
		Where("tag_questions.question_id IN ?", questionIDs).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.QuestionID] = append(out[r.QuestionID], domain.Tag{
			ID:        r.ID,
			Name:      r.Name,
			Questions: r.Questions,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

func attachTags(ctx context.Context, db *gorm.DB, qs []domain.Question) error {
	if len(qs) == 0 {
		return nil
	}
	ids := make([]string, len(qs))
	for i := range qs {
		ids[i] = qs[i].ID
	}
	byQuestion, err := TagsForQuestions(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range qs {
		qs[i].Tags = byQuestion[qs[i].ID]
		if qs[i].Tags == nil {
			qs[i].Tags = []domain.Tag{}
		}
	}
	return nil
}

// GetTag fetches a tag by ID.
func GetTag(ctx context.Context, db *gorm.DB, id string) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TagFilter narrows tag listings.
type TagFilter struct {
	Query string // case-insensitive substring of the name
	Sort  string // popular (default), name, recent, oldest
}

func (f TagFilter) apply(q *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("name LIKE ?", "%"+NormalizeTagName(s)+"%")
	}
	return q
}

func (f TagFilter) order() string {
	switch f.Sort {
	case SortName:
		return "name ASC"
	case SortRecent:
		return "created_at DESC"
	case SortOldest:
		return "created_at ASC"
	default:
		return "questions DESC, name ASC"
	}
}

// CountTags returns the number of tags matching f.
func CountTags(ctx context.Context, db *gorm.DB, f TagFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Tag{})).Count(&n).Error
	return n, err
}

// ListTagsPage returns one page of tags matching f.
func ListTagsPage(ctx context.Context, db *gorm.DB, f TagFilter, offset, limit int) ([]domain.Tag, error) {
	var out []domain.Tag
	err := f.apply(db.WithContext(ctx).Model(&domain.Tag{})).
		Order(f.order()).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
