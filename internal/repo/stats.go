// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/domain"
)

// QuestionsStats returns the number of questions matching f and the greatest
// UpdatedAt among them. maxUpdatedAt is nil when nothing matches.
func QuestionsStats(ctx context.Context, db *gorm.DB, f QuestionFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	if count, err = CountQuestions(ctx, db, f); err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	return count, latestUpdate(f.apply(db.WithContext(ctx).Model(&domain.Question{})), &err), err
}

// AnswersStats returns the number of answers to a question and the greatest
// UpdatedAt among them.
func AnswersStats(ctx context.Context, db *gorm.DB, questionID string) (count int64, maxUpdatedAt *time.Time, err error) {
	if count, err = CountAnswers(ctx, db, questionID); err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	q := db.WithContext(ctx).Model(&domain.Answer{}).Where("question_id = ?", questionID)
	return count, latestUpdate(q, &err), err
}

// latestUpdate reads the newest updated_at of q (avoid MAX() -> TEXT in SQLite).
func latestUpdate(q *gorm.DB, errOut *error) *time.Time {
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		*errOut = err
		return nil
	}
	return &row.UpdatedAt
}
