// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for votes, saved
// collections and recorded interactions.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/domain"
)

// GetVote returns the vote authorID holds on the target, or ErrNotFound.
func GetVote(ctx context.Context, db *gorm.DB, authorID, actionID, actionType string) (*domain.Vote, error) {
	var v domain.Vote
	err := db.WithContext(ctx).
		Where("author_id = ? AND action_id = ? AND action_type = ?", authorID, actionID, actionType).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVote inserts v, assigning a UUID when ID is empty.
func CreateVote(ctx context.Context, db *gorm.DB, v *domain.Vote) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return translate(db.WithContext(ctx).Create(v).Error)
}

// UpdateVoteType switches an existing vote to voteType.
func UpdateVoteType(ctx context.Context, db *gorm.DB, id, voteType string) error {
	return db.WithContext(ctx).Model(&domain.Vote{}).Where("id = ?", id).
		Updates(map[string]any{"vote_type": voteType, "updated_at": time.Now().UTC()}).Error
}

// DeleteVote removes vote id.
func DeleteVote(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Vote{}).Error
}

// DeleteVotesFor removes every vote targeting one of actionIDs.
func DeleteVotesFor(ctx context.Context, db *gorm.DB, actionIDs []string) error {
	if len(actionIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Where("action_id IN ?", actionIDs).Delete(&domain.Vote{}).Error
}

// ---- collections ----

// GetCollection returns authorID's saved entry for a question, or ErrNotFound.
func GetCollection(ctx context.Context, db *gorm.DB, authorID, questionID string) (*domain.Collection, error) {
	var c domain.Collection
	err := db.WithContext(ctx).Where("author_id = ? AND question_id = ?", authorID, questionID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCollection saves a question for authorID.
func CreateCollection(ctx context.Context, db *gorm.DB, authorID, questionID string) (*domain.Collection, error) {
	c := &domain.Collection{ID: uuid.NewString(), AuthorID: authorID, QuestionID: questionID}
	if err := db.WithContext(ctx).Omit("Question").Create(c).Error; err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// DeleteCollection removes a saved entry.
func DeleteCollection(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Collection{}).Error
}

// CountCollections returns how many questions authorID saved.
func CountCollections(ctx context.Context, db *gorm.DB, authorID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Collection{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

// ListCollectionsPage returns one page of authorID's saved questions, most
// recently saved first, with the question and its author loaded.
func ListCollectionsPage(ctx context.Context, db *gorm.DB, authorID string, offset, limit int) ([]domain.Collection, error) {
	var out []domain.Collection
	err := db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	qs := make([]domain.Question, 0, len(out))
	for _, c := range out {
		if c.Question != nil {
			qs = append(qs, *c.Question)
		}
	}
	if err := attachTags(ctx, db, qs); err != nil {
		return nil, err
	}
	i := 0
	for k := range out {
		if out[k].Question != nil {
			out[k].Question.Tags = qs[i].Tags
			i++
		}
	}
	return out, nil
}

// ---- interactions ----

// CreateInteraction records one interaction.
func CreateInteraction(ctx context.Context, db *gorm.DB, in *domain.Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(in).Error
}

// ListInteractions returns the latest interactions of a user.
func ListInteractions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Interaction, error) {
	var out []domain.Interaction
	err := db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
