// Package domain defines the persistence models of the Q&A application:
// users and their sign-in accounts, questions, answers, tags, votes, saved
// collections and recorded interactions. The types are mapped with GORM and
// shared by the repository, service and HTTP layers.
package domain

import (
	"time"
)

// Allowed values of Vote.ActionType and Interaction.ActionType.
const (
	ActionTypeQuestion = "question"
	ActionTypeAnswer   = "answer"
)

// Allowed values of Vote.VoteType.
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Recorded Interaction.Action values.
const (
	ActionView     = "view"
	ActionPost     = "post"
	ActionEdit     = "edit"
	ActionDelete   = "delete"
	ActionUpvote   = "upvote"
	ActionDownvote = "downvote"
	ActionUnvote   = "unvote"
	ActionBookmark = "bookmark"
)

// User is a registered member. Email and username are unique.
type User struct {
	ID         string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	Name       string    `json:"name"                gorm:"size:50;not null"`
	Username   string    `json:"username"            gorm:"size:30;not null;uniqueIndex:ux_users_username"`
	Email      string    `json:"email"               gorm:"size:255;not null;uniqueIndex:ux_users_email"`
	Bio        string    `json:"bio,omitempty"       gorm:"type:text"`
	Image      string    `json:"image,omitempty"     gorm:"size:2048"`
	Location   string    `json:"location,omitempty"  gorm:"size:255"`
	Portfolio  string    `json:"portfolio,omitempty" gorm:"size:2048"`
	Reputation int       `json:"reputation"          gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Account links a user to a sign-in method. Provider "credentials" accounts
// carry a bcrypt password hash, which is never serialised.
type Account struct {
	ID                string    `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID            string    `json:"userId"            gorm:"type:char(36);not null;index"`
	Name              string    `json:"name"              gorm:"size:50;not null"`
	Image             string    `json:"image,omitempty"   gorm:"size:2048"`
	Password          string    `json:"-"                 gorm:"size:255"`
	Provider          string    `json:"provider"          gorm:"size:32;not null;uniqueIndex:ux_accounts_provider,priority:1"`
	ProviderAccountID string    `json:"providerAccountId" gorm:"size:255;not null;uniqueIndex:ux_accounts_provider,priority:2"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	User *User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// Question is a post asking for help. Counters are maintained by the
// answer, vote and view operations.
type Question struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title"     gorm:"size:100;not null"`
	Content   string    `json:"content"   gorm:"type:text;not null"`
	Views     int       `json:"views"     gorm:"not null;default:0"`
	Upvotes   int       `json:"upvotes"   gorm:"not null;default:0"`
	Downvotes int       `json:"downvotes" gorm:"not null;default:0"`
	Answers   int       `json:"answers"   gorm:"not null;default:0"`
	AuthorID  string    `json:"authorId"  gorm:"type:char(36);not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tags   []Tag `json:"tags"             gorm:"-"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }

// Answer is a reply to a question.
type Answer struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	AuthorID   string    `json:"authorId"   gorm:"type:char(36);not null;index"`
	QuestionID string    `json:"questionId" gorm:"type:char(36);not null;index:idx_question_answers,priority:1"`
	Content    string    `json:"content"    gorm:"type:text;not null"`
	Upvotes    int       `json:"upvotes"    gorm:"not null;default:0"`
	Downvotes  int       `json:"downvotes"  gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"  gorm:"index:idx_question_answers,priority:2"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Author   *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Question *Question `json:"-"                gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Answer.
func (Answer) TableName() string { return "answers" }

// Tag labels questions. Names are stored lower-cased; Questions counts the
// questions currently carrying the tag.
type Tag struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"size:30;not null;uniqueIndex:ux_tags_name"`
	Questions int       `json:"questions" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// TagQuestion joins tags and questions.
type TagQuestion struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	TagID      string    `json:"tagId"      gorm:"type:char(36);not null;uniqueIndex:ux_tag_question,priority:1"`
	QuestionID string    `json:"questionId" gorm:"type:char(36);not null;uniqueIndex:ux_tag_question,priority:2;index"`
	CreatedAt  time.Time `json:"createdAt"`

	Tag      *Tag      `json:"-" gorm:"foreignKey:TagID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Question *Question `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TagQuestion.
func (TagQuestion) TableName() string { return "tag_questions" }

// Vote is one user's up- or downvote on a question or answer. A user holds
// at most one vote per target.
type Vote struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	AuthorID   string    `json:"authorId"   gorm:"type:char(36);not null;uniqueIndex:ux_vote_target,priority:1"`
	ActionID   string    `json:"actionId"   gorm:"type:char(36);not null;uniqueIndex:ux_vote_target,priority:2;index"`
	ActionType string    `json:"actionType" gorm:"size:16;not null;uniqueIndex:ux_vote_target,priority:3;check:action_type IN ('question','answer')"`
	VoteType   string    `json:"voteType"   gorm:"size:16;not null;check:vote_type IN ('upvote','downvote')"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }

// Collection is a question saved by a user.
type Collection struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	AuthorID   string    `json:"authorId"   gorm:"type:char(36);not null;uniqueIndex:ux_collection_entry,priority:1"`
	QuestionID string    `json:"questionId" gorm:"type:char(36);not null;uniqueIndex:ux_collection_entry,priority:2;index"`
	CreatedAt  time.Time `json:"createdAt"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Collection.
func (Collection) TableName() string { return "collections" }

// Interaction records something a user did, for activity feeds and
// recommendations.
type Interaction struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"userId"     gorm:"type:char(36);not null;index:idx_user_interactions,priority:1"`
	Action     string    `json:"action"     gorm:"size:32;not null"`
	ActionID   string    `json:"actionId"   gorm:"type:char(36);not null"`
	ActionType string    `json:"actionType" gorm:"size:16;not null;check:action_type IN ('question','answer')"`
	CreatedAt  time.Time `json:"createdAt"  gorm:"index:idx_user_interactions,priority:2"`
}

// TableName returns the database table name for Interaction.
func (Interaction) TableName() string { return "interactions" }
