package services

// Params accepted by the services. Field names in messages come from the json
// tags; the rules live in the validate tags.

// IDParams identifies a record by id.
type IDParams struct {
	ID string `json:"id" validate:"required"`
}

// EmailParams looks a user up by email.
type EmailParams struct {
	Email string `json:"email" validate:"required,email"`
}

// ProviderParams looks an account up by provider account id.
type ProviderParams struct {
	ProviderAccountID string `json:"providerAccountId" validate:"required,providerid"`
}

// CreateUserParams is the body of POST /users.
type CreateUserParams struct {
	Name       string `json:"name"                 validate:"required,max=50"`
	Username   string `json:"username"             validate:"required,username"`
	Email      string `json:"email"                validate:"required,email"`
	Bio        string `json:"bio,omitempty"        validate:"omitempty,max=1000"`
	Image      string `json:"image,omitempty"      validate:"omitempty,url"`
	Location   string `json:"location,omitempty"   validate:"omitempty,max=255"`
	Portfolio  string `json:"portfolio,omitempty"  validate:"omitempty,url"`
	Reputation *int   `json:"reputation,omitempty" validate:"omitempty,min=0"`
}

// UpdateUserParams is the body of PUT /users/:id. Nil fields are left alone.
type UpdateUserParams struct {
	ID         string  `json:"-"                    validate:"required"`
	Name       *string `json:"name,omitempty"       validate:"omitempty,min=1,max=50"`
	Username   *string `json:"username,omitempty"   validate:"omitempty,username"`
	Email      *string `json:"email,omitempty"      validate:"omitempty,email"`
	Bio        *string `json:"bio,omitempty"        validate:"omitempty,max=1000"`
	Image      *string `json:"image,omitempty"      validate:"omitempty,url"`
	Location   *string `json:"location,omitempty"   validate:"omitempty,max=255"`
	Portfolio  *string `json:"portfolio,omitempty"  validate:"omitempty,url"`
	Reputation *int    `json:"reputation,omitempty" validate:"omitempty,min=0"`
}

// CreateAccountParams is the body of POST /accounts.
type CreateAccountParams struct {
	UserID            string `json:"userId"            validate:"required"`
	Name              string `json:"name"              validate:"required,max=50"`
	Image             string `json:"image,omitempty"   validate:"omitempty,url"`
	Password          string `json:"password,omitempty" validate:"omitempty,password"`
	Provider          string `json:"provider"          validate:"required"`
	ProviderAccountID string `json:"providerAccountId" validate:"required,providerid"`
}

// UpdateAccountParams is the body of PUT /accounts/:id.
type UpdateAccountParams struct {
	ID       string  `json:"-"                  validate:"required"`
	Name     *string `json:"name,omitempty"     validate:"omitempty,min=1,max=50"`
	Image    *string `json:"image,omitempty"    validate:"omitempty,url"`
	Password *string `json:"password,omitempty" validate:"omitempty,password"`
}

// SignUpParams registers a user with email and password.
type SignUpParams struct {
	Name     string `json:"name"     validate:"required,max=50,lettersspaces"`
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// SignInParams signs in with email and password.
type SignInParams struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// OAuthUser is the identity reported by the OAuth provider.
type OAuthUser struct {
	Name     string `json:"name"            validate:"required,max=50"`
	Username string `json:"username"        validate:"required,username"`
	Email    string `json:"email"           validate:"required,email"`
	Image    string `json:"image,omitempty" validate:"omitempty,url"`
}

// OAuthParams signs in (or up) through an OAuth provider.
type OAuthParams struct {
	Provider          string    `json:"provider"          validate:"required,oneof=google github"`
	ProviderAccountID string    `json:"providerAccountId" validate:"required,providerid"`
	User              OAuthUser `json:"user"              validate:"required"`
}

// ListParams pages through a listing.
type ListParams struct {
	Page     int    `json:"page"     validate:"omitempty,min=1"`
	PageSize int    `json:"pageSize" validate:"omitempty,min=1,max=100"`
	Query    string `json:"query"    validate:"omitempty,max=100"`
	Sort     string `json:"sort"     validate:"omitempty,oneof=newest oldest popular unanswered recent name"`
}

// AskQuestionParams is the body of POST /questions.
type AskQuestionParams struct {
	Title   string   `json:"title"   validate:"required,min=5,max=100"`
	Content string   `json:"content" validate:"required,min=1"`
	Tags    []string `json:"tags"    validate:"min=1,max=3,dive,min=1,max=30"`
}

// EditQuestionParams is the body of PUT /questions/:id.
type EditQuestionParams struct {
	ID      string   `json:"-"       validate:"required"`
	Title   string   `json:"title"   validate:"required,min=5,max=100"`
	Content string   `json:"content" validate:"required,min=1"`
	Tags    []string `json:"tags"    validate:"min=1,max=3,dive,min=1,max=30"`
}

// SearchParams queries the question index.
type SearchParams struct {
	Query string `json:"q" validate:"required,max=200"`
	K     int    `json:"k" validate:"omitempty,min=1,max=50"`
}

// ListAnswersParams pages through the answers of a question.
type ListAnswersParams struct {
	QuestionID string `json:"questionId" validate:"required"`
	Page       int    `json:"page"       validate:"omitempty,min=1"`
	PageSize   int    `json:"pageSize"   validate:"omitempty,min=1,max=100"`
}

// CreateAnswerParams is the body of POST /questions/:id/answers.
type CreateAnswerParams struct {
	QuestionID string `json:"-"       validate:"required"`
	Content    string `json:"content" validate:"required,min=10"`
}

// VoteParams casts or toggles a vote.
type VoteParams struct {
	TargetID   string `json:"targetId"   validate:"required"`
	TargetType string `json:"targetType" validate:"required,oneof=question answer"`
	VoteType   string `json:"voteType"   validate:"required,oneof=upvote downvote"`
}

// VoteStatusParams asks how the caller voted on a target.
type VoteStatusParams struct {
	TargetID   string `json:"targetId"   validate:"required"`
	TargetType string `json:"targetType" validate:"required,oneof=question answer"`
}

// CollectionParams names a question to save or check.
type CollectionParams struct {
	QuestionID string `json:"questionId" validate:"required"`
}

// ListTagQuestionsParams pages through the questions of a tag.
type ListTagQuestionsParams struct {
	TagID    string `json:"tagId"    validate:"required"`
	Page     int    `json:"page"     validate:"omitempty,min=1"`
	PageSize int    `json:"pageSize" validate:"omitempty,min=1,max=100"`
	Query    string `json:"query"    validate:"omitempty,max=100"`
	Sort     string `json:"sort"     validate:"omitempty,oneof=newest oldest popular unanswered"`
}
