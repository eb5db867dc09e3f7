package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
)

type signUp struct {
	Username string `json:"username" validate:"required,username"`
	Name     string `json:"name" validate:"required,max=50,lettersspaces"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type oauthUser struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type oauth struct {
	Provider          string    `json:"provider" validate:"required,oneof=google github"`
	ProviderAccountID string    `json:"providerAccountId" validate:"required,providerid"`
	User              oauthUser `json:"user"`
}

type ask struct {
	Title string   `json:"title" validate:"required,min=5,max=100"`
	Tags  []string `json:"tags" validate:"min=1,max=3,dive,required,max=30"`
}

type profile struct {
	Image *string `json:"image" validate:"omitempty,url"`
	Bio   *string `json:"bio" validate:"omitempty,max=10"`
}

func fieldsOf(t *testing.T, err error) apperr.FieldErrors {
	t.Helper()
	require.Error(t, err)
	var ve *Errors
	require.True(t, errors.As(err, &ve), "expected *Errors, got %T", err)
	return ve.Fields
}

func TestStruct_Valid(t *testing.T) {
	err := Default().Struct(signUp{
		Username: "ada_lovelace",
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "Secr3t!x",
	})
	assert.NoError(t, err)
}

func TestStruct_MissingEmailIsRequired(t *testing.T) {
	err := Default().Struct(signUp{Username: "ada", Name: "Ada", Password: "Secr3t!x"})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"Required"}, fields.Get("email"))
	assert.Equal(t, "Email is required", apperr.From(err).Message)
}

func TestStruct_CollectsEveryPasswordProblem(t *testing.T) {
	err := Default().Struct(signUp{Username: "ada", Name: "Ada", Email: "ada@example.com", Password: "abc"})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{
		"Password must be at least 6 characters long.",
		"Password must contain at least one uppercase letter.",
		"Password must contain at least one number.",
		"Password must contain at least one special character.",
	}, fields.Get("password"))
}

func TestStruct_UsernameRules(t *testing.T) {
	cases := map[string][]string{
		"a__b": {
			"Username cannot contain consecutive underscores.",
			"Username cannot start or end with an underscore.",
		},
		"_ada": {"Username cannot start or end with an underscore."},
		"ad": {"Username must be at least 3 characters long."},
		"ada!": {
			"Username can only contain letters, numbers, and underscores.",
			"Username cannot contain consecutive underscores.",
			"Username cannot start or end with an underscore.",
		},
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			err := Default().Struct(signUp{Username: in, Name: "Ada", Email: "a@b.co", Password: "Secr3t!x"})
			assert.Equal(t, want, fieldsOf(t, err).Get("username"))
		})
	}
}

func TestStruct_NameLettersAndSpaces(t *testing.T) {
	err := Default().Struct(signUp{Username: "ada", Name: "Ada 2", Email: "a@b.co", Password: "Secr3t!x"})
	assert.Equal(t, []string{"Name can only contain letters and spaces."}, fieldsOf(t, err).Get("name"))
}

func TestStruct_NestedAndEnumKeys(t *testing.T) {
	err := Default().Struct(oauth{Provider: "gitlab", ProviderAccountID: "bad id", User: oauthUser{Name: "A", Email: "nope"}})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"Invalid enum value. Expected 'google' | 'github'"}, fields.Get("provider"))
	assert.Equal(t, []string{"Invalid Provider Account ID format."}, fields.Get("providerAccountId"))
	assert.Equal(t, []string{"Please provide a valid email address."}, fields.Get("user"))
}

func TestStruct_SliceMessages(t *testing.T) {
	err := Default().Struct(ask{Title: "Why?", Tags: nil})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"Title must be at least 5 characters long."}, fields.Get("title"))
	assert.Equal(t, []string{"At least one tag is required."}, fields.Get("tags"))

	err = Default().Struct(ask{Title: "Why is Go fast?", Tags: []string{"a", "b", "c", "d"}})
	assert.Equal(t, []string{"Cannot add more than 3 tags."}, fieldsOf(t, err).Get("tags"))

	err = Default().Struct(ask{Title: "Why is Go fast?", Tags: []string{"go", ""}})
	assert.Equal(t, []string{"Required"}, fieldsOf(t, err).Get("tags"))
}

func TestStruct_OptionalPointers(t *testing.T) {
	assert.NoError(t, Default().Struct(profile{}))

	bad := "not a url"
	long := "this bio is too long"
	err := Default().Struct(profile{Image: &bad, Bio: &long})
	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"Please provide a valid URL."}, fields.Get("image"))
	assert.Equal(t, []string{"Bio cannot exceed 10 characters."}, fields.Get("bio"))
}

func TestStruct_NonStructPassesThrough(t *testing.T) {
	err := Default().Struct(42)
	require.Error(t, err)
	var ve *Errors
	assert.False(t, errors.As(err, &ve))
}

func TestFieldKeyAndLabel(t *testing.T) {
	assert.Equal(t, "user", fieldKey("oauth.user.email"))
	assert.Equal(t, "tags", fieldKey("ask.tags[2]"))
	assert.Equal(t, "email", fieldKey("signUp.email"))
}
