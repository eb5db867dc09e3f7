package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

func TestUserService_CreateAndLookup(t *testing.T) {
	env := newEnv(t)
	svc := NewUserService(env.gate(""))
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateUserParams{Name: "Ada", Username: "ada_l", Email: "Ada@Example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)

	got, err := svc.Get(ctx, IDParams{ID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "ada_l", got.Username)

	got, err = svc.GetByEmail(ctx, EmailParams{Email: "ADA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserService_CreateErrors(t *testing.T) {
	env := newEnv(t)
	svc := NewUserService(env.gate(""))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserParams{Name: "Ada", Username: "ada"})
	requireAppErr(t, err, http.StatusBadRequest, "Email is required")

	_, err = svc.Create(ctx, CreateUserParams{Name: "Ada", Username: "ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateUserParams{Name: "Other", Username: "other", Email: "ADA@example.com"})
	requireAppErr(t, err, http.StatusInternalServerError, MsgUserExists)

	_, err = svc.Create(ctx, CreateUserParams{Name: "Other", Username: "ada", Email: "other@example.com"})
	requireAppErr(t, err, http.StatusInternalServerError, MsgUsernameExists)
}

func TestUserService_UniqueIndexRace(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	env.user(t, "taken")

	// Skip the read checks and hit the index directly.
	err := repo.CreateUser(ctx, env.db, &domain.User{Name: "X", Username: "fresh", Email: "taken@example.com"})
	require.ErrorIs(t, err, repo.ErrDuplicate)
	requireAppErr(t, duplicateUser(ctx, env.db, "taken@example.com", ""), http.StatusInternalServerError, MsgUserExists)
	requireAppErr(t, duplicateUser(ctx, env.db, "free@example.com", ""), http.StatusInternalServerError, MsgUsernameExists)
}

func TestUserService_NotFound(t *testing.T) {
	env := newEnv(t)
	svc := NewUserService(env.gate(""))
	ctx := context.Background()

	_, err := svc.Get(ctx, IDParams{ID: "missing"})
	requireAppErr(t, err, http.StatusNotFound, "User not found")
	_, err = svc.GetByEmail(ctx, EmailParams{Email: "nobody@example.com"})
	requireAppErr(t, err, http.StatusNotFound, "User not found")
	_, err = svc.Delete(ctx, IDParams{ID: "missing"})
	requireAppErr(t, err, http.StatusNotFound, "User not found")
	name := "X"
	_, err = svc.Update(ctx, UpdateUserParams{ID: "missing", Name: &name})
	requireAppErr(t, err, http.StatusNotFound, "User not found")
}

func TestUserService_UpdateAndDelete(t *testing.T) {
	env := newEnv(t)
	svc := NewUserService(env.gate(""))
	ctx := context.Background()
	ada := env.user(t, "ada")
	env.user(t, "bob")

	bio, rep := "Analyst", 42
	u, err := svc.Update(ctx, UpdateUserParams{ID: ada.ID, Bio: &bio, Reputation: &rep})
	require.NoError(t, err)
	assert.Equal(t, "Analyst", u.Bio)
	assert.Equal(t, 42, u.Reputation)
	assert.Equal(t, "ada", u.Username, "untouched fields stay")

	taken := "BOB@example.com"
	_, err = svc.Update(ctx, UpdateUserParams{ID: ada.ID, Email: &taken})
	requireAppErr(t, err, http.StatusInternalServerError, MsgUserExists)

	bad := "x"
	_, err = svc.Update(ctx, UpdateUserParams{ID: ada.ID, Username: &bad})
	requireAppErr(t, err, http.StatusBadRequest, "")

	require.NoError(t, repo.CreateAccount(ctx, env.db, &domain.Account{
		UserID: ada.ID, Name: "Ada", Provider: "github", ProviderAccountID: "gh-1",
	}))
	deleted, err := svc.Delete(ctx, IDParams{ID: ada.ID})
	require.NoError(t, err)
	assert.Equal(t, ada.ID, deleted.ID)

	_, err = repo.FindAccountByProvider(ctx, env.db, "github", "gh-1")
	assert.True(t, repo.IsNotFound(err), "accounts go with their user")
}
