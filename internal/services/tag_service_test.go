package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-devflow-backend/internal/repo"
)

func TestTagService(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	u := env.user(t, "ada")
	env.question(t, u.ID, "Go question one", "go")
	env.question(t, u.ID, "Go and SQL question", "go", "sql")
	env.question(t, u.ID, "Only rust here", "rust")
	svc := NewTagService(env.gate(""))

	page, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "go", page.Items[0].Name, "most used first")
	assert.Equal(t, 2, page.Items[0].Questions)

	page, err = svc.List(ctx, ListParams{Sort: repo.SortName})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust", "sql"}, tagNames(page.Items))

	goTag := page.Items[0]
	got, err := svc.Get(ctx, IDParams{ID: goTag.ID})
	require.NoError(t, err)
	assert.Equal(t, "go", got.Name)

	tq, err := svc.Questions(ctx, ListTagQuestionsParams{TagID: goTag.ID})
	require.NoError(t, err)
	assert.Equal(t, "go", tq.Tag.Name)
	assert.EqualValues(t, 2, tq.Questions.Pagination.Total)

	_, err = svc.Get(ctx, IDParams{ID: "missing"})
	requireAppErr(t, err, http.StatusNotFound, "Tag not found")
	_, err = svc.Questions(ctx, ListTagQuestionsParams{TagID: "missing"})
	requireAppErr(t, err, http.StatusNotFound, "Tag not found")
}
