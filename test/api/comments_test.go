package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conduit "github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

func commentIDs(comments []conduit.Comment) []int64 {
	out := make([]int64, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.ID)
	}
	return out
}

func TestCommentsAdd(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagComments)
	ac := harness.NewAPIContext(t)
	_, _, article := newAuthor(t, ac)

	reader, client := ac.NewUser()
	body := "This is a test comment via API"
	comment, err := client.AddComment(ac.Ctx, article.Slug, body)
	require.NoError(t, err)

	assert.NotZero(t, comment.ID)
	assert.Equal(t, body, comment.Body)
	assert.Equal(t, reader.Username, comment.Author.Username)
	assert.False(t, comment.CreatedAt.IsZero())
}

func TestCommentsList(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagComments)
	ac := harness.NewAPIContext(t)
	_, client, article := newAuthor(t, ac)

	empty, err := ac.Client.Comments(ac.Ctx, article.Slug)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := client.AddComment(ac.Ctx, article.Slug, ac.Data.Comment())
	require.NoError(t, err)
	second, err := client.AddComment(ac.Ctx, article.Slug, ac.Data.Comment())
	require.NoError(t, err)

	comments, err := ac.Client.Comments(ac.Ctx, article.Slug)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, commentIDs(comments))

	_, err = ac.Client.Comments(ac.Ctx, "non-existent-slug")
	assert.Equal(t, http.StatusNotFound, conduit.StatusCode(err))
}

func TestCommentsDelete(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagComments)
	ac := harness.NewAPIContext(t)
	_, _, article := newAuthor(t, ac)

	_, client := ac.NewUser()
	comment, err := client.AddComment(ac.Ctx, article.Slug, ac.Data.Comment())
	require.NoError(t, err)

	require.NoError(t, client.DeleteComment(ac.Ctx, article.Slug, comment.ID))

	comments, err := ac.Client.Comments(ac.Ctx, article.Slug)
	require.NoError(t, err)
	assert.NotContains(t, commentIDs(comments), comment.ID)

	err = client.DeleteComment(ac.Ctx, article.Slug, comment.ID)
	assert.Equal(t, http.StatusNotFound, conduit.StatusCode(err), "deleting twice is a 404")
}

func TestCommentsDeleteRequiresAuthor(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagComments, harness.TagSecurity)
	ac := harness.NewAPIContext(t)
	_, _, article := newAuthor(t, ac)

	_, writer := ac.NewUser()
	comment, err := writer.AddComment(ac.Ctx, article.Slug, ac.Data.Comment())
	require.NoError(t, err)

	_, other := ac.NewUser()
	err = other.DeleteComment(ac.Ctx, article.Slug, comment.ID)
	assert.Equal(t, http.StatusForbidden, conduit.StatusCode(err))

	err = ac.Client.DeleteComment(ac.Ctx, article.Slug, comment.ID)
	assert.Equal(t, http.StatusUnauthorized, conduit.StatusCode(err))
}

func TestCommentsBlankBody(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagComments, harness.TagValidation)
	ac := harness.NewAPIContext(t)
	_, client, article := newAuthor(t, ac)

	_, err := client.AddComment(ac.Ctx, article.Slug, "   ")
	assert.Equal(t, http.StatusUnprocessableEntity, conduit.StatusCode(err))
}
