package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	conduit "github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

// createArticle publishes in as client's user. The article is deleted when
// the test ends so live backends are left as they were found.
func createArticle(t *testing.T, ac *harness.APIContext, client *conduit.Client, in conduit.ArticleInput) *conduit.Article {
	t.Helper()

	article, err := client.CreateArticle(ac.Ctx, in)
	require.NoError(t, err, "create article %q", in.Title)
	ac.Log("Created article %s", article.Slug)

	slug := article.Slug
	t.Cleanup(func() {
		err := client.DeleteArticle(context.Background(), slug)
		if err != nil && conduit.StatusCode(err) != http.StatusNotFound {
			ac.Logger.Warn().Err(err).Str("slug", slug).Msg("Failed to delete test article")
		}
	})
	return article
}

// newAuthor registers a user and publishes one generated article as them
func newAuthor(t *testing.T, ac *harness.APIContext) (*conduit.User, *conduit.Client, *conduit.Article) {
	t.Helper()
	user, client := ac.NewUser()
	return user, client, createArticle(t, ac, client, ac.Data.Article())
}

func slugs(articles []conduit.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Slug)
	}
	return out
}
