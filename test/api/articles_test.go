package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conduit "github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

func TestArticlesList(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagSmoke)
	ac := harness.NewAPIContext(t)
	newAuthor(t, ac)

	list, err := ac.Client.Articles(ac.Ctx, conduit.ListOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, list.Articles)
	assert.GreaterOrEqual(t, list.ArticlesCount, len(list.Articles))

	for _, article := range list.Articles {
		assert.NotEmpty(t, article.Slug)
		assert.NotEmpty(t, article.Title)
		assert.NotEmpty(t, article.Description, "article %s", article.Slug)
		assert.NotEmpty(t, article.Body, "article %s", article.Slug)
		assert.NotNil(t, article.TagList, "article %s", article.Slug)
		assert.NotEmpty(t, article.Author.Username, "article %s", article.Slug)
	}

	// the raw body must carry the same shape for non-Go consumers
	resp, err := ac.Client.Do(ac.Ctx, http.MethodGet, "/articles", nil)
	require.NoError(t, err)
	count, err := resp.Query(ac.Ctx, ".articlesCount")
	require.NoError(t, err)
	assert.EqualValues(t, list.ArticlesCount, count)
}

func TestArticlesPagination(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles)
	ac := harness.NewAPIContext(t)

	_, client := ac.NewUser()
	for i := 0; i < 6; i++ {
		createArticle(t, ac, client, ac.Data.Article())
	}

	page, err := ac.Client.Articles(ac.Ctx, conduit.ListOptions{Limit: 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Articles), 5)
	assert.GreaterOrEqual(t, page.ArticlesCount, 6)

	next, err := ac.Client.Articles(ac.Ctx, conduit.ListOptions{Limit: 5, Offset: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, next.Articles)
	assert.NotContains(t, slugs(page.Articles), next.Articles[0].Slug, "pages must not overlap")
}

func TestArticlesFilterByTag(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles)
	ac := harness.NewAPIContext(t)

	_, client := ac.NewUser()
	in := ac.Data.Article()
	tag := "javascript"
	in.TagList = append(in.TagList, tag)
	created := createArticle(t, ac, client, in)

	list, err := ac.Client.Articles(ac.Ctx, conduit.ListOptions{Tag: tag})
	require.NoError(t, err)
	require.NotEmpty(t, list.Articles)
	for _, article := range list.Articles {
		assert.Contains(t, article.TagList, tag, "article %s", article.Slug)
	}
	if ac.Mock != nil {
		assert.Contains(t, slugs(list.Articles), created.Slug)
	}
}

// A newly created article echoes its content and keeps the tag list as sent
func TestArticlesCreate(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagCRUD)
	ac := harness.NewAPIContext(t)

	client := ac.LoginAs(ac.Config.Users.Primary)
	in := conduit.ArticleInput{
		Title:       fmt.Sprintf("API Test Article %d", time.Now().UnixNano()),
		Description: "Created via API test",
		Body:        "This article was created through the API",
		TagList:     []string{"api", "testing", "cypress"},
	}
	article := createArticle(t, ac, client, in)

	assert.NotEmpty(t, article.Slug)
	assert.Equal(t, in.Title, article.Title)
	assert.Equal(t, in.Description, article.Description)
	assert.Equal(t, in.Body, article.Body)
	assert.Equal(t, []string{"api", "testing", "cypress"}, article.TagList)
	assert.Equal(t, ac.Config.Users.Primary.Username, article.Author.Username)
	assert.False(t, article.Favorited)
	assert.Zero(t, article.FavoritesCount)
}

func TestArticlesCreateValidation(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagValidation)
	ac := harness.NewAPIContext(t)

	_, client := ac.NewUser()
	resp, err := client.Do(ac.Ctx, http.MethodPost, "/articles", map[string]conduit.ArticleInput{"article": {}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	errs := resp.Errors()
	for _, field := range []string{"title", "description", "body"} {
		assert.Contains(t, errs, field)
	}
}

func TestArticlesGet(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles)
	ac := harness.NewAPIContext(t)
	author, _, created := newAuthor(t, ac)

	article, err := ac.Client.Article(ac.Ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.Slug, article.Slug)
	assert.Equal(t, created.Title, article.Title)
	assert.Equal(t, author.Username, article.Author.Username)
}

func TestArticlesUpdate(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagCRUD)
	ac := harness.NewAPIContext(t)
	_, client, created := newAuthor(t, ac)

	update := conduit.ArticleInput{
		Title:       created.Title + " (updated)",
		Description: "Updated description",
		Body:        "Updated body content",
	}
	updated, err := client.UpdateArticle(ac.Ctx, created.Slug, update)
	require.NoError(t, err)
	assert.Equal(t, update.Title, updated.Title)
	assert.Equal(t, update.Description, updated.Description)
	assert.Equal(t, update.Body, updated.Body)
	assert.ElementsMatch(t, created.TagList, updated.TagList, "omitted tags are left unchanged")

	if updated.Slug != created.Slug {
		t.Cleanup(func() { _ = client.DeleteArticle(ac.Ctx, updated.Slug) })
	}

	fetched, err := ac.Client.Article(ac.Ctx, updated.Slug)
	require.NoError(t, err)
	assert.Equal(t, update.Body, fetched.Body)
}

func TestArticlesUpdateRequiresAuthor(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagSecurity)
	ac := harness.NewAPIContext(t)
	_, _, created := newAuthor(t, ac)

	_, other := ac.NewUser()
	_, err := other.UpdateArticle(ac.Ctx, created.Slug, conduit.ArticleInput{Body: "hijacked"})
	assert.Equal(t, http.StatusForbidden, conduit.StatusCode(err))

	err = other.DeleteArticle(ac.Ctx, created.Slug)
	assert.Equal(t, http.StatusForbidden, conduit.StatusCode(err))
}

func TestArticlesDelete(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagCRUD)
	ac := harness.NewAPIContext(t)
	_, client, created := newAuthor(t, ac)

	require.NoError(t, client.DeleteArticle(ac.Ctx, created.Slug))

	_, err := ac.Client.Article(ac.Ctx, created.Slug)
	assert.Equal(t, http.StatusNotFound, conduit.StatusCode(err), "deleted article must be gone")
}

// Fetching an unknown slug is a 404, not an empty article
func TestArticlesNotFound(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagError)
	ac := harness.NewAPIContext(t)

	resp, err := ac.Client.Do(ac.Ctx, http.MethodGet, "/articles/non-existent-slug", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err = ac.Client.Article(ac.Ctx, "non-existent-slug")
	assert.Equal(t, http.StatusNotFound, conduit.StatusCode(err))
}

// Favoriting raises the count; unfavoriting brings it back and repeating the
// unfavorite changes nothing
func TestArticlesFavorite(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles)
	ac := harness.NewAPIContext(t)
	_, _, created := newAuthor(t, ac)

	_, fan := ac.NewUser()
	before := created.FavoritesCount

	favorited, err := fan.Favorite(ac.Ctx, created.Slug)
	require.NoError(t, err)
	assert.True(t, favorited.Favorited)
	assert.Greater(t, favorited.FavoritesCount, 0)
	assert.Equal(t, before+1, favorited.FavoritesCount)

	again, err := fan.Favorite(ac.Ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, favorited.FavoritesCount, again.FavoritesCount, "favorite is idempotent")

	unfavorited, err := fan.Unfavorite(ac.Ctx, created.Slug)
	require.NoError(t, err)
	assert.False(t, unfavorited.Favorited)
	assert.Equal(t, before, unfavorited.FavoritesCount)

	repeat, err := fan.Unfavorite(ac.Ctx, created.Slug)
	require.NoError(t, err)
	assert.False(t, repeat.Favorited)
	assert.Equal(t, before, repeat.FavoritesCount)
	assert.GreaterOrEqual(t, repeat.FavoritesCount, 0)
}

func TestArticlesFavoritedFilter(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles)
	ac := harness.NewAPIContext(t)
	_, _, created := newAuthor(t, ac)

	fanUser, fan := ac.NewUser()
	_, err := fan.Favorite(ac.Ctx, created.Slug)
	require.NoError(t, err)

	list, err := fan.Articles(ac.Ctx, conduit.ListOptions{Favorited: fanUser.Username})
	require.NoError(t, err)
	assert.Equal(t, []string{created.Slug}, slugs(list.Articles))
	assert.True(t, list.Articles[0].Favorited)
}

func TestArticlesFeed(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagArticles, harness.TagProfiles)
	ac := harness.NewAPIContext(t)
	author, _, created := newAuthor(t, ac)

	_, reader := ac.NewUser()
	empty, err := reader.Feed(ac.Ctx, conduit.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty.Articles, "a reader who follows nobody has an empty feed")

	_, err = reader.Follow(ac.Ctx, author.Username)
	require.NoError(t, err)

	feed, err := reader.Feed(ac.Ctx, conduit.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{created.Slug}, slugs(feed.Articles))
	assert.True(t, feed.Articles[0].Author.Following)
}
