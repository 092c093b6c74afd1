package ui

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

// blankErrorsScript counts "can't be blank" messages shown by the editor
const blankErrorsScript = `(() => {
  const el = document.querySelector('[data-cy="error-messages"]');
  if (!el) return 0;
  return (el.innerText.match(/can't be blank/g) || []).length;
})()`

// sampleArticle is the configured article with a unique title
func sampleArticle(uc *harness.UIContext) api.ArticleInput {
	a := uc.Config.Article
	return api.ArticleInput{
		Title:       fmt.Sprintf("%s %d", a.Title, time.Now().UnixNano()),
		Description: a.Description,
		Body:        a.Body,
		TagList:     a.Tags,
	}
}

// signedIn opens the app with the primary user's session, as the suite's
// beforeEach did through the API
func signedIn(t *testing.T) *harness.UIContext {
	t.Helper()
	uc := harness.NewUIContext(t)
	user := uc.Config.Users.Primary
	uc.LoginAPI(user.Email, user.Password)
	return uc
}

func TestArticleCreate(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagCRUD, harness.TagArticles)
	uc := signedIn(t)

	in := api.ArticleInput{
		Title:       fmt.Sprintf("Test Article Title %d", time.Now().UnixNano()),
		Description: "This is a test article description",
		Body:        "# Test Article\n\nThis is the **content** of the test article.",
		TagList:     []string{"test", "cypress", "automation"},
	}
	slug := uc.CreateArticle(in)
	uc.Log("Created article %s", slug)

	uc.Article.ShouldHaveTitle(in.Title).
		ShouldHaveBody(in.Body).
		ShouldHaveTags(in.TagList...).
		ShouldHaveMarkdownRendered()
}

// Submitting an empty editor shows exactly the three blank-field errors and
// never calls the API
func TestArticleCreateValidation(t *testing.T) {
	harness.Tags(t, harness.TagValidation, harness.TagCRUD, harness.TagArticles)
	uc := signedIn(t)

	uc.Editor.Visit().
		ShouldBeOnEditorPage().
		ExpectCreateRequest().
		SubmitEmptyForm().
		ShouldShowErrorMessage("title can't be blank").
		ShouldShowErrorMessage("description can't be blank").
		ShouldShowErrorMessage("body can't be blank").
		ShouldNotHaveSentCreateRequest()

	var blanks int
	uc.Shell.Evaluate(blankErrorsScript, &blanks)
	if blanks != 3 {
		t.Errorf("editor shows %d blank-field errors, want 3", blanks)
	}
}

func TestArticleMarkdownRendering(t *testing.T) {
	harness.Tags(t, harness.TagCRUD, harness.TagArticles)
	uc := signedIn(t)

	body := strings.Join([]string{
		"# Heading 1",
		"## Heading 2",
		"",
		"**Bold text** and *italic text*",
		"",
		"- List item 1",
		"- List item 2",
		"",
		"> This is a blockquote",
		"",
		"[Link text](https://example.com)",
	}, "\n")

	uc.CreateArticle(api.ArticleInput{
		Title:       fmt.Sprintf("Markdown Test %d", time.Now().UnixNano()),
		Description: "Testing markdown rendering",
		Body:        body,
		TagList:     []string{"markdown"},
	})
	uc.Article.ShouldHaveValidMarkdown().
		ShouldHaveBody(body)
}

func TestArticleEditorTags(t *testing.T) {
	harness.Tags(t, harness.TagTags, harness.TagCRUD)
	uc := signedIn(t)

	uc.Editor.Visit().
		FillTitle("Test Article").
		FillDescription("Test Description").
		FillBody("Test Body").
		AddTag("tag1").
		AddTag("tag2").
		AddTag("tag3").
		ShouldHaveTagCount(3).
		RemoveTag("tag2").
		ShouldHaveTagCount(2).
		ShouldHaveTag("tag1").
		ShouldHaveTag("tag3").
		ShouldNotHaveTag("tag2")
}

func TestArticleDetails(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagArticles)
	uc := signedIn(t)
	in := sampleArticle(uc)

	uc.CreateArticle(in)
	uc.Article.ShouldHaveTitle(in.Title).
		ShouldHaveBody(in.Body).
		ShouldHaveTags(in.TagList...).
		ShouldHaveAuthor(uc.Config.Users.Primary.Username).
		ShouldHaveDate().
		ShouldHaveValidMetadata().
		ShouldShowEditButton().
		ShouldShowDeleteButton()
}

func TestArticleHiddenControlsForOtherUsers(t *testing.T) {
	harness.Tags(t, harness.TagArticles, harness.TagSecurity)
	uc := signedIn(t)
	in := sampleArticle(uc)
	slug := uc.CreateArticle(in)

	other := uc.Config.Users.Secondary
	uc.Shell.ClearSession()
	uc.LoginAPI(other.Email, other.Password)

	uc.Article.Visit(slug).
		ShouldHaveTitle(in.Title).
		ShouldNotShowEditButton().
		ShouldNotShowDeleteButton()
}

func TestArticleUpdate(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagCRUD, harness.TagArticles)
	uc := signedIn(t)
	original := sampleArticle(uc)
	slug := uc.CreateArticle(original)

	uc.Article.Edit()
	uc.Editor.ShouldBeOnEditPage(slug).
		ShouldHaveTitle(original.Title).
		ShouldHaveDescription(original.Description).
		ShouldHaveBody(original.Body).
		ShouldHaveTags(original.TagList...)

	updated := api.ArticleInput{
		Title:       fmt.Sprintf("Updated Article Title %d", time.Now().UnixNano()),
		Description: "Updated description",
		Body:        "Updated body content",
	}
	uc.Editor.ExpectUpdateRequest().
		ClearForm().
		FillCompleteForm(updated.Title, updated.Description, updated.Body).
		Publish().
		ShouldReceiveUpdateResponse()

	uc.Article.ShouldHaveTitle(updated.Title).
		ShouldHaveBody(updated.Body)
}

func TestArticleUpdateValidation(t *testing.T) {
	harness.Tags(t, harness.TagValidation, harness.TagCRUD)
	uc := signedIn(t)
	uc.CreateArticle(sampleArticle(uc))

	uc.Article.Edit()
	uc.Editor.ExpectUpdateRequest().
		ClearForm().
		SubmitEmptyForm().
		ShouldShowErrorMessage("title can't be blank").
		ShouldShowErrorMessage("description can't be blank").
		ShouldShowErrorMessage("body can't be blank")
}

func TestArticleDelete(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagCRUD, harness.TagArticles)
	uc := signedIn(t)
	in := sampleArticle(uc)
	slug := uc.CreateArticle(in)

	uc.Article.ExpectDeleteArticleRequest()
	uc.DeleteArticle()
	uc.Article.ShouldReceiveDeleteArticleResponse()

	uc.Home.ShouldNotContain("article-list", in.Title)
	if resp := uc.APIRequest(http.MethodGet, "/articles/"+slug, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted article still served with %d", resp.StatusCode)
	}
}

func TestArticleFavoriteAndComment(t *testing.T) {
	harness.Tags(t, harness.TagArticles, harness.TagComments)
	uc := signedIn(t)
	in := sampleArticle(uc)
	slug := uc.CreateArticle(in)

	other := uc.Config.Users.Secondary
	uc.Shell.ClearSession()
	uc.LoginAPI(other.Email, other.Password)
	uc.Article.Visit(slug)

	uc.Article.ExpectFavoriteRequest()
	uc.FavoriteArticle()
	uc.Article.ShouldReceiveFavoriteResponse().
		ShouldHaveFavoriteCount(1)

	uc.Article.ExpectUnfavoriteRequest()
	uc.UnfavoriteArticle()
	uc.Article.ShouldReceiveUnfavoriteResponse().
		ShouldHaveFavoriteCount(0)

	comment := "Great article! " + uc.Data.Comment()
	uc.AddComment(comment)
	uc.Article.ShouldHaveCommentByAuthor(other.Username, comment).
		ShouldHaveCommentDeleteButton(comment)
	uc.DeleteComment(comment)
}

func TestArticleFollowAuthor(t *testing.T) {
	harness.Tags(t, harness.TagArticles, harness.TagProfiles)
	uc := signedIn(t)
	author := uc.Config.Users.Primary
	slug := uc.CreateArticle(sampleArticle(uc))

	uc.Shell.ClearSession()
	uc.LoginAPI(uc.Config.Users.Secondary.Email, uc.Config.Users.Secondary.Password)

	uc.Article.Visit(slug).
		ExpectFollowRequest().
		FollowAuthor().
		ShouldReceiveFollowResponse().
		ShouldBeFollowing()
	uc.UnfollowUser(author.Username)
}
