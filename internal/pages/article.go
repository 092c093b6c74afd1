package pages

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/conduit-e2e/internal/intercept"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// Network aliases registered by the article page
const (
	AliasFavorite      = "favoriteRequest"
	AliasUnfavorite    = "unfavoriteRequest"
	AliasFollow        = "followRequest"
	AliasUnfollow      = "unfollowRequest"
	AliasComment       = "commentRequest"
	AliasDeleteComment = "deleteCommentRequest"
	AliasDeleteArticle = "deleteArticleRequest"
)

var articleSelectors = selector.MustRegistry(selector.TestIDs(
	"article-title",
	"article-body",
	"article-meta",
	"article-author",
	"article-date",
	"article-tags",
	"favorite-button",
	"favorite-count",
	"follow-button",
	"edit-article-button",
	"delete-article-button",
	"comment-section",
	"comment-input",
	"comment-submit-button",
	"comment-list",
	"comment-item",
	"comment-author",
	"comment-date",
	"comment-body",
	"delete-comment-button",
	"author-avatar",
	"author-name",
	"loading",
	"error-message",
	"markdown-content",
)...)

// ArticlePage covers /article/<slug>
type ArticlePage struct {
	Page[*ArticlePage]
}

// NewArticlePage creates the article page object
func NewArticlePage(deps Deps) *ArticlePage {
	p := &ArticlePage{}
	p.Page = newPage(deps, articleSelectors, p)
	return p
}

// comment locates the comment item containing text
func (p *ArticlePage) comment(text string) selector.Locator {
	return p.locate("comment-item").HasText(text).Within(p.locate("comment-list"))
}

func (p *ArticlePage) Visit(slug string) *ArticlePage {
	p.deps.T.Helper()
	return p.Page.Visit("/article/" + slug)
}

func (p *ArticlePage) Favorite() *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("favorite-button"))
	return p
}

// Unfavorite clicks the favorite toggle of an already favorited article
func (p *ArticlePage) Unfavorite() *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("favorite-button"))
	return p
}

func (p *ArticlePage) FollowAuthor() *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("follow-button"))
	return p
}

func (p *ArticlePage) UnfollowAuthor() *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("follow-button"))
	return p
}

func (p *ArticlePage) Edit() *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("edit-article-button"))
	return p
}

func (p *ArticlePage) Delete() *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("delete-article-button"))
	return p
}

func (p *ArticlePage) ClickAuthor() *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("author-name"))
	return p
}

func (p *ArticlePage) ClickTag(tag string) *ArticlePage {
	p.deps.T.Helper()
	p.click(tagLocator(tag))
	return p
}

func (p *ArticlePage) AddComment(text string) *ArticlePage {
	p.deps.T.Helper()
	p.fill(p.locate("comment-input"), text)
	p.click(p.locate("comment-submit-button"))
	return p
}

func (p *ArticlePage) DeleteComment(text string) *ArticlePage {
	p.deps.T.Helper()
	p.click(p.locate("delete-comment-button").Within(p.comment(text)))
	return p
}

func (p *ArticlePage) ShouldHaveTitle(title string) *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldContain("article-title", title)
}

// ShouldHaveBody checks the rendered article shows the markdown source's text
func (p *ArticlePage) ShouldHaveBody(body string) *ArticlePage {
	p.deps.T.Helper()
	p.check("article body", p.showsMarkdown(p.locate("article-body"), body))
	return p
}

func (p *ArticlePage) ShouldHaveAuthor(author string) *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldContain("article-author", author)
}

func (p *ArticlePage) ShouldHaveDate() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("article-date")
}

func (p *ArticlePage) ShouldHaveTag(tag string) *ArticlePage {
	p.deps.T.Helper()
	p.check("tag "+tag, p.exists(tagLocator(tag)))
	return p
}

func (p *ArticlePage) ShouldNotHaveTag(tag string) *ArticlePage {
	p.deps.T.Helper()
	p.check("no tag "+tag, p.absent(tagLocator(tag)))
	return p
}

func (p *ArticlePage) ShouldHaveTags(tags ...string) *ArticlePage {
	p.deps.T.Helper()
	for _, tag := range tags {
		p.ShouldHaveTag(tag)
	}
	return p
}

func (p *ArticlePage) ShouldBeFavorited() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldContain("favorite-button", "Unfavorite")
}

func (p *ArticlePage) ShouldNotBeFavorited() *ArticlePage {
	p.deps.T.Helper()
	loc := p.locate("favorite-button")
	p.check("not favorited", all(p.contains(loc, "Favorite"), p.notContains(loc, "Unfavorite")))
	return p
}

func (p *ArticlePage) ShouldHaveFavoriteCount(n int) *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldContain("favorite-count", strconv.Itoa(n))
}

func (p *ArticlePage) ShouldBeFollowing() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldContain("follow-button", "Unfollow")
}

func (p *ArticlePage) ShouldNotBeFollowing() *ArticlePage {
	p.deps.T.Helper()
	loc := p.locate("follow-button")
	p.check("not following", all(p.contains(loc, "Follow"), p.notContains(loc, "Unfollow")))
	return p
}

func (p *ArticlePage) ShouldShowEditButton() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("edit-article-button")
}

func (p *ArticlePage) ShouldNotShowEditButton() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldNotExist("edit-article-button")
}

func (p *ArticlePage) ShouldShowDeleteButton() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("delete-article-button")
}

func (p *ArticlePage) ShouldNotShowDeleteButton() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldNotExist("delete-article-button")
}

func (p *ArticlePage) ShouldHaveComment(text string) *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldContain("comment-list", text)
}

func (p *ArticlePage) ShouldNotHaveComment(text string) *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldNotContain("comment-list", text)
}

func (p *ArticlePage) ShouldHaveCommentCount(n int) *ArticlePage {
	p.deps.T.Helper()
	items := p.locate("comment-item").Within(p.locate("comment-list"))
	p.check("comment count", p.count(items, n))
	return p
}

func (p *ArticlePage) ShouldShowCommentSection() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("comment-section")
}

func (p *ArticlePage) ShouldNotShowCommentSection() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldNotExist("comment-section")
}

func (p *ArticlePage) ShouldHaveCommentByAuthor(author, text string) *ArticlePage {
	p.deps.T.Helper()
	p.check("comment by "+author, p.contains(p.locate("comment-author").Within(p.comment(text)), author))
	return p
}

func (p *ArticlePage) ShouldHaveCommentDeleteButton(text string) *ArticlePage {
	p.deps.T.Helper()
	p.check("delete button on comment", p.exists(p.locate("delete-comment-button").Within(p.comment(text))))
	return p
}

func (p *ArticlePage) ShouldNotHaveCommentDeleteButton(text string) *ArticlePage {
	p.deps.T.Helper()
	p.check("no delete button on comment", all(
		p.exists(p.comment(text)),
		p.absent(p.locate("delete-comment-button").Within(p.comment(text))),
	))
	return p
}

func (p *ArticlePage) ShouldHaveValidCommentStructure() *ArticlePage {
	p.deps.T.Helper()
	items := p.locate("comment-item").Within(p.locate("comment-list"))
	p.check("comment structure", all(
		p.countAtLeast(items, 1),
		p.sameCount(items, p.locate("comment-author").Within(items)),
		p.sameCount(items, p.locate("comment-date").Within(items)),
		p.sameCount(items, p.locate("comment-body").Within(items)),
	))
	return p
}

func (p *ArticlePage) ShouldHaveMarkdownRendered() *ArticlePage {
	p.deps.T.Helper()
	p.check("markdown rendered", p.rendersMarkdown(p.locate("markdown-content")))
	return p
}

// ShouldHaveValidMarkdown checks the body holds a heading, bold, italic and list
func (p *ArticlePage) ShouldHaveValidMarkdown() *ArticlePage {
	p.deps.T.Helper()
	p.check("valid markdown", p.hasElements(p.locate("article-body"), "h1", "strong", "em", "ul"))
	return p
}

func (p *ArticlePage) ShouldHaveValidMetadata() *ArticlePage {
	p.deps.T.Helper()
	meta := p.locate("article-meta")
	p.check("article metadata", all(
		p.attr(p.locate("author-avatar").Within(meta), "src", ""),
		p.notEmpty(p.locate("author-name").Within(meta)),
		p.notEmpty(p.locate("article-date").Within(meta)),
	))
	return p
}

func (p *ArticlePage) ShouldHaveAccessibleContent() *ArticlePage {
	p.deps.T.Helper()
	p.check("accessible content", all(
		p.attr(p.locate("article-title"), "role", "heading"),
		p.attr(p.locate("favorite-button"), "aria-label", ""),
		p.attr(p.locate("follow-button"), "aria-label", ""),
	))
	return p
}

func (p *ArticlePage) ShouldHaveAuthorAvatar() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("author-avatar")
}

func (p *ArticlePage) ShouldNotBeLoading() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldNotExist("loading")
}

func (p *ArticlePage) ShouldShowError(message string) *ArticlePage {
	p.deps.T.Helper()
	loc := p.locate("error-message")
	p.check("error "+message, all(p.visible(loc), p.contains(loc, message)))
	return p
}

func (p *ArticlePage) ShouldRedirectToProfile() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldIncludeURL("/@")
}

func (p *ArticlePage) ShouldRedirectToEditor() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldIncludeURL("/editor")
}

func (p *ArticlePage) ShouldRedirectToHome() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldHaveURL("/")
}

func (p *ArticlePage) ShouldRedirectToLogin() *ArticlePage {
	p.deps.T.Helper()
	return p.ShouldIncludeURL("/login")
}

func (p *ArticlePage) ExpectFavoriteRequest() *ArticlePage {
	p.deps.T.Helper()
	p.expect(AliasFavorite, intercept.Route{Method: http.MethodPost, Pattern: "**/articles/*/favorite"})
	return p
}

func (p *ArticlePage) ExpectUnfavoriteRequest() *ArticlePage {
	p.deps.T.Helper()
	p.expect(AliasUnfavorite, intercept.Route{Method: http.MethodDelete, Pattern: "**/articles/*/favorite"})
	return p
}

func (p *ArticlePage) ExpectFollowRequest() *ArticlePage {
	p.deps.T.Helper()
	p.expect(AliasFollow, intercept.Route{Method: http.MethodPost, Pattern: "**/profiles/*/follow"})
	return p
}

func (p *ArticlePage) ExpectUnfollowRequest() *ArticlePage {
	p.deps.T.Helper()
	p.expect(AliasUnfollow, intercept.Route{Method: http.MethodDelete, Pattern: "**/profiles/*/follow"})
	return p
}

func (p *ArticlePage) ExpectCommentRequest() *ArticlePage {
	p.deps.T.Helper()
	p.expect(AliasComment, intercept.Route{Method: http.MethodPost, Pattern: "**/articles/*/comments"})
	return p
}

func (p *ArticlePage) ExpectDeleteCommentRequest() *ArticlePage {
	p.deps.T.Helper()
	p.expect(AliasDeleteComment, intercept.Route{Method: http.MethodDelete, Pattern: "**/articles/*/comments/*"})
	return p
}

func (p *ArticlePage) ExpectDeleteArticleRequest() *ArticlePage {
	p.deps.T.Helper()
	p.expect(AliasDeleteArticle, intercept.Route{Method: http.MethodDelete, Pattern: "**/articles/*"})
	return p
}

func (p *ArticlePage) ShouldReceiveFavoriteResponse() *ArticlePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasFavorite, http.StatusOK)
	return p
}

func (p *ArticlePage) ShouldReceiveUnfavoriteResponse() *ArticlePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasUnfavorite, http.StatusOK)
	return p
}

func (p *ArticlePage) ShouldReceiveFollowResponse() *ArticlePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasFollow, http.StatusOK)
	return p
}

func (p *ArticlePage) ShouldReceiveUnfollowResponse() *ArticlePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasUnfollow, http.StatusOK)
	return p
}

func (p *ArticlePage) ShouldReceiveCommentResponse() *ArticlePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasComment, http.StatusOK)
	return p
}

func (p *ArticlePage) ShouldReceiveDeleteCommentResponse() *ArticlePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasDeleteComment, http.StatusOK)
	return p
}

func (p *ArticlePage) ShouldReceiveDeleteArticleResponse() *ArticlePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasDeleteArticle, http.StatusOK)
	return p
}
