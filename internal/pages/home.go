package pages

import (
	"context"
	"strconv"

	"github.com/ternarybob/conduit-e2e/internal/selector"
)

var homeSelectors = selector.MustRegistry(selector.TestIDs(
	"banner",
	"tag-list",
	"article-list",
	"article-preview",
	"pagination",
	"global-feed-tab",
	"your-feed-tab",
	"feed-toggle",
	"popular-tags",
	"loading",
	"no-articles",
)...)

// HomePage covers the feed at /
type HomePage struct {
	Page[*HomePage]
}

// NewHomePage creates the home page object
func NewHomePage(deps Deps) *HomePage {
	p := &HomePage{}
	p.Page = newPage(deps, homeSelectors, p)
	return p
}

func (p *HomePage) preview(i int) selector.Locator {
	return p.locate("article-preview").Nth(i)
}

func (p *HomePage) previewTitled(title string) selector.Locator {
	return p.locate("article-preview").HasText(title).Within(p.locate("article-list"))
}

func (p *HomePage) Visit() *HomePage {
	p.deps.T.Helper()
	return p.Page.Visit("/")
}

func (p *HomePage) ClickGlobalFeed() *HomePage {
	p.deps.T.Helper()
	p.click(p.locate("global-feed-tab"))
	return p
}

func (p *HomePage) ClickYourFeed() *HomePage {
	p.deps.T.Helper()
	p.click(p.locate("your-feed-tab"))
	return p
}

func (p *HomePage) ClickTag(tag string) *HomePage {
	p.deps.T.Helper()
	p.click(tagLocator(tag))
	return p
}

// ClickArticle opens the article whose preview title contains title
func (p *HomePage) ClickArticle(title string) *HomePage {
	p.deps.T.Helper()
	p.click(p.locate("article-title").HasText(title).Within(p.locate("article-list")))
	return p
}

// FavoriteArticle clicks the favorite button on the preview containing title
func (p *HomePage) FavoriteArticle(title string) *HomePage {
	p.deps.T.Helper()
	p.click(p.locate("favorite-button").Within(p.previewTitled(title)))
	return p
}

func (p *HomePage) ClickPagination(page int) *HomePage {
	p.deps.T.Helper()
	p.click(p.locate("page-" + strconv.Itoa(page)))
	return p
}

func (p *HomePage) ShouldHaveArticles() *HomePage {
	p.deps.T.Helper()
	p.check("articles listed", all(
		p.exists(p.locate("article-list")),
		p.countAtLeast(p.locate("article-preview"), 1),
	))
	return p
}

func (p *HomePage) ShouldHaveNoArticles() *HomePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("no-articles")
}

func (p *HomePage) ShouldHaveTags() *HomePage {
	p.deps.T.Helper()
	p.check("popular tags", all(
		p.exists(p.locate("popular-tags")),
		p.countAtLeast(p.locate("tag-list"), 1),
	))
	return p
}

func (p *HomePage) ShouldShowBanner() *HomePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("banner")
}

func (p *HomePage) ShouldNotShowBanner() *HomePage {
	p.deps.T.Helper()
	return p.ShouldNotExist("banner")
}

// ShouldHaveActiveTab checks [data-cy=<tab>-tab] carries the active class
func (p *HomePage) ShouldHaveActiveTab(tab string) *HomePage {
	p.deps.T.Helper()
	return p.ShouldHaveClass(tab+"-tab", "active")
}

func (p *HomePage) ShouldHaveArticleCount(n int) *HomePage {
	p.deps.T.Helper()
	return p.ShouldHaveCount("article-preview", n)
}

func (p *HomePage) ShouldHaveTag(tag string) *HomePage {
	p.deps.T.Helper()
	p.check("tag "+tag, p.exists(tagLocator(tag)))
	return p
}

func (p *HomePage) ShouldNotBeLoading() *HomePage {
	p.deps.T.Helper()
	return p.ShouldNotExist("loading")
}

func (p *HomePage) ShouldHaveFilteredArticles(tag string) *HomePage {
	p.deps.T.Helper()
	return p.ShouldBeVisible("tag-filter-" + tag)
}

func (p *HomePage) ShouldHavePagination() *HomePage {
	p.deps.T.Helper()
	return p.ShouldExist("pagination")
}

func (p *HomePage) ShouldHaveActivePage(page int) *HomePage {
	p.deps.T.Helper()
	return p.ShouldHaveClass("page-"+strconv.Itoa(page), "active")
}

// ArticleTitle returns the title text of the i-th preview
func (p *HomePage) ArticleTitle(i int) string {
	p.deps.T.Helper()
	return p.read(p.locate("article-title").Within(p.preview(i)))
}

func (p *HomePage) ArticleDescription(i int) string {
	p.deps.T.Helper()
	return p.read(p.locate("article-description").Within(p.preview(i)))
}

func (p *HomePage) ArticleAuthor(i int) string {
	p.deps.T.Helper()
	return p.read(p.locate("article-author").Within(p.preview(i)))
}

func (p *HomePage) ArticleDate(i int) string {
	p.deps.T.Helper()
	return p.read(p.locate("article-date").Within(p.preview(i)))
}

func (p *HomePage) ArticleTags(i int) string {
	p.deps.T.Helper()
	return p.read(p.locate("article-tags").Within(p.preview(i)))
}

// FavoriteCount returns the i-th preview's favorite count, failing on non-numbers
func (p *HomePage) FavoriteCount(i int) int {
	p.deps.T.Helper()
	raw := p.read(p.locate("favorite-count").Within(p.preview(i)))
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail("favorite count", err)
	}
	return n
}

// read waits for loc and returns its normalised text
func (c *core) read(loc selector.Locator) string {
	c.deps.T.Helper()
	var text string
	c.check("read "+loc.String(), func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		text = n.Text
		return nil
	})
	return text
}
