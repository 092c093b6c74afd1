package ui

import (
	"testing"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

func TestSmokeHomepageLoads(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagUI)
	uc := harness.NewUIContext(t)

	uc.Home.Visit().
		ShouldBeVisible("body").
		ShouldShowBanner().
		ShouldContain("banner", "conduit").
		ShouldExist("article-list").
		ShouldNotBeLoading()
	uc.Log("✓ Homepage loaded")
}

func TestSmokeNavigationMenu(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagNavigation)
	uc := harness.NewUIContext(t)

	uc.Shell.
		ShouldBeVisible("home-link").
		ShouldBeVisible("login-link").
		ShouldBeVisible("register-link").
		ShouldNotExist("settings-link").
		ShouldNotExist("new-post-link")
}

func TestSmokeNavigateToLogin(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagNavigation)
	uc := harness.NewUIContext(t)

	uc.Shell.Click("login-link")
	uc.Auth.ShouldBeOnLoginPage().
		ShouldBeVisible("email-input").
		ShouldBeVisible("password-input").
		ShouldBeVisible("login-button")
}

func TestSmokeNavigateToRegister(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagNavigation)
	uc := harness.NewUIContext(t)

	uc.Shell.Click("register-link")
	uc.Auth.ShouldBeOnRegisterPage().
		ShouldHaveRequiredFields()
}

func TestSmokePopularTagsAndFeed(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagArticles)
	uc := harness.NewUIContext(t)

	uc.Home.Visit().
		ShouldHaveTags().
		ShouldExist("feed-toggle").
		ShouldHaveActiveTab("global-feed").
		ShouldHaveArticles()
}

// With the startup fixtures armed, the home page renders the canned feed
func TestSmokeHomepageFromFixtures(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagArticles)
	uc := harness.NewUIContext(t)
	if !uc.Config.Browser.DefaultFixtures {
		t.Skip("browser.default_fixtures is off")
	}

	var feed struct {
		Articles []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := uc.Fixtures.LoadJSON("articles.json", &feed); err != nil {
		t.Fatalf("load articles fixture: %v", err)
	}

	uc.Home.Visit().
		ShouldHaveArticleCount(len(feed.Articles))
	for i, a := range feed.Articles {
		if got := uc.Home.ArticleTitle(i); got != a.Title {
			t.Errorf("preview %d title = %q, want %q", i, got, a.Title)
		}
	}
}

func TestSmokeMobileViewport(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagResponsive)
	uc := harness.NewUIContext(t)

	vp, _ := browser.Preset("iphone-x")
	uc.Shell.SetViewport(vp)
	uc.Home.Visit().
		ShouldBeVisible("body").
		ShouldContain("banner", "conduit").
		Screenshot("homepage-iphone-x")
}
