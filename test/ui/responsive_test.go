package ui

import (
	"testing"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

var responsiveViewports = []string{"mobile", "tablet", "laptop", "desktop"}

func TestResponsiveHomepage(t *testing.T) {
	harness.Tags(t, harness.TagResponsive, harness.TagUI)
	uc := harness.NewUIContext(t)

	for _, name := range responsiveViewports {
		vp, ok := browser.Preset(name)
		if !ok {
			t.Fatalf("unknown viewport preset %q", name)
		}
		uc.Log("Viewport %s (%s)", name, vp)
		uc.Shell.SetViewport(vp)
		uc.Home.Visit().
			ShouldBeVisible("body").
			ShouldShowBanner().
			ShouldExist("article-list").
			ShouldExist("popular-tags").
			Screenshot("homepage-" + name)
	}
}

func TestResponsiveAuthForms(t *testing.T) {
	harness.Tags(t, harness.TagResponsive, harness.TagAuth)
	uc := harness.NewUIContext(t)

	for _, name := range responsiveViewports {
		vp, _ := browser.Preset(name)
		uc.Log("Viewport %s (%s)", name, vp)
		uc.Shell.SetViewport(vp)

		uc.Auth.VisitLogin().
			ShouldBeVisible("email-input").
			ShouldBeVisible("password-input").
			ShouldBeVisible("login-button").
			Screenshot("login-" + name)

		uc.Auth.VisitRegister().
			ShouldBeVisible("username-input").
			ShouldBeVisible("register-button").
			Screenshot("register-" + name)
	}
}

func TestResponsiveBreakpoints(t *testing.T) {
	harness.Tags(t, harness.TagResponsive)
	uc := harness.NewUIContext(t)

	uc.Home.Visit()
	uc.CheckResponsive(320, 375, 768, 1024, 1280, 1920)
}

func TestResponsiveEditorSignedIn(t *testing.T) {
	harness.Tags(t, harness.TagResponsive, harness.TagArticles)
	uc := signedIn(t)

	for _, name := range []string{"iphone-x", "macbook-15"} {
		vp, _ := browser.Preset(name)
		uc.Shell.SetViewport(vp)
		uc.Editor.Visit().
			ShouldBeOnEditorPage().
			ShouldBeVisible("article-title-input").
			ShouldBeVisible("publish-button").
			Screenshot("editor-" + name)
	}
}
