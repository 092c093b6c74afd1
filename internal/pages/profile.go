package pages

import (
	"net/http"

	"github.com/ternarybob/conduit-e2e/internal/intercept"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

var profileSelectors = selector.MustRegistry(selector.TestIDs(
	"profile-username",
	"profile-bio",
	"profile-image",
	"follow-button",
	"edit-profile-button",
	"my-articles-tab",
	"favorited-articles-tab",
	"article-preview",
)...)

// ProfilePage covers /@<username>
type ProfilePage struct {
	Page[*ProfilePage]
}

// NewProfilePage creates the profile page object
func NewProfilePage(deps Deps) *ProfilePage {
	p := &ProfilePage{}
	p.Page = newPage(deps, profileSelectors, p)
	return p
}

func (p *ProfilePage) Visit(username string) *ProfilePage {
	p.deps.T.Helper()
	return p.Page.Visit("/@" + username)
}

func (p *ProfilePage) Follow() *ProfilePage {
	p.deps.T.Helper()
	p.click(p.locate("follow-button"))
	return p
}

func (p *ProfilePage) Unfollow() *ProfilePage {
	p.deps.T.Helper()
	p.click(p.locate("follow-button"))
	return p
}

func (p *ProfilePage) ShowFavorited() *ProfilePage {
	p.deps.T.Helper()
	p.click(p.locate("favorited-articles-tab"))
	return p
}

func (p *ProfilePage) ShouldHaveUsername(username string) *ProfilePage {
	p.deps.T.Helper()
	return p.ShouldContain("profile-username", username)
}

func (p *ProfilePage) ShouldBeFollowing() *ProfilePage {
	p.deps.T.Helper()
	return p.ShouldContain("follow-button", "Unfollow")
}

func (p *ProfilePage) ShouldNotBeFollowing() *ProfilePage {
	p.deps.T.Helper()
	loc := p.locate("follow-button")
	p.check("not following", all(p.contains(loc, "Follow"), p.notContains(loc, "Unfollow")))
	return p
}

// ShouldBeOwnProfile checks the edit button replaces the follow button
func (p *ProfilePage) ShouldBeOwnProfile() *ProfilePage {
	p.deps.T.Helper()
	p.check("own profile", all(
		p.visible(p.locate("edit-profile-button")),
		p.absent(p.locate("follow-button")),
	))
	return p
}

func (p *ProfilePage) ExpectFollowRequest() *ProfilePage {
	p.deps.T.Helper()
	p.expect(AliasFollow, intercept.Route{Method: http.MethodPost, Pattern: "**/profiles/*/follow"})
	return p
}

func (p *ProfilePage) ExpectUnfollowRequest() *ProfilePage {
	p.deps.T.Helper()
	p.expect(AliasUnfollow, intercept.Route{Method: http.MethodDelete, Pattern: "**/profiles/*/follow"})
	return p
}

func (p *ProfilePage) ShouldReceiveFollowResponse() *ProfilePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasFollow, http.StatusOK)
	return p
}

func (p *ProfilePage) ShouldReceiveUnfollowResponse() *ProfilePage {
	p.deps.T.Helper()
	p.awaitStatus(AliasUnfollow, http.StatusOK)
	return p
}
