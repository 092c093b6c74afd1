// Package commands bundles multi-step user flows that suites repeat: signing
// in, publishing an article, commenting, following. Every command asserts its
// own outcome and fails the test at once when it does not hold.
package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/pages"
)

// DefaultBreakpoints are the widths CheckResponsive sweeps when given none
var DefaultBreakpoints = []int64{320, 768, 1024, 1920}

// ResponsiveHeight is the window height used during a responsive sweep
const ResponsiveHeight = 720

// Deps are the collaborators of one test's commands
type Deps struct {
	Pages pages.Deps

	// API is the REST client for LoginAPI and APIRequest
	API *api.Client

	// ResetBackend, when set, is called by SeedDatabase to restore the
	// backend's seeded state
	ResetBackend func(ctx context.Context) error
}

// Commands exposes the flows for one test. Build it with New.
type Commands struct {
	deps   Deps
	logger arbor.ILogger

	Shell    *pages.Shell
	Home     *pages.HomePage
	Auth     *pages.AuthPage
	Editor   *pages.EditorPage
	Article  *pages.ArticlePage
	Profile  *pages.ProfilePage
	Settings *pages.SettingsPage
}

// New creates the command set and the page objects it drives
func New(deps Deps) *Commands {
	if deps.Pages.Ctx == nil {
		deps.Pages.Ctx = context.Background()
	}
	if deps.Pages.Logger == nil {
		deps.Pages.Logger = arbor.NewLogger()
	}
	return &Commands{
		deps:     deps,
		logger:   deps.Pages.Logger,
		Shell:    pages.NewShell(deps.Pages),
		Home:     pages.NewHomePage(deps.Pages),
		Auth:     pages.NewAuthPage(deps.Pages),
		Editor:   pages.NewEditorPage(deps.Pages),
		Article:  pages.NewArticlePage(deps.Pages),
		Profile:  pages.NewProfilePage(deps.Pages),
		Settings: pages.NewSettingsPage(deps.Pages),
	}
}

func (c *Commands) t() pages.T {
	return c.deps.Pages.T
}

func (c *Commands) step(name string) {
	c.logger.Debug().Str("command", name).Msg("Running command")
}

// Login signs in through the login form
func (c *Commands) Login(email, password string) {
	c.t().Helper()
	c.step("login")
	c.Auth.Login(email, password).
		ShouldHaveURL("/").
		ShouldHaveToken()
}

// LoginAPI signs in through the REST API, stores the token where the app
// keeps it and opens the home page. It returns the token.
func (c *Commands) LoginAPI(email, password string) string {
	t := c.t()
	t.Helper()
	c.step("loginAPI")
	require.NotNil(t, c.deps.API, "loginAPI needs an API client")

	resp, err := c.deps.API.WithoutToken().Do(c.deps.Pages.Ctx, http.MethodPost, "/users/login",
		map[string]api.LoginInput{"user": {Email: email, Password: password}})
	require.NoError(t, err, "login request")
	require.Equalf(t, http.StatusOK, resp.StatusCode, "login as %s: %s", email, resp.Body)

	var env api.UserEnvelope
	require.NoError(t, resp.Decode(&env), "decode login response")
	require.NotEmpty(t, env.User.Token, "login response carries no token")

	// Storage is per origin, so open the app before writing the token
	c.Home.Visit()
	c.Shell.SetToken(env.User.Token)
	c.Home.Visit()
	return env.User.Token
}

// Register signs up through the registration form
func (c *Commands) Register(username, email, password string) {
	c.t().Helper()
	c.step("register")
	c.Auth.Register(username, email, password).
		ShouldHaveURL("/").
		ShouldHaveToken()
}

// Logout signs out from the settings page
func (c *Commands) Logout() {
	c.t().Helper()
	c.step("logout")
	c.Shell.Click("settings-link")
	c.Settings.Logout().
		ShouldHaveURL("/").
		ShouldNotHaveToken()
}

// CreateArticle publishes an article through the editor and returns its slug
func (c *Commands) CreateArticle(in api.ArticleInput) string {
	c.t().Helper()
	c.step("createArticle")
	c.Shell.Click("new-post-link")
	c.Editor.ExpectCreateRequest().
		FillCompleteForm(in.Title, in.Description, in.Body, in.TagList...).
		Publish()
	slug := c.Editor.CreatedSlug()
	c.Editor.ShouldIncludeURL("/article/")
	return slug
}

// EditArticle opens the current article in the editor, replaces its text and
// waits for the update to be accepted
func (c *Commands) EditArticle(title, description, body string) {
	c.t().Helper()
	c.step("editArticle")
	c.Article.Edit()
	c.Editor.ExpectUpdateRequest().
		FillTitle(title).
		FillDescription(description).
		FillBody(body).
		Publish().
		ShouldReceiveUpdateResponse().
		ShouldIncludeURL("/article/")
}

// DeleteArticle deletes the current article
func (c *Commands) DeleteArticle() {
	c.t().Helper()
	c.step("deleteArticle")
	c.Article.Delete().ShouldHaveURL("/")
}

func (c *Commands) FavoriteArticle() {
	c.t().Helper()
	c.step("favoriteArticle")
	c.Article.Favorite().ShouldBeFavorited()
}

func (c *Commands) UnfavoriteArticle() {
	c.t().Helper()
	c.step("unfavoriteArticle")
	c.Article.Unfavorite().ShouldNotBeFavorited()
}

// AddComment posts a comment on the current article
func (c *Commands) AddComment(text string) {
	c.t().Helper()
	c.step("addComment")
	c.Article.AddComment(text).ShouldHaveComment(text)
}

// DeleteComment deletes the comment containing text
func (c *Commands) DeleteComment(text string) {
	c.t().Helper()
	c.step("deleteComment")
	c.Article.DeleteComment(text).ShouldNotHaveComment(text)
}

func (c *Commands) VisitProfile(username string) {
	c.t().Helper()
	c.step("visitProfile")
	c.Profile.Visit(username).ShouldHaveUsername(username)
}

func (c *Commands) FollowUser(username string) {
	c.t().Helper()
	c.step("followUser")
	c.VisitProfile(username)
	c.Profile.Follow().ShouldBeFollowing()
}

func (c *Commands) UnfollowUser(username string) {
	c.t().Helper()
	c.step("unfollowUser")
	c.VisitProfile(username)
	c.Profile.Unfollow().ShouldNotBeFollowing()
}

func (c *Commands) NavigateToHome() {
	c.t().Helper()
	c.Shell.NavigateToHome()
}

func (c *Commands) NavigateToEditor() {
	c.t().Helper()
	c.Shell.NavigateToEditor()
}

func (c *Commands) NavigateToSettings() {
	c.t().Helper()
	c.Shell.NavigateToSettings()
}

func (c *Commands) NavigateToProfile() {
	c.t().Helper()
	c.Shell.NavigateToProfile()
}

// CheckFormValidation checks the named element shows message
func (c *Commands) CheckFormValidation(name, message string) {
	c.t().Helper()
	c.Shell.ShouldContain(name, message)
}

// CheckRequiredField checks the named input carries the required attribute
func (c *Commands) CheckRequiredField(name string) {
	c.t().Helper()
	c.Shell.ShouldHaveAttr(name, "required", "")
}

// FillForm types into each named element
func (c *Commands) FillForm(values map[string]string) {
	c.t().Helper()
	c.Shell.FillForm(values)
}

// ClearForm clears every field inside the named form
func (c *Commands) ClearForm(form string) {
	c.t().Helper()
	c.Shell.ClearForm(form)
}

// ShouldHaveValidationError checks the element shows message and is styled
// as an error
func (c *Commands) ShouldHaveValidationError(name, message string) {
	c.t().Helper()
	c.Shell.ShouldContain(name, message).
		ShouldHaveClass(name, "error")
}

func (c *Commands) ShouldBeLoading(name string) {
	c.t().Helper()
	c.Shell.ShouldHaveClass(name, "loading")
}

func (c *Commands) ShouldNotBeLoading(name string) {
	c.t().Helper()
	c.Shell.ShouldNotHaveClass(name, "loading")
}

// APIRequest calls the REST API with the browser's session token, if any.
// Error statuses are returned, not failed on.
func (c *Commands) APIRequest(method, endpoint string, body interface{}) *api.Response {
	t := c.t()
	t.Helper()
	require.NotNil(t, c.deps.API, "apiRequest needs an API client")

	client := c.deps.API.WithAuthorization(c.Shell.Token())
	resp, err := client.Do(c.deps.Pages.Ctx, method, endpoint, body)
	require.NoErrorf(t, err, "%s %s", method, endpoint)
	return resp
}

func (c *Commands) WaitForPageLoad() {
	c.t().Helper()
	c.Shell.WaitForPageLoad()
}

func (c *Commands) TakeScreenshot(name string) {
	c.Shell.Screenshot(name)
}

// CheckResponsive resizes the window to each width and takes a screenshot
// named responsive-<width>
func (c *Commands) CheckResponsive(widths ...int64) {
	c.t().Helper()
	if len(widths) == 0 {
		widths = DefaultBreakpoints
	}
	for _, w := range widths {
		c.Shell.SetViewport(browser.Viewport{Width: w, Height: ResponsiveHeight}).
			ShouldBeVisible("body").
			Screenshot(fmt.Sprintf("responsive-%d", w))
	}
}

// SeedDatabase clears the browser session and, when configured, resets the
// backend
func (c *Commands) SeedDatabase() {
	t := c.t()
	t.Helper()
	c.Shell.ClearSession()
	if c.deps.ResetBackend != nil {
		require.NoError(t, c.deps.ResetBackend(c.deps.Pages.Ctx), "reset backend")
	}
}

func (c *Commands) WaitForNetworkIdle() {
	c.t().Helper()
	c.Shell.WaitForNetworkIdle()
}
