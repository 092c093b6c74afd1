package ui

import (
	"net/http"
	"testing"
	"time"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/harness"
	"github.com/ternarybob/conduit-e2e/internal/intercept"
	"github.com/ternarybob/conduit-e2e/internal/pages"
)

// Public demo account of the Conduit reference backend
const (
	demoEmail    = "demo@demo.com"
	demoPassword = "demopassword"
)

func TestLoginFormElements(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagUI, harness.TagAuth)
	uc := harness.NewUIContext(t)

	uc.Auth.VisitLogin().
		ShouldBeOnLoginPage().
		ShouldBeVisible("email-input").
		ShouldBeVisible("password-input").
		ShouldBeVisible("login-button").
		ShouldHaveCorrectInputTypes().
		ShouldHaveEmptyForm()
}

func TestLoginNavigateToRegister(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagNavigation)
	uc := harness.NewUIContext(t)

	uc.Auth.VisitLogin().
		GoToRegisterFromLogin().
		ShouldBeOnRegisterPage()
}

func TestLoginValidation(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagValidation)
	uc := harness.NewUIContext(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     []string
	}{
		{name: "empty form", want: []string{"email can't be blank", "password can't be blank"}},
		{name: "missing password", email: "test@example.com", want: []string{"password can't be blank"}},
		{name: "missing email", password: "password123", want: []string{"email can't be blank"}},
	}

	// page objects are bound to t, so cases run in sequence rather than as subtests
	for _, tt := range tests {
		uc.Log("Case: %s", tt.name)
		uc.Auth.VisitLogin()
		if tt.email != "" {
			uc.Auth.Fill("email-input", tt.email)
		}
		if tt.password != "" {
			uc.Auth.Fill("password-input", tt.password)
		}
		uc.Auth.Click("login-button")
		for _, msg := range tt.want {
			uc.Auth.ShouldShowErrorMessage(msg)
		}
		uc.Auth.ShouldNotHaveToken()
	}
}

// Valid demo credentials land on the home page with a session token stored
func TestLoginDemoAccount(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagAuth)
	uc := harness.NewUIContext(t)

	uc.Auth.ExpectLoginRequest().
		Login(demoEmail, demoPassword).
		ShouldReceiveLoginResponse().
		ShouldRedirectToHome().
		ShouldHaveToken()
}

func TestLoginValidCredentials(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagAuth)
	uc := harness.NewUIContext(t)
	user := uc.Config.Users.Primary

	uc.Auth.ExpectLoginRequest().
		Login(user.Email, user.Password).
		ShouldReceiveLoginResponse().
		ShouldRedirectToHome().
		ShouldHaveToken()

	uc.Shell.
		ShouldBeVisible("settings-link").
		ShouldNotExist("login-link")
}

func TestLoginWithEnterKey(t *testing.T) {
	harness.Tags(t, harness.TagAuth)
	uc := harness.NewUIContext(t)
	user := uc.Config.Users.Primary

	uc.Auth.LoginWithEnter(user.Email, user.Password).
		ShouldRedirectToHome().
		ShouldHaveToken()
}

func TestLoginPersistsAfterReload(t *testing.T) {
	harness.Tags(t, harness.TagAuth)
	uc := harness.NewUIContext(t)
	user := uc.Config.Users.Primary

	uc.Login(user.Email, user.Password)
	uc.Home.Reload().
		ShouldHaveToken()
	uc.Shell.ShouldBeVisible("settings-link")
}

func TestLoginSessionAcrossNavigation(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagNavigation)
	uc := harness.NewUIContext(t)
	user := uc.Config.Users.Primary

	uc.LoginAPI(user.Email, user.Password)
	uc.NavigateToEditor()
	uc.Shell.ShouldBeVisible("settings-link")
	uc.NavigateToSettings()
	uc.Shell.ShouldBeVisible("settings-link")
	uc.Logout()
}

// Invalid credentials get a 422, an error message and no token
func TestLoginInvalidCredentials(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagError, harness.TagSecurity)
	uc := harness.NewUIContext(t)

	uc.Auth.ExpectLoginRequest().
		Login("invalid@example.com", "wrongpassword").
		ShouldReceiveErrorResponse(http.StatusUnprocessableEntity).
		ShouldShowErrorMessage("email or password is invalid").
		ShouldNotHaveToken().
		ShouldIncludeURL("/login")
}

func TestLoginLoadingState(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagUI, harness.TagSlow)
	uc := harness.NewUIContext(t)

	uc.Interceptor.MustRegister(pages.AliasLogin, intercept.Route{
		Method:  http.MethodPost,
		Pattern: "**/users/login",
		Stub: &intercept.Stub{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       map[string]map[string][]string{"errors": {"email or password": {"is invalid"}}},
			Delay:      2 * time.Second,
		},
	})

	uc.Auth.Login("test@example.com", "password123").
		ShouldBeLoading().
		ShouldReceiveErrorResponse(http.StatusUnprocessableEntity).
		ShouldNotBeLoading()
}

func TestLoginBackendFailures(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagError)
	uc := harness.NewUIContext(t)

	tests := []struct {
		name string
		stub intercept.Stub
	}{
		{name: "network error", stub: intercept.Stub{ForceNetworkError: true}},
		{name: "server error", stub: intercept.Stub{StatusCode: http.StatusInternalServerError, Body: `{}`}},
	}

	for _, tt := range tests {
		uc.Log("Case: %s", tt.name)
		stub := tt.stub
		uc.Interceptor.MustRegister(pages.AliasLogin, intercept.Route{
			Method:  http.MethodPost,
			Pattern: "**/users/login",
			Stub:    &stub,
		})
		uc.Auth.Login("test@example.com", "password123").
			ShouldBeVisible("error-messages").
			ShouldNotHaveToken().
			ShouldIncludeURL("/login")
	}
}

func TestLoginPasswordIsMasked(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagSecurity)
	uc := harness.NewUIContext(t)

	uc.Auth.VisitLogin().
		ShouldHaveAttr("password-input", "type", "password").
		Fill("password-input", "secretpassword").
		ShouldHaveAccessibleLabels()
	uc.Shell.ShouldNotContain("body", "secretpassword")
}

func TestLoginKeyboardNavigation(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagUI)
	uc := harness.NewUIContext(t)

	uc.Auth.VisitLogin().
		Press("email-input", browser.KeyTab).
		ShouldHaveFocus("password-input")
}

func TestLoginOnDevices(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagResponsive)
	uc := harness.NewUIContext(t)
	user := uc.Config.Users.Primary

	for _, name := range []string{"iphone-x", "ipad-2"} {
		vp, _ := browser.Preset(name)
		uc.Log("Viewport %s (%s)", name, vp)
		uc.Shell.SetViewport(vp).
			ClearSession()
		uc.Auth.VisitLogin().
			ShouldBeVisible("login-form")
		uc.Auth.Login(user.Email, user.Password).
			ShouldRedirectToHome().
			ShouldHaveToken()
	}
}

func TestLoginPerformance(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagPerformance)
	uc := harness.NewUIContext(t)
	user := uc.Config.Users.Primary

	uc.Auth.VisitLogin()
	metrics := uc.MeasurePerformance("login-page-load")
	uc.Log("login page loaded in %.0fms (available %v)", metrics.TotalTime, metrics.Available)

	start := time.Now()
	uc.Login(user.Email, user.Password)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("login took %s, want under 3s", elapsed)
	}
}
