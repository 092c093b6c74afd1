package pages

import (
	"net/http"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/intercept"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// Network aliases registered by the auth page
const (
	AliasLogin    = "loginRequest"
	AliasRegister = "registerRequest"
)

var authSelectors = selector.MustRegistry(selector.TestIDs(
	"email-input",
	"password-input",
	"error-messages",
	"submit-button",
	"loading",
	"login-button",
	"login-form",
	"login-title",
	"signup-link",
	"username-input",
	"register-button",
	"register-form",
	"register-title",
	"signin-link",
)...)

// AuthPage covers /login and /register
type AuthPage struct {
	Page[*AuthPage]
}

// NewAuthPage creates the auth page object
func NewAuthPage(deps Deps) *AuthPage {
	p := &AuthPage{}
	p.Page = newPage(deps, authSelectors, p)
	return p
}

func (p *AuthPage) VisitLogin() *AuthPage {
	p.deps.T.Helper()
	return p.Visit("/login")
}

func (p *AuthPage) VisitRegister() *AuthPage {
	p.deps.T.Helper()
	return p.Visit("/register")
}

// Login fills the login form and clicks sign in
func (p *AuthPage) Login(email, password string) *AuthPage {
	p.deps.T.Helper()
	p.VisitLogin()
	p.fill(p.locate("email-input"), email)
	p.fill(p.locate("password-input"), password)
	p.click(p.locate("login-button"))
	return p
}

// LoginWithEnter submits the login form from the password field
func (p *AuthPage) LoginWithEnter(email, password string) *AuthPage {
	p.deps.T.Helper()
	p.VisitLogin()
	p.fill(p.locate("email-input"), email)
	p.fill(p.locate("password-input"), password)
	p.press(p.locate("password-input"), browser.KeyEnter)
	return p
}

func (p *AuthPage) Register(username, email, password string) *AuthPage {
	p.deps.T.Helper()
	p.VisitRegister()
	p.fill(p.locate("username-input"), username)
	p.fill(p.locate("email-input"), email)
	p.fill(p.locate("password-input"), password)
	p.click(p.locate("register-button"))
	return p
}

func (p *AuthPage) RegisterWithEnter(username, email, password string) *AuthPage {
	p.deps.T.Helper()
	p.VisitRegister()
	p.fill(p.locate("username-input"), username)
	p.fill(p.locate("email-input"), email)
	p.fill(p.locate("password-input"), password)
	p.press(p.locate("password-input"), browser.KeyEnter)
	return p
}

func (p *AuthPage) SubmitEmptyLogin() *AuthPage {
	p.deps.T.Helper()
	p.VisitLogin()
	p.click(p.locate("login-button"))
	return p
}

func (p *AuthPage) SubmitEmptyRegister() *AuthPage {
	p.deps.T.Helper()
	p.VisitRegister()
	p.click(p.locate("register-button"))
	return p
}

func (p *AuthPage) SubmitPartialLogin(email string) *AuthPage {
	p.deps.T.Helper()
	p.VisitLogin()
	p.fill(p.locate("email-input"), email)
	p.click(p.locate("login-button"))
	return p
}

func (p *AuthPage) SubmitPartialRegister(username, email string) *AuthPage {
	p.deps.T.Helper()
	p.VisitRegister()
	p.fill(p.locate("username-input"), username)
	p.fill(p.locate("email-input"), email)
	p.click(p.locate("register-button"))
	return p
}

func (p *AuthPage) GoToRegisterFromLogin() *AuthPage {
	p.deps.T.Helper()
	p.click(p.locate("signup-link"))
	return p
}

func (p *AuthPage) GoToLoginFromRegister() *AuthPage {
	p.deps.T.Helper()
	p.click(p.locate("signin-link"))
	return p
}

func (p *AuthPage) ClearLoginForm() *AuthPage {
	p.deps.T.Helper()
	p.clear(p.locate("email-input"))
	p.clear(p.locate("password-input"))
	return p
}

func (p *AuthPage) ClearRegisterForm() *AuthPage {
	p.deps.T.Helper()
	p.clear(p.locate("username-input"))
	p.clear(p.locate("email-input"))
	p.clear(p.locate("password-input"))
	return p
}

func (p *AuthPage) ShouldBeOnLoginPage() *AuthPage {
	p.deps.T.Helper()
	p.check("on login page", all(p.urlIncludes("/login"), p.visible(p.locate("login-title"))))
	return p
}

func (p *AuthPage) ShouldBeOnRegisterPage() *AuthPage {
	p.deps.T.Helper()
	p.check("on register page", all(p.urlIncludes("/register"), p.visible(p.locate("register-title"))))
	return p
}

func (p *AuthPage) ShouldRedirectToHome() *AuthPage {
	p.deps.T.Helper()
	return p.ShouldHaveURL("/")
}

func (p *AuthPage) ShouldShowErrorMessage(message string) *AuthPage {
	p.deps.T.Helper()
	loc := p.locate("error-messages")
	p.check("error message "+message, all(p.visible(loc), p.contains(loc, message)))
	return p
}

func (p *AuthPage) ShouldNotShowErrorMessage() *AuthPage {
	p.deps.T.Helper()
	return p.ShouldNotExist("error-messages")
}

// ShouldHaveValidationError checks the [data-cy=<field>-error] message
func (p *AuthPage) ShouldHaveValidationError(field, message string) *AuthPage {
	p.deps.T.Helper()
	return p.ShouldContain(field+"-error", message)
}

func (p *AuthPage) ShouldBeLoading() *AuthPage {
	p.deps.T.Helper()
	p.check("loading", all(
		p.visible(p.locate("loading")),
		p.disabled(p.locate("submit-button"), true),
	))
	return p
}

func (p *AuthPage) ShouldNotBeLoading() *AuthPage {
	p.deps.T.Helper()
	p.check("not loading", all(
		p.absent(p.locate("loading")),
		p.disabled(p.locate("submit-button"), false),
	))
	return p
}

func (p *AuthPage) ShouldHaveRequiredFields() *AuthPage {
	p.deps.T.Helper()
	p.check("required fields", all(
		p.attr(p.locate("email-input"), "required", ""),
		p.attr(p.locate("password-input"), "required", ""),
	))
	return p
}

func (p *AuthPage) ShouldHaveCorrectInputTypes() *AuthPage {
	p.deps.T.Helper()
	p.check("input types", all(
		p.attr(p.locate("email-input"), "type", "email"),
		p.attr(p.locate("password-input"), "type", "password"),
	))
	return p
}

func (p *AuthPage) ShouldHaveCorrectPlaceholders() *AuthPage {
	p.deps.T.Helper()
	p.check("placeholders", all(
		p.attr(p.locate("email-input"), "placeholder", "Email"),
		p.attr(p.locate("password-input"), "placeholder", "Password"),
	))
	return p
}

func (p *AuthPage) ShouldHaveWorkingLinks() *AuthPage {
	p.deps.T.Helper()
	p.check("form links", all(
		p.attr(p.locate("signup-link"), "href", "#/register"),
		p.attr(p.locate("signin-link"), "href", "#/login"),
	))
	return p
}

func (p *AuthPage) ShouldHaveEmptyForm() *AuthPage {
	p.deps.T.Helper()
	return p.ShouldHaveFilledForm("", "")
}

func (p *AuthPage) ShouldHaveFilledForm(email, password string) *AuthPage {
	p.deps.T.Helper()
	p.check("login form values", all(
		p.value(p.locate("email-input"), email),
		p.value(p.locate("password-input"), password),
	))
	return p
}

func (p *AuthPage) ShouldHaveFilledRegisterForm(username, email, password string) *AuthPage {
	p.deps.T.Helper()
	p.check("register form values", all(
		p.value(p.locate("username-input"), username),
		p.value(p.locate("email-input"), email),
		p.value(p.locate("password-input"), password),
	))
	return p
}

func (p *AuthPage) ShouldHaveAccessibleLabels() *AuthPage {
	p.deps.T.Helper()
	p.check("accessible labels", all(
		p.anyAttr(p.locate("email-input"), "aria-label", "id"),
		p.anyAttr(p.locate("password-input"), "aria-label", "id"),
	))
	return p
}

func (p *AuthPage) ShouldHaveAccessibleErrors() *AuthPage {
	p.deps.T.Helper()
	return p.ShouldHaveAttr("error-messages", "role", "alert")
}

// ExpectLoginRequest registers @loginRequest; call before submitting
func (p *AuthPage) ExpectLoginRequest() *AuthPage {
	p.deps.T.Helper()
	p.expect(AliasLogin, intercept.Route{Method: http.MethodPost, Pattern: "**/users/login"})
	return p
}

// ExpectRegisterRequest registers @registerRequest; call before submitting
func (p *AuthPage) ExpectRegisterRequest() *AuthPage {
	p.deps.T.Helper()
	p.expect(AliasRegister, intercept.Route{Method: http.MethodPost, Pattern: "**/users"})
	return p
}

func (p *AuthPage) ShouldReceiveLoginResponse() *AuthPage {
	p.deps.T.Helper()
	p.awaitStatus(AliasLogin, http.StatusOK)
	return p
}

func (p *AuthPage) ShouldReceiveRegisterResponse() *AuthPage {
	p.deps.T.Helper()
	p.awaitStatus(AliasRegister, http.StatusOK)
	return p
}

// ShouldReceiveErrorResponse waits for @loginRequest with the given status
func (p *AuthPage) ShouldReceiveErrorResponse(status int) *AuthPage {
	p.deps.T.Helper()
	p.awaitStatus(AliasLogin, status)
	return p
}
