package ui

import (
	"net/http"
	"testing"

	"github.com/ternarybob/conduit-e2e/internal/harness"
)

func TestRegisterFormElements(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagUI, harness.TagAuth)
	uc := harness.NewUIContext(t)

	uc.Auth.VisitRegister().
		ShouldBeOnRegisterPage().
		ShouldHaveRequiredFields().
		ShouldHaveCorrectInputTypes().
		ShouldHaveCorrectPlaceholders().
		ShouldHaveAccessibleLabels().
		ShouldBeVisible("username-input").
		ShouldBeVisible("register-button")
}

func TestRegisterNavigateToLogin(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagNavigation)
	uc := harness.NewUIContext(t)

	uc.Auth.VisitRegister().
		GoToLoginFromRegister().
		ShouldBeOnLoginPage()
}

func TestRegisterEmptyForm(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagValidation)
	uc := harness.NewUIContext(t)

	uc.Auth.ExpectRegisterRequest().
		SubmitEmptyRegister().
		ShouldShowErrorMessage("username can't be blank").
		ShouldShowErrorMessage("email can't be blank").
		ShouldShowErrorMessage("password can't be blank").
		ShouldNotHaveToken()
}

func TestRegisterNewUser(t *testing.T) {
	harness.Tags(t, harness.TagSmoke, harness.TagAuth)
	uc := harness.NewUIContext(t)
	in := uc.Data.User()

	uc.Auth.ExpectRegisterRequest().
		Register(in.Username, in.Email, in.Password).
		ShouldReceiveRegisterResponse().
		ShouldRedirectToHome().
		ShouldHaveToken()

	uc.Shell.ShouldContain("profile-link", in.Username)
	uc.Log("✓ Registered %s", in.Username)
}

func TestRegisterWithEnterKey(t *testing.T) {
	harness.Tags(t, harness.TagAuth)
	uc := harness.NewUIContext(t)
	in := uc.Data.User()

	uc.Auth.RegisterWithEnter(in.Username, in.Email, in.Password).
		ShouldRedirectToHome().
		ShouldHaveToken()
}

// Re-registering an existing identity is refused and leaves no session
func TestRegisterDuplicateUser(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagError, harness.TagSecurity)
	uc := harness.NewUIContext(t)
	existing := uc.Config.Users.Primary

	uc.Auth.ExpectRegisterRequest().
		Register(existing.Username, existing.Email, "password123").
		ShouldShowErrorMessage("has already been taken").
		ShouldNotHaveToken().
		ShouldIncludeURL("/register")

	resp := uc.APIRequest(http.MethodPost, "/users", map[string]map[string]string{
		"user": {"username": existing.Username, "email": existing.Email, "password": "password123"},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("duplicate registration via API returned %d, want 422", resp.StatusCode)
	}
}

func TestRegisterSpecialCharacters(t *testing.T) {
	harness.Tags(t, harness.TagAuth)
	uc := harness.NewUIContext(t)
	in := uc.Data.User()

	uc.Register("test-user_"+in.Username, in.Email, in.Password)
}

func TestRegisterPasswordIsMasked(t *testing.T) {
	harness.Tags(t, harness.TagAuth, harness.TagSecurity)
	uc := harness.NewUIContext(t)

	uc.Auth.VisitRegister().
		ShouldHaveAttr("password-input", "type", "password").
		Fill("password-input", "secretpassword")
	uc.Shell.ShouldNotContain("body", "secretpassword")
}
