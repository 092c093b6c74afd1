package pages

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

var shellSelectors = selector.MustRegistry(append(selector.TestIDs(
	"home-link",
	"new-post-link",
	"settings-link",
	"profile-link",
	"login-link",
	"register-link",
	"loading",
),
	selector.CSS("body", "body"),
	selector.CSS("form-field", "input, textarea"),
)...)

// Shell is the application frame shared by every screen: the navigation
// header, form plumbing and the browser session itself.
type Shell struct {
	Page[*Shell]
}

// NewShell creates the shell page object
func NewShell(deps Deps) *Shell {
	p := &Shell{}
	p.Page = newPage(deps, shellSelectors, p)
	return p
}

func (p *Shell) NavigateToHome() *Shell {
	p.deps.T.Helper()
	p.click(p.locate("home-link"))
	return p.ShouldHaveURL("/")
}

func (p *Shell) NavigateToEditor() *Shell {
	p.deps.T.Helper()
	p.click(p.locate("new-post-link"))
	return p.ShouldIncludeURL("/editor")
}

func (p *Shell) NavigateToSettings() *Shell {
	p.deps.T.Helper()
	p.click(p.locate("settings-link"))
	return p.ShouldIncludeURL("/settings")
}

func (p *Shell) NavigateToProfile() *Shell {
	p.deps.T.Helper()
	p.click(p.locate("profile-link"))
	return p.ShouldIncludeURL("/@")
}

// WaitForPageLoad waits for the loading indicator to go and the body to show
func (p *Shell) WaitForPageLoad() *Shell {
	p.deps.T.Helper()
	p.check("loading finished", p.absent(p.locate("loading")))
	p.check("body visible", p.visible(p.locate("body")))
	return p
}

// FillForm types each value into the element named by its key, in key order
func (p *Shell) FillForm(values map[string]string) *Shell {
	p.deps.T.Helper()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.add(p.locate(name), values[name])
	}
	return p
}

// ClearForm clears every input and textarea inside the named form
func (p *Shell) ClearForm(form string) *Shell {
	p.deps.T.Helper()
	scope := p.locate(form)
	p.check(form+" exists", p.exists(scope))

	fields := p.locate("form-field").Within(scope)
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	nodes, err := p.query(ctx, fields)
	cancel()
	if err != nil {
		p.fail("list fields of "+form, err)
		return p
	}
	for i := range nodes {
		p.clear(fields.Nth(i))
	}
	return p
}

// SetViewport resizes the browser window
func (p *Shell) SetViewport(vp browser.Viewport) *Shell {
	p.deps.T.Helper()
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	defer cancel()
	if err := p.deps.Driver.SetViewport(ctx, vp); err != nil {
		p.fail("set viewport "+vp.String(), err)
	}
	return p
}

// Evaluate runs a JavaScript expression and decodes its value into result
func (p *Shell) Evaluate(expression string, result interface{}) *Shell {
	p.deps.T.Helper()
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	defer cancel()
	if err := p.deps.Driver.Evaluate(ctx, expression, result); err != nil {
		p.fail("evaluate script", err)
	}
	return p
}

// ClearSession clears local storage and cookies
func (p *Shell) ClearSession() *Shell {
	p.deps.T.Helper()
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	defer cancel()
	if err := p.deps.Driver.ClearStorage(ctx); err != nil {
		p.fail("clear local storage", err)
	}
	if err := p.deps.Driver.ClearCookies(ctx); err != nil {
		p.fail("clear cookies", err)
	}
	return p
}

// SetToken stores a session token the way the app does after login
func (p *Shell) SetToken(token string) *Shell {
	p.deps.T.Helper()
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	defer cancel()
	if err := p.deps.Driver.SetLocalStorage(ctx, TokenKey, token); err != nil {
		p.fail("store token", err)
	}
	return p
}

// WaitForNetworkIdle waits until no matched request is in flight
func (p *Shell) WaitForNetworkIdle() *Shell {
	p.deps.T.Helper()
	if p.deps.Interceptor == nil {
		return p
	}
	p.check("network idle", func(context.Context) error {
		if n := p.deps.Interceptor.InFlight(); n > 0 {
			return fmt.Errorf("%d requests in flight", n)
		}
		return nil
	})
	return p
}
