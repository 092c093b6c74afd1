package pages

import (
	"context"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// Page carries the checks every screen shares. P is the concrete page type,
// so chains keep their static type: auth.Visit("/").ShouldHaveToken().Login(...)
type Page[P any] struct {
	core
	self P
}

func newPage[P any](deps Deps, registry *selector.Registry, self P) Page[P] {
	return Page[P]{core: newCore(deps, registry), self: self}
}

// Locate returns the locator for a symbolic element name
func (p *Page[P]) Locate(name string) selector.Locator {
	return p.locate(name)
}

// Visit navigates to a path relative to the base URL
func (p *Page[P]) Visit(path string) P {
	p.deps.T.Helper()
	p.visit(path)
	return p.self
}

// Reload reloads the current document
func (p *Page[P]) Reload() P {
	p.deps.T.Helper()
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	defer cancel()
	if err := p.deps.Driver.Reload(ctx); err != nil {
		p.fail("reload", err)
	}
	return p.self
}

// URL returns the current location
func (p *Page[P]) URL() string {
	p.deps.T.Helper()
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	defer cancel()
	url, err := p.location(ctx)
	if err != nil {
		p.fail("read location", err)
	}
	return url
}

// Token returns the stored session token, empty when absent
func (p *Page[P]) Token() string {
	p.deps.T.Helper()
	ctx, cancel := context.WithTimeout(p.deps.Ctx, p.deps.Policy.Timeout)
	defer cancel()
	v, _, err := p.deps.Driver.LocalStorage(ctx, TokenKey)
	if err != nil {
		p.fail("read token", err)
	}
	return v
}

// Click clicks the named element
func (p *Page[P]) Click(name string) P {
	p.deps.T.Helper()
	p.click(p.locate(name))
	return p.self
}

// Fill clears the named input and types text
func (p *Page[P]) Fill(name, text string) P {
	p.deps.T.Helper()
	p.fill(p.locate(name), text)
	return p.self
}

// Press presses a special key on the named element
func (p *Page[P]) Press(name string, key browser.Key) P {
	p.deps.T.Helper()
	p.press(p.locate(name), key)
	return p.self
}

// Screenshot saves a screenshot of the page
func (p *Page[P]) Screenshot(name string) P {
	p.screenshot(name)
	return p.self
}

// ShouldHaveURL checks the location equals the base URL plus path
func (p *Page[P]) ShouldHaveURL(path string) P {
	p.deps.T.Helper()
	p.check("url equals "+path, p.urlEquals(p.deps.BaseURL+path))
	return p.self
}

// ShouldIncludeURL checks the location contains fragment
func (p *Page[P]) ShouldIncludeURL(fragment string) P {
	p.deps.T.Helper()
	p.check("url includes "+fragment, p.urlIncludes(fragment))
	return p.self
}

// ShouldHaveToken checks a session token is stored
func (p *Page[P]) ShouldHaveToken() P {
	p.deps.T.Helper()
	p.check("token stored", p.token(true))
	return p.self
}

// ShouldNotHaveToken checks no session token is stored
func (p *Page[P]) ShouldNotHaveToken() P {
	p.deps.T.Helper()
	p.check("no token stored", p.token(false))
	return p.self
}

func (p *Page[P]) ShouldExist(name string) P {
	p.deps.T.Helper()
	p.check(name+" exists", p.exists(p.locate(name)))
	return p.self
}

func (p *Page[P]) ShouldBeVisible(name string) P {
	p.deps.T.Helper()
	p.check(name+" visible", p.visible(p.locate(name)))
	return p.self
}

func (p *Page[P]) ShouldNotExist(name string) P {
	p.deps.T.Helper()
	p.check(name+" absent", p.absent(p.locate(name)))
	return p.self
}

func (p *Page[P]) ShouldContain(name, text string) P {
	p.deps.T.Helper()
	p.check(name+" contains "+text, p.contains(p.locate(name), text))
	return p.self
}

func (p *Page[P]) ShouldNotContain(name, text string) P {
	p.deps.T.Helper()
	p.check(name+" does not contain "+text, p.notContains(p.locate(name), text))
	return p.self
}

func (p *Page[P]) ShouldHaveCount(name string, n int) P {
	p.deps.T.Helper()
	p.check(name+" count", p.count(p.locate(name), n))
	return p.self
}

// ShouldHaveAttr checks an attribute; an empty value only requires presence
func (p *Page[P]) ShouldHaveAttr(name, attr, value string) P {
	p.deps.T.Helper()
	p.check(name+" attribute "+attr, p.attr(p.locate(name), attr, value))
	return p.self
}

func (p *Page[P]) ShouldHaveValue(name, value string) P {
	p.deps.T.Helper()
	p.check(name+" value", p.value(p.locate(name), value))
	return p.self
}

func (p *Page[P]) ShouldHaveClass(name, class string) P {
	p.deps.T.Helper()
	p.check(name+" class "+class, p.class(p.locate(name), class))
	return p.self
}

func (p *Page[P]) ShouldNotHaveClass(name, class string) P {
	p.deps.T.Helper()
	p.check(name+" without class "+class, p.notClass(p.locate(name), class))
	return p.self
}

func (p *Page[P]) ShouldHaveFocus(name string) P {
	p.deps.T.Helper()
	p.check(name+" focused", p.focused(p.locate(name)))
	return p.self
}

func (p *Page[P]) ShouldBeDisabled(name string) P {
	p.deps.T.Helper()
	p.check(name+" disabled", p.disabled(p.locate(name), true))
	return p.self
}

func (p *Page[P]) ShouldBeEnabled(name string) P {
	p.deps.T.Helper()
	p.check(name+" enabled", p.disabled(p.locate(name), false))
	return p.self
}
