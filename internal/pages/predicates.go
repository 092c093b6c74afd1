package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// predicate is one poll of a DOM condition
type predicate func(ctx context.Context) error

func (c *core) query(ctx context.Context, loc selector.Locator) ([]browser.Node, error) {
	return c.deps.Driver.Query(ctx, loc)
}

// first returns the first node loc resolves to
func (c *core) first(ctx context.Context, loc selector.Locator) (browser.Node, error) {
	nodes, err := c.query(ctx, loc)
	if err != nil {
		return browser.Node{}, err
	}
	if len(nodes) == 0 {
		return browser.Node{}, &selector.NotFoundError{Locator: loc}
	}
	return nodes[0], nil
}

func (c *core) exists(loc selector.Locator) predicate {
	return func(ctx context.Context) error {
		_, err := c.first(ctx, loc)
		return err
	}
}

func (c *core) visible(loc selector.Locator) predicate {
	return func(ctx context.Context) error {
		nodes, err := c.query(ctx, loc)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return &selector.NotFoundError{Locator: loc}
		}
		for _, n := range nodes {
			if n.Visible {
				return nil
			}
		}
		return fmt.Errorf("%s: found %d node(s) but none is visible", loc, len(nodes))
	}
}

// actionable means visible and not disabled
func (c *core) actionable(loc selector.Locator) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if !n.Visible {
			return fmt.Errorf("%s: not visible", loc)
		}
		if n.Disabled {
			return fmt.Errorf("%s: disabled", loc)
		}
		return nil
	}
}

func (c *core) absent(loc selector.Locator) predicate {
	return func(ctx context.Context) error {
		nodes, err := c.query(ctx, loc)
		if err != nil {
			return err
		}
		if len(nodes) > 0 {
			return fmt.Errorf("%s: expected not to exist, found %d node(s)", loc, len(nodes))
		}
		return nil
	}
}

func (c *core) contains(loc selector.Locator, text string) predicate {
	return func(ctx context.Context) error {
		nodes, err := c.query(ctx, loc)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return &selector.NotFoundError{Locator: loc}
		}
		var seen []string
		for _, n := range nodes {
			if strings.Contains(n.Text, text) {
				return nil
			}
			seen = append(seen, n.Text)
		}
		return fmt.Errorf("%s: expected to contain %q, got %q", loc, text, strings.Join(seen, " | "))
	}
}

func (c *core) notContains(loc selector.Locator, text string) predicate {
	return func(ctx context.Context) error {
		nodes, err := c.query(ctx, loc)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return &selector.NotFoundError{Locator: loc}
		}
		for _, n := range nodes {
			if strings.Contains(n.Text, text) {
				return fmt.Errorf("%s: expected not to contain %q, got %q", loc, text, n.Text)
			}
		}
		return nil
	}
}

func (c *core) count(loc selector.Locator, want int) predicate {
	return func(ctx context.Context) error {
		nodes, err := c.query(ctx, loc)
		if err != nil {
			return err
		}
		if len(nodes) != want {
			return fmt.Errorf("%s: expected %d node(s), found %d", loc, want, len(nodes))
		}
		return nil
	}
}

func (c *core) countAtLeast(loc selector.Locator, min int) predicate {
	return func(ctx context.Context) error {
		nodes, err := c.query(ctx, loc)
		if err != nil {
			return err
		}
		if len(nodes) < min {
			return fmt.Errorf("%s: expected at least %d node(s), found %d", loc, min, len(nodes))
		}
		return nil
	}
}

// sameCount requires a and b to resolve to the same number of nodes
func (c *core) sameCount(a, b selector.Locator) predicate {
	return func(ctx context.Context) error {
		na, err := c.query(ctx, a)
		if err != nil {
			return err
		}
		nb, err := c.query(ctx, b)
		if err != nil {
			return err
		}
		if len(na) != len(nb) {
			return fmt.Errorf("%s: expected %d node(s) to match %s, found %d", b, len(na), a, len(nb))
		}
		return nil
	}
}

// attr checks an attribute value; an empty want only requires presence
func (c *core) attr(loc selector.Locator, name, want string) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		got, ok := n.Attr(name)
		if !ok {
			return fmt.Errorf("%s: expected attribute %q", loc, name)
		}
		if want != "" && got != want {
			return fmt.Errorf("%s: expected %s=%q, got %q", loc, name, want, got)
		}
		return nil
	}
}

// anyAttr requires at least one of the attributes to be present
func (c *core) anyAttr(loc selector.Locator, names ...string) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, ok := n.Attr(name); ok {
				return nil
			}
		}
		return fmt.Errorf("%s: expected one of attributes %v", loc, names)
	}
}

func (c *core) value(loc selector.Locator, want string) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if n.Value != want {
			return fmt.Errorf("%s: expected value %q, got %q", loc, want, n.Value)
		}
		return nil
	}
}

func (c *core) class(loc selector.Locator, class string) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if !n.HasClass(class) {
			return fmt.Errorf("%s: expected class %q, got %v", loc, class, n.Classes)
		}
		return nil
	}
}

func (c *core) notClass(loc selector.Locator, class string) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if n.HasClass(class) {
			return fmt.Errorf("%s: unexpected class %q", loc, class)
		}
		return nil
	}
}

func (c *core) focused(loc selector.Locator) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if !n.Focused {
			return fmt.Errorf("%s: expected focus", loc)
		}
		return nil
	}
}

func (c *core) disabled(loc selector.Locator, want bool) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if n.Disabled != want {
			return fmt.Errorf("%s: expected disabled=%t", loc, want)
		}
		return nil
	}
}

func (c *core) tagName(loc selector.Locator, want string) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if !strings.EqualFold(n.TagName, want) {
			return fmt.Errorf("%s: expected <%s>, got <%s>", loc, strings.ToLower(want), strings.ToLower(n.TagName))
		}
		return nil
	}
}

func (c *core) notEmpty(loc selector.Locator) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		if strings.TrimSpace(n.Text) == "" {
			return fmt.Errorf("%s: expected text", loc)
		}
		return nil
	}
}

func (c *core) urlEquals(want string) predicate {
	return func(ctx context.Context) error {
		got, err := c.location(ctx)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("expected URL %q, got %q", want, got)
		}
		return nil
	}
}

func (c *core) urlIncludes(fragment string) predicate {
	return func(ctx context.Context) error {
		got, err := c.location(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(got, fragment) {
			return fmt.Errorf("expected URL to include %q, got %q", fragment, got)
		}
		return nil
	}
}

func (c *core) token(present bool) predicate {
	return func(ctx context.Context) error {
		v, ok, err := c.deps.Driver.LocalStorage(ctx, TokenKey)
		if err != nil {
			return err
		}
		switch {
		case present && (!ok || v == ""):
			return fmt.Errorf("expected localStorage.%s to be set", TokenKey)
		case !present && ok:
			return fmt.Errorf("expected localStorage.%s to be absent, got %q", TokenKey, v)
		}
		return nil
	}
}

// all combines predicates; the first failure is reported
func all(preds ...predicate) predicate {
	return func(ctx context.Context) error {
		for _, p := range preds {
			if err := p(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
