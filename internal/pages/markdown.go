package pages

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// markdownElements are produced by any non-trivial markdown document
const markdownElements = "h1, h2, h3, strong, em, ul, ol"

// RenderMarkdown converts markdown source to HTML
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// MarkdownText renders markdown and returns the visible text, whitespace
// normalised, as a browser would display it
func MarkdownText(source string) (string, error) {
	html, err := RenderMarkdown(source)
	if err != nil {
		return "", err
	}
	return htmlText(html)
}

func htmlText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return browser.NormalizeText(doc.Text()), nil
}

// countElements returns how many nodes in an HTML fragment match query
func countElements(html, query string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc.Find(query).Length(), nil
}

// rendersMarkdown checks loc's inner HTML holds markdown output elements
func (c *core) rendersMarkdown(loc selector.Locator) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		found, err := countElements(n.HTML, markdownElements)
		if err != nil {
			return err
		}
		if found == 0 {
			return fmt.Errorf("%s: expected rendered markdown (%s)", loc, markdownElements)
		}
		return nil
	}
}

// hasElements checks loc's inner HTML contains at least one of each query
func (c *core) hasElements(loc selector.Locator, queries ...string) predicate {
	return func(ctx context.Context) error {
		n, err := c.first(ctx, loc)
		if err != nil {
			return err
		}
		var missing []string
		for _, q := range queries {
			found, err := countElements(n.HTML, q)
			if err != nil {
				return err
			}
			if found == 0 {
				missing = append(missing, q)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s: missing rendered elements %v", loc, missing)
		}
		return nil
	}
}

// showsMarkdown checks loc's text contains the rendered text of source
func (c *core) showsMarkdown(loc selector.Locator, source string) predicate {
	want, renderErr := MarkdownText(source)
	return func(ctx context.Context) error {
		if renderErr != nil {
			return renderErr
		}
		return c.contains(loc, want)(ctx)
	}
}
