// Package browsertest provides an in-memory browser.Driver backed by an HTML
// document, for testing page objects and commands without a browser.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/conduit-e2e/internal/browser"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// Handler reacts to a user action on a node
type Handler func(d *Driver)

// KeyHandler reacts to a special key pressed on a node
type KeyHandler func(d *Driver, key browser.Key)

// Driver is a scripted, single-document browser
type Driver struct {
	mu sync.Mutex

	baseURL string
	url     string
	doc     *goquery.Document
	focused *goquery.Selection

	routes   map[string]string
	clicks   map[string]Handler
	keys     map[string]KeyHandler
	storage  map[string]string
	cookies  map[string]string
	evals    map[string]interface{}
	viewport browser.Viewport

	calls []string
}

// New creates a driver whose locations are reported relative to baseURL
func New(baseURL string) *Driver {
	d := &Driver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		url:     "about:blank",
		routes:  make(map[string]string),
		clicks:  make(map[string]Handler),
		keys:    make(map[string]KeyHandler),
		storage: make(map[string]string),
		cookies: make(map[string]string),
		evals:   make(map[string]interface{}),
	}
	d.doc = mustParse("")
	return d
}

func mustParse(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(fmt.Sprintf("browsertest: invalid HTML: %v", err))
	}
	return doc
}

// Route serves html when path is navigated to
func (d *Driver) Route(path, html string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[path] = html
	return d
}

// OnClick registers a handler for clicks on [data-cy=testID]
func (d *Driver) OnClick(testID string, h Handler) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks[testID] = h
	return d
}

// OnKey registers a handler for special keys pressed on [data-cy=testID]
func (d *Driver) OnKey(testID string, h KeyHandler) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys[testID] = h
	return d
}

// OnEvaluate fixes the result returned for an exact expression
func (d *Driver) OnEvaluate(expression string, result interface{}) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evals[expression] = result
	return d
}

// Go changes location without a user action, as client side routing does.
// It must only be called from handlers.
func (d *Driver) Go(path string) {
	d.url = d.baseURL + path
	if html, ok := d.routes[path]; ok {
		d.doc = mustParse(html)
		d.focused = nil
	}
}

// SetHTML replaces the current document. It must only be called from handlers.
func (d *Driver) SetHTML(html string) {
	d.doc = mustParse(html)
	d.focused = nil
}

// Find exposes the current document to handlers
func (d *Driver) Find(query string) *goquery.Selection {
	return d.doc.Find(query)
}

// Target returns the node the current action was performed on. It must only
// be called from handlers.
func (d *Driver) Target() *goquery.Selection {
	return d.focused
}

// Value returns the value of the first [data-cy=testID] node. It must only be
// called from handlers.
func (d *Driver) Value(testID string) string {
	v, _ := d.doc.Find(selector.TestIDQuery(testID)).First().Attr("value")
	return v
}

// Store writes local storage. It must only be called from handlers.
func (d *Driver) Store(key, value string) {
	d.storage[key] = value
}

// Unstore deletes a local storage key. It must only be called from handlers.
func (d *Driver) Unstore(key string) {
	delete(d.storage, key)
}

// SetCookie records a cookie for ClearCookies assertions
func (d *Driver) SetCookie(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cookies[name] = value
}

// Cookies returns the number of cookies held
func (d *Driver) Cookies() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cookies)
}

// Storage returns a copy of local storage
func (d *Driver) Storage() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.storage))
	for k, v := range d.storage {
		out[k] = v
	}
	return out
}

// CurrentViewport returns the last viewport set
func (d *Driver) CurrentViewport() browser.Viewport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// Calls returns a log of driver operations, e.g. "click login-button"
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *Driver) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// resolve evaluates a locator against the current document
func (d *Driver) resolve(loc selector.Locator) []*goquery.Selection {
	var matches *goquery.Selection
	if scope, ok := loc.Scope(); ok {
		roots := d.resolve(scope)
		matches = d.doc.Find("__none__")
		for _, root := range roots {
			matches = matches.AddSelection(root.Find(loc.Query))
		}
	} else {
		matches = d.doc.Find(loc.Query)
	}

	var out []*goquery.Selection
	matches.Each(func(_ int, s *goquery.Selection) {
		if text := loc.Text(); text != "" && !strings.Contains(s.Text(), text) {
			return
		}
		out = append(out, s)
	})

	if i, ok := loc.Index(); ok {
		if i < len(out) {
			return out[i : i+1]
		}
		return nil
	}
	return out
}

func (d *Driver) first(loc selector.Locator) (*goquery.Selection, error) {
	nodes := d.resolve(loc)
	if len(nodes) == 0 {
		return nil, &selector.NotFoundError{Locator: loc}
	}
	return nodes[0], nil
}

func (d *Driver) snapshot(s *goquery.Selection) browser.Node {
	n := browser.Node{
		Text:    browser.NormalizeText(s.Text()),
		TagName: strings.ToUpper(goquery.NodeName(s)),
		Attrs:   make(map[string]string),
	}
	for _, a := range s.Nodes[0].Attr {
		n.Attrs[a.Key] = a.Val
	}
	n.Value = n.Attrs["value"]
	if n.TagName == "TEXTAREA" {
		if v, ok := n.Attrs["value"]; ok {
			n.Value = v
		} else {
			n.Value = s.Text()
		}
	}
	if class, ok := n.Attrs["class"]; ok {
		n.Classes = strings.Fields(class)
	}
	_, hidden := n.Attrs["hidden"]
	style := strings.ReplaceAll(n.Attrs["style"], " ", "")
	n.Visible = !hidden && !strings.Contains(style, "display:none") && !strings.Contains(style, "visibility:hidden")
	_, n.Disabled = n.Attrs["disabled"]
	n.Focused = d.focused != nil && s.IsSelection(d.focused)
	n.HTML, _ = s.Html()
	return n
}

func testID(s *goquery.Selection) string {
	v, _ := s.Attr(selector.TestIDAttribute)
	return v
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("navigate %s", url)

	path := strings.TrimPrefix(url, d.baseURL)
	if path == "" {
		path = "/"
	}
	html, ok := d.routes[path]
	if !ok {
		return fmt.Errorf("failed to navigate to %s: no route for %s", url, path)
	}
	d.url = url
	d.doc = mustParse(html)
	d.focused = nil
	return nil
}

func (d *Driver) Reload(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("reload")
	if html, ok := d.routes[strings.TrimPrefix(d.url, d.baseURL)]; ok {
		d.doc = mustParse(html)
		d.focused = nil
	}
	return nil
}

func (d *Driver) Location(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) Query(ctx context.Context, loc selector.Locator) ([]browser.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var nodes []browser.Node
	for _, s := range d.resolve(loc) {
		nodes = append(nodes, d.snapshot(s))
	}
	return nodes, nil
}

func (d *Driver) Click(ctx context.Context, loc selector.Locator) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.first(loc)
	if err != nil {
		return err
	}
	d.record("click %s", loc.Name)
	d.focused = s
	if h, ok := d.clicks[testID(s)]; ok {
		h(d)
	}
	return nil
}

func (d *Driver) Clear(ctx context.Context, loc selector.Locator) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.first(loc)
	if err != nil {
		return err
	}
	d.record("clear %s", loc.Name)
	s.SetAttr("value", "")
	return nil
}

func (d *Driver) Type(ctx context.Context, loc selector.Locator, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.first(loc)
	if err != nil {
		return err
	}
	d.record("type %s %s", loc.Name, text)
	d.focused = s
	current, _ := s.Attr("value")
	s.SetAttr("value", current+text)
	return nil
}

func (d *Driver) Press(ctx context.Context, loc selector.Locator, key browser.Key) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.first(loc)
	if err != nil {
		return err
	}
	d.record("press %s %s", loc.Name, key)
	d.focused = s
	if h, ok := d.keys[testID(s)]; ok {
		h(d, key)
	}
	return nil
}

func (d *Driver) Focus(ctx context.Context, loc selector.Locator) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.first(loc)
	if err != nil {
		return err
	}
	d.record("focus %s", loc.Name)
	d.focused = s
	return nil
}

func (d *Driver) LocalStorage(ctx context.Context, key string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.storage[key]
	return v, ok, nil
}

func (d *Driver) SetLocalStorage(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("storage set %s", key)
	d.storage[key] = value
	return nil
}

func (d *Driver) ClearStorage(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("storage clear")
	d.storage = make(map[string]string)
	return nil
}

func (d *Driver) ClearCookies(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("cookies clear")
	d.cookies = make(map[string]string)
	return nil
}

func (d *Driver) SetViewport(ctx context.Context, vp browser.Viewport) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("viewport %dx%d", vp.Width, vp.Height)
	d.viewport = vp
	return nil
}

// Screenshot returns a tiny placeholder image
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("screenshot")
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

// Evaluate returns the result registered with OnEvaluate, converted into
// result through JSON
func (d *Driver) Evaluate(ctx context.Context, expression string, result interface{}) error {
	d.mu.Lock()
	v, ok := d.evals[expression]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("browsertest: no result registered for expression %q", expression)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}

var _ browser.Driver = (*Driver)(nil)
