package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/common"
	"github.com/ternarybob/conduit-e2e/internal/selector"
)

// DialogPolicy decides how window.alert/confirm/prompt dialogs are answered
type DialogPolicy int

const (
	// DialogAccept presses OK on every dialog
	DialogAccept DialogPolicy = iota
	// DialogDismiss presses Cancel on every dialog
	DialogDismiss
)

// Options configures a chromedp Session
type Options struct {
	Headless   bool
	DisableGPU bool
	ExecPath   string
	Viewport   Viewport
}

// Session is a chromedp-backed Driver owning one browser and one tab
type Session struct {
	ctx    context.Context
	logger arbor.ILogger

	cancel []func()

	mu     sync.Mutex
	dialog DialogPolicy
}

// NewSession launches a browser. It returns an error when the browser
// cannot be started so callers can fail fast.
func NewSession(parent context.Context, opts Options, logger arbor.ILogger) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", opts.DisableGPU),
	)
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(int(opts.Viewport.Width), int(opts.Viewport.Height)))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:    browserCtx,
		logger: logger,
		cancel: []func(){cancelAlloc, cancelBrowser},
		dialog: DialogAccept,
	}

	// First Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		if err := s.SetViewport(browserCtx, opts.Viewport); err != nil {
			s.Close()
			return nil, err
		}
	}

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			accept := s.DialogPolicy() == DialogAccept
			s.logger.Debug().
				Str("type", string(e.Type)).
				Str("message", e.Message).
				Bool("accept", accept).
				Msg("Answering page dialog")
			common.SafeGo(s.logger, "dialog", func() {
				if err := chromedp.Run(browserCtx, page.HandleJavaScriptDialog(accept)); err != nil {
					s.logger.Warn().Err(err).Msg("Failed to answer page dialog")
				}
			})
		}
	})

	return s, nil
}

// Context returns the browser context for CDP listeners and actions
func (s *Session) Context() context.Context {
	return s.ctx
}

// SetDialogPolicy changes how subsequent dialogs are answered
func (s *Session) SetDialogPolicy(policy DialogPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = policy
}

// DialogPolicy returns the current dialog policy
func (s *Session) DialogPolicy() DialogPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialog
}

// Close shuts the browser down
func (s *Session) Close() {
	if err := chromedp.Cancel(s.ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Browser cancel returned an error")
	}
	for i := len(s.cancel) - 1; i >= 0; i-- {
		s.cancel[i]()
	}
}

// run executes actions on the browser, bounded by ctx's deadline
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Reload(ctx context.Context) error {
	return s.run(ctx, chromedp.Reload())
}

func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Session) Query(ctx context.Context, loc selector.Locator) ([]Node, error) {
	var nodes []Node
	if err := s.run(ctx, chromedp.Evaluate(queryScript(loc), &nodes)); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", loc, err)
	}
	return nodes, nil
}

// target tags the first node loc resolves to and returns a CSS query for it
func (s *Session) target(ctx context.Context, loc selector.Locator) (string, error) {
	token := uuid.NewString()
	var count int
	if err := s.run(ctx, chromedp.Evaluate(markScript(loc, token), &count)); err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", loc, err)
	}
	if count == 0 {
		return "", &selector.NotFoundError{Locator: loc}
	}
	return targetQuery(token), nil
}

func (s *Session) Click(ctx context.Context, loc selector.Locator) error {
	sel, err := s.target(ctx, loc)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.Click(sel, chromedp.ByQuery))
}

func (s *Session) Clear(ctx context.Context, loc selector.Locator) error {
	sel, err := s.target(ctx, loc)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.Clear(sel, chromedp.ByQuery))
}

func (s *Session) Type(ctx context.Context, loc selector.Locator, text string) error {
	sel, err := s.target(ctx, loc)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.SendKeys(sel, text, chromedp.ByQuery))
}

func (s *Session) Press(ctx context.Context, loc selector.Locator, key Key) error {
	sel, err := s.target(ctx, loc)
	if err != nil {
		return err
	}

	var action chromedp.Action
	switch key {
	case KeyEnter:
		action = chromedp.SendKeys(sel, kb.Enter, chromedp.ByQuery)
	case KeyTab:
		action = chromedp.SendKeys(sel, kb.Tab, chromedp.ByQuery)
	case KeyCtrlEnter:
		action = chromedp.Tasks{
			chromedp.Focus(sel, chromedp.ByQuery),
			chromedp.KeyEvent(kb.Enter, chromedp.KeyModifiers(input.ModifierCtrl)),
		}
	case KeyCtrlA:
		action = chromedp.Tasks{
			chromedp.Focus(sel, chromedp.ByQuery),
			chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
		}
	default:
		return fmt.Errorf("unsupported key %q", key)
	}
	return s.run(ctx, action)
}

func (s *Session) Focus(ctx context.Context, loc selector.Locator) error {
	sel, err := s.target(ctx, loc)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.Focus(sel, chromedp.ByQuery))
}

func (s *Session) LocalStorage(ctx context.Context, key string) (string, bool, error) {
	var res struct {
		OK    bool   `json:"ok"`
		Value string `json:"value"`
	}
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(storageGetScript, jsString(key)), &res)); err != nil {
		return "", false, fmt.Errorf("failed to read localStorage[%s]: %w", key, err)
	}
	return res.Value, res.OK, nil
}

func (s *Session) SetLocalStorage(ctx context.Context, key, value string) error {
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(storageSetScript, jsString(key), jsString(value)), &ok)); err != nil {
		return fmt.Errorf("failed to write localStorage[%s]: %w", key, err)
	}
	return nil
}

func (s *Session) ClearStorage(ctx context.Context) error {
	var ok bool
	return s.run(ctx, chromedp.Evaluate(storageClearScript, &ok))
}

func (s *Session) ClearCookies(ctx context.Context) error {
	return s.run(ctx, network.ClearBrowserCookies())
}

func (s *Session) SetViewport(ctx context.Context, vp Viewport) error {
	if err := s.run(ctx, chromedp.EmulateViewport(vp.Width, vp.Height)); err != nil {
		return fmt.Errorf("failed to set viewport %s: %w", vp, err)
	}
	return nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (s *Session) Evaluate(ctx context.Context, expression string, result interface{}) error {
	return s.run(ctx, chromedp.Evaluate(expression, result))
}

var _ Driver = (*Session)(nil)
