package intercept

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// Attach routes the browser's XHR and fetch traffic through ic using the CDP
// Fetch domain. Requests pause twice: at the request stage a stub may answer
// or fail the call; at the response stage the real status and body are
// captured for matched requests.
func Attach(ctx context.Context, ic *Interceptor, logger arbor.ILogger) error {
	var patterns []*fetch.RequestPattern
	for _, rt := range []network.ResourceType{network.ResourceTypeXHR, network.ResourceTypeFetch} {
		patterns = append(patterns,
			&fetch.RequestPattern{URLPattern: "*", ResourceType: rt, RequestStage: fetch.RequestStageRequest},
			&fetch.RequestPattern{URLPattern: "*", ResourceType: rt, RequestStage: fetch.RequestStageResponse},
		)
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*fetch.EventRequestPaused); ok {
			// Handlers must not block the event loop
			go handlePaused(ctx, ic, logger, e)
		}
	})

	if err := chromedp.Run(ctx, fetch.Enable().WithPatterns(patterns)); err != nil {
		return fmt.Errorf("failed to enable request interception: %w", err)
	}
	return nil
}

func requestKey(e *fetch.EventRequestPaused) string {
	if e.NetworkID != "" {
		return string(e.NetworkID)
	}
	return string(e.RequestID)
}

func isResponseStage(e *fetch.EventRequestPaused) bool {
	return e.ResponseStatusCode != 0 || e.ResponseErrorReason != ""
}

func handlePaused(ctx context.Context, ic *Interceptor, logger arbor.ILogger, e *fetch.EventRequestPaused) {
	key := requestKey(e)

	var err error
	if isResponseStage(e) {
		err = handleResponseStage(ctx, ic, key, e)
	} else {
		err = handleRequestStage(ctx, ic, key, e)
	}
	if err != nil {
		logger.Warn().
			Err(err).
			Str("url", e.Request.URL).
			Msg("Failed to handle intercepted request")
	}
}

func handleRequestStage(ctx context.Context, ic *Interceptor, key string, e *fetch.EventRequestPaused) error {
	d := ic.Observe(capturedRequest(key, e.Request))
	if !d.Matched || d.Fulfilment == nil {
		return chromedp.Run(ctx, fetch.ContinueRequest(e.RequestID))
	}

	f := d.Fulfilment
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if f.NetworkError {
		ic.Complete(key, Response{NetworkError: true, Stubbed: true})
		return chromedp.Run(ctx, fetch.FailRequest(e.RequestID, network.ErrorReasonFailed))
	}

	headers := make([]*fetch.HeaderEntry, 0, len(f.Headers))
	for name, value := range f.Headers {
		headers = append(headers, &fetch.HeaderEntry{Name: name, Value: value})
	}
	// CORS preflighted apps need the stub to be readable cross origin
	if _, ok := f.Headers["Access-Control-Allow-Origin"]; !ok {
		headers = append(headers, &fetch.HeaderEntry{Name: "Access-Control-Allow-Origin", Value: "*"})
	}

	err := chromedp.Run(ctx, fetch.FulfillRequest(e.RequestID, int64(f.StatusCode)).
		WithResponseHeaders(headers).
		WithBody(base64.StdEncoding.EncodeToString(f.Body)))
	ic.Complete(key, Response{
		StatusCode: f.StatusCode,
		Headers:    f.Headers,
		Body:       f.Body,
		Stubbed:    true,
	})
	return err
}

func handleResponseStage(ctx context.Context, ic *Interceptor, key string, e *fetch.EventRequestPaused) error {
	if !ic.Pending(key) {
		return chromedp.Run(ctx, fetch.ContinueRequest(e.RequestID))
	}

	resp := Response{
		StatusCode: int(e.ResponseStatusCode),
		Headers:    make(map[string]string, len(e.ResponseHeaders)),
	}
	for _, h := range e.ResponseHeaders {
		resp.Headers[h.Name] = h.Value
	}

	if e.ResponseErrorReason != "" {
		resp.NetworkError = true
	} else {
		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			body, err := fetch.GetResponseBody(e.RequestID).Do(ctx)
			if err != nil {
				return err
			}
			resp.Body = body
			return nil
		}))
		if err != nil {
			// Redirects and empty replies carry no body
			resp.Body = nil
		}
	}

	ic.Complete(key, resp)
	return chromedp.Run(ctx, fetch.ContinueRequest(e.RequestID))
}

func capturedRequest(key string, r *network.Request) Request {
	req := Request{
		ID:      key,
		Method:  r.Method,
		URL:     r.URL,
		Headers: make(map[string]string, len(r.Headers)),
	}
	for name, value := range r.Headers {
		req.Headers[name] = fmt.Sprint(value)
	}
	for _, entry := range r.PostDataEntries {
		if b, err := base64.StdEncoding.DecodeString(entry.Bytes); err == nil {
			req.Body = append(req.Body, b...)
		}
	}
	return req
}
