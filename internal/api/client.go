// Package api is a client for the Conduit REST API used by suites that call
// the backend directly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/conduit-e2e/internal/payload"
)

const (
	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second

	// AuthScheme prefixes the token in the Authorization header
	AuthScheme = "Token"
)

// APIError is returned by typed helpers for non-2xx responses
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Errors     map[string][]string
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("conduit API error: %s %s returned %d: %v", e.Method, e.Path, e.StatusCode, e.Errors)
	}
	return fmt.Sprintf("conduit API error: %s %s returned %d", e.Method, e.Path, e.StatusCode)
}

// StatusCode extracts the HTTP status from an *APIError, 0 otherwise
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Response is a raw API response. Non-2xx statuses are not errors.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into target
func (r *Response) Decode(target interface{}) error {
	return payload.Decode(r.Body, target)
}

// Query evaluates a jq expression against the JSON body
func (r *Response) Query(ctx context.Context, expression string) (interface{}, error) {
	return payload.Query(ctx, expression, r.Body)
}

// Errors returns the 422 errors map, nil when the body has none
func (r *Response) Errors() map[string][]string {
	var env ErrorsEnvelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return nil
	}
	return env.Errors
}

// Client is a Conduit API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter

	mu    sync.RWMutex
	token string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit limits outgoing requests per second; zero disables limiting
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithToken authenticates requests from the start
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a client for the API rooted at baseURL (e.g. http://host/api)
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the token sent with requests, empty when anonymous
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken changes the token sent with requests; empty sends none
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// WithoutToken returns a copy of the client that sends no Authorization header
func (c *Client) WithoutToken() *Client {
	return c.WithAuthorization("")
}

// WithAuthorization returns a copy of the client using token verbatim
func (c *Client) WithAuthorization(token string) *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		logger:     c.logger,
		limiter:    c.limiter,
		token:      token,
	}
}

// Do sends a request and returns the response whatever its status. body is
// JSON encoded unless it is nil, []byte or a string.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	reader, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", AuthScheme+" "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	duration := time.Since(start)

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("Conduit API request")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Duration:   duration,
	}, nil
}

func encodeBody(body interface{}) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// call sends a request and decodes a 2xx body into result
func (c *Client) call(ctx context.Context, method, path string, body, result interface{}) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Errors:     resp.Errors(),
			Body:       string(resp.Body),
		}
	}
	if result == nil {
		return nil
	}
	if err := resp.Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Login authenticates and, on success, uses the returned token from then on
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var env UserEnvelope
	body := map[string]LoginInput{"user": {Email: email, Password: password}}
	if err := c.call(ctx, http.MethodPost, "/users/login", body, &env); err != nil {
		return nil, fmt.Errorf("failed to login %s: %w", email, err)
	}
	c.SetToken(env.User.Token)
	return &env.User, nil
}

// Register creates a user and, on success, uses its token from then on
func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var env UserEnvelope
	if err := c.call(ctx, http.MethodPost, "/users", map[string]RegisterInput{"user": in}, &env); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", in.Username, err)
	}
	c.SetToken(env.User.Token)
	return &env.User, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var env UserEnvelope
	if err := c.call(ctx, http.MethodGet, "/user", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return &env.User, nil
}

func (c *Client) UpdateUser(ctx context.Context, in UpdateUserInput) (*User, error) {
	var env UserEnvelope
	if err := c.call(ctx, http.MethodPut, "/user", map[string]UpdateUserInput{"user": in}, &env); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &env.User, nil
}

func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	var env ProfileEnvelope
	if err := c.call(ctx, http.MethodGet, "/profiles/"+url.PathEscape(username), nil, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch profile %s: %w", username, err)
	}
	return &env.Profile, nil
}

func (c *Client) Follow(ctx context.Context, username string) (*Profile, error) {
	var env ProfileEnvelope
	if err := c.call(ctx, http.MethodPost, "/profiles/"+url.PathEscape(username)+"/follow", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to follow %s: %w", username, err)
	}
	return &env.Profile, nil
}

func (c *Client) Unfollow(ctx context.Context, username string) (*Profile, error) {
	var env ProfileEnvelope
	if err := c.call(ctx, http.MethodDelete, "/profiles/"+url.PathEscape(username)+"/follow", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to unfollow %s: %w", username, err)
	}
	return &env.Profile, nil
}

func (c *Client) Articles(ctx context.Context, opts ListOptions) (*ArticlesEnvelope, error) {
	return c.listArticles(ctx, "/articles", opts)
}

// Feed lists articles by followed authors
func (c *Client) Feed(ctx context.Context, opts ListOptions) (*ArticlesEnvelope, error) {
	return c.listArticles(ctx, "/articles/feed", opts)
}

func (c *Client) listArticles(ctx context.Context, path string, opts ListOptions) (*ArticlesEnvelope, error) {
	if q := opts.Values().Encode(); q != "" {
		path += "?" + q
	}
	var env ArticlesEnvelope
	if err := c.call(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return &env, nil
}

func (c *Client) Article(ctx context.Context, slug string) (*Article, error) {
	var env ArticleEnvelope
	if err := c.call(ctx, http.MethodGet, articlePath(slug), nil, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch article %s: %w", slug, err)
	}
	return &env.Article, nil
}

func (c *Client) CreateArticle(ctx context.Context, in ArticleInput) (*Article, error) {
	var env ArticleEnvelope
	if err := c.call(ctx, http.MethodPost, "/articles", map[string]ArticleInput{"article": in}, &env); err != nil {
		return nil, fmt.Errorf("failed to create article %q: %w", in.Title, err)
	}
	return &env.Article, nil
}

func (c *Client) UpdateArticle(ctx context.Context, slug string, in ArticleInput) (*Article, error) {
	var env ArticleEnvelope
	if err := c.call(ctx, http.MethodPut, articlePath(slug), map[string]ArticleInput{"article": in}, &env); err != nil {
		return nil, fmt.Errorf("failed to update article %s: %w", slug, err)
	}
	return &env.Article, nil
}

func (c *Client) DeleteArticle(ctx context.Context, slug string) error {
	if err := c.call(ctx, http.MethodDelete, articlePath(slug), nil, nil); err != nil {
		return fmt.Errorf("failed to delete article %s: %w", slug, err)
	}
	return nil
}

func (c *Client) Favorite(ctx context.Context, slug string) (*Article, error) {
	var env ArticleEnvelope
	if err := c.call(ctx, http.MethodPost, articlePath(slug)+"/favorite", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to favorite %s: %w", slug, err)
	}
	return &env.Article, nil
}

func (c *Client) Unfavorite(ctx context.Context, slug string) (*Article, error) {
	var env ArticleEnvelope
	if err := c.call(ctx, http.MethodDelete, articlePath(slug)+"/favorite", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to unfavorite %s: %w", slug, err)
	}
	return &env.Article, nil
}

func (c *Client) Comments(ctx context.Context, slug string) ([]Comment, error) {
	var env CommentsEnvelope
	if err := c.call(ctx, http.MethodGet, articlePath(slug)+"/comments", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", slug, err)
	}
	return env.Comments, nil
}

func (c *Client) AddComment(ctx context.Context, slug, body string) (*Comment, error) {
	var env CommentEnvelope
	in := map[string]CommentInput{"comment": {Body: body}}
	if err := c.call(ctx, http.MethodPost, articlePath(slug)+"/comments", in, &env); err != nil {
		return nil, fmt.Errorf("failed to comment on %s: %w", slug, err)
	}
	return &env.Comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, slug string, id int64) error {
	path := fmt.Sprintf("%s/comments/%d", articlePath(slug), id)
	if err := c.call(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete comment %d on %s: %w", id, slug, err)
	}
	return nil
}

func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var env TagsEnvelope
	if err := c.call(ctx, http.MethodGet, "/tags", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	return env.Tags, nil
}

func articlePath(slug string) string {
	return "/articles/" + url.PathEscape(slug)
}
