package intercept

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestInterceptor(fixtures FixtureLoader) *Interceptor {
	ic := NewInterceptor(fixtures, arbor.NewLogger())
	ic.interval = 2 * time.Millisecond
	return ic
}

func TestRouteMatches(t *testing.T) {
	tests := []struct {
		name   string
		route  Route
		method string
		url    string
		want   bool
	}{
		{"login", Route{Method: "POST", Pattern: "**/users/login"}, "POST", "http://localhost:3000/api/users/login", true},
		{"method mismatch", Route{Method: "POST", Pattern: "**/users/login"}, "GET", "http://localhost:3000/api/users/login", false},
		{"method case", Route{Method: "post", Pattern: "**/users/login"}, "POST", "https://api.test/users/login", true},
		{"register is not login", Route{Method: "POST", Pattern: "**/users"}, "POST", "http://localhost:3000/api/users/login", false},
		{"register", Route{Method: "POST", Pattern: "**/users"}, "POST", "http://localhost:3000/api/users", true},
		{"single segment", Route{Method: "PUT", Pattern: "**/articles/*"}, "PUT", "http://localhost:3000/api/articles/how-to-train", true},
		{"single segment is not deeper", Route{Method: "PUT", Pattern: "**/articles/*"}, "PUT", "http://localhost:3000/api/articles/a/favorite", false},
		{"favorite", Route{Method: "DELETE", Pattern: "**/articles/*/favorite"}, "DELETE", "http://localhost:3000/api/articles/a/favorite", true},
		{"query string ignored", Route{Method: "GET", Pattern: "**/articles"}, "GET", "http://localhost:3000/api/articles?limit=10&offset=0", true},
		{"any method", Route{Pattern: "**/tags"}, "GET", "http://localhost:3000/api/tags", true},
		{"star method", Route{Method: AnyMethod, Pattern: "**/user"}, "PUT", "http://localhost:3000/api/user", true},
		{"path pattern", Route{Pattern: "/api/tags"}, "GET", "http://localhost:3000/api/tags", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.route.Matches(tt.method, tt.url))
		})
	}
}

func TestRegisterValidates(t *testing.T) {
	ic := newTestInterceptor(nil)
	assert.Error(t, ic.Register("", Route{Pattern: "**/tags"}))
	assert.Error(t, ic.Register("tags", Route{}))
	assert.Error(t, ic.Register("tags", Route{Pattern: "**/[tags"}))
	assert.Error(t, ic.Register("tags", Route{Pattern: "**/tags", Stub: &Stub{Fixture: "tags.json"}}),
		"fixture stubs need a loader")
}

func TestWaitReturnsCompletedRequest(t *testing.T) {
	ic := newTestInterceptor(nil)
	require.NoError(t, ic.Register("loginRequest", Route{Method: "POST", Pattern: "**/users/login"}))

	d := ic.Observe(Request{ID: "1", Method: "POST", URL: "http://app/api/users/login", Body: []byte(`{"user":{"email":"a@b.c"}}`)})
	require.True(t, d.Matched)
	assert.Equal(t, "loginRequest", d.Alias)
	assert.Nil(t, d.Fulfilment)
	assert.True(t, ic.Pending("1"))

	go func() {
		time.Sleep(5 * time.Millisecond)
		ic.Complete("1", Response{StatusCode: http.StatusOK, Body: []byte(`{"user":{"token":"jwt"}}`)})
	}()

	got, err := ic.Wait(context.Background(), "loginRequest", time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.Response.StatusCode)
	assert.False(t, ic.Pending("1"))

	email, err := got.RequestQuery(context.Background(), ".user.email")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", email)

	token, err := got.ResponseQuery(context.Background(), ".user.token")
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
}

func TestWaitConsumesExpectation(t *testing.T) {
	ic := newTestInterceptor(nil)
	require.NoError(t, ic.Register("tags", Route{Method: "GET", Pattern: "**/tags"}))

	for _, id := range []string{"1", "2"} {
		ic.Observe(Request{ID: id, Method: "GET", URL: "http://app/api/tags"})
		ic.Complete(id, Response{StatusCode: 200})
	}

	_, err := ic.Wait(context.Background(), "tags", 50*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = ic.Wait(context.Background(), "tags", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAliasConsumed))
	assert.Less(t, time.Since(start), 500*time.Millisecond, "a consumed alias fails without waiting")

	require.NoError(t, ic.Register("tags", Route{Method: "GET", Pattern: "**/tags"}))
	_, err = ic.Wait(context.Background(), "tags", 20*time.Millisecond)
	assert.True(t, errors.Is(err, ErrWaitTimeout), "re-registration discards earlier captures")
}

func TestWaitUnregisteredAlias(t *testing.T) {
	ic := newTestInterceptor(nil)

	start := time.Now()
	_, err := ic.Wait(context.Background(), "nothing", 30*time.Millisecond)
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.True(t, errors.Is(err, ErrAliasNotRegistered))

	var werr *WaitError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "nothing", werr.Alias)
	assert.Contains(t, err.Error(), "@nothing")
}

func TestWaitTimeoutNamesRoute(t *testing.T) {
	ic := newTestInterceptor(nil)
	require.NoError(t, ic.Register("createRequest", Route{Method: "POST", Pattern: "**/articles"}))

	_, err := ic.Wait(context.Background(), "createRequest", 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWaitTimeout))
	assert.Contains(t, err.Error(), "POST **/articles")
}

func TestOnlyRequestsAfterRegistrationMatch(t *testing.T) {
	ic := newTestInterceptor(nil)

	d := ic.Observe(Request{ID: "early", Method: "GET", URL: "http://app/api/tags"})
	assert.False(t, d.Matched)

	require.NoError(t, ic.Register("tags", Route{Method: "GET", Pattern: "**/tags"}))
	ic.Complete("early", Response{StatusCode: 200})

	_, err := ic.Wait(context.Background(), "tags", 20*time.Millisecond)
	assert.True(t, errors.Is(err, ErrWaitTimeout))
	assert.Zero(t, ic.Count("tags"))
}

func TestMostRecentRouteWins(t *testing.T) {
	ic := newTestInterceptor(nil)
	require.NoError(t, ic.Register("anyArticles", Route{Pattern: "**/articles/**"}))
	require.NoError(t, ic.Register("favorite", Route{Method: "POST", Pattern: "**/articles/*/favorite"}))

	d := ic.Observe(Request{ID: "1", Method: "POST", URL: "http://app/api/articles/x/favorite"})
	assert.Equal(t, "favorite", d.Alias)

	d = ic.Observe(Request{ID: "2", Method: "GET", URL: "http://app/api/articles/x/comments"})
	assert.Equal(t, "anyArticles", d.Alias)

	assert.Equal(t, []string{"anyArticles", "favorite"}, ic.Aliases())
}

func TestStubResolution(t *testing.T) {
	fixtures := func(name string) ([]byte, error) {
		if name == "tags.json" {
			return []byte(`{"tags":["dragons","training"]}`), nil
		}
		return nil, fmt.Errorf("no fixture %s", name)
	}
	ic := newTestInterceptor(fixtures)

	require.NoError(t, ic.Register("getTags", Route{Method: "GET", Pattern: "**/tags", Stub: &Stub{Fixture: "tags.json"}}))
	require.NoError(t, ic.Register("serverError", Route{Method: "POST", Pattern: "**/articles", Stub: &Stub{
		StatusCode: 500,
		Body:       map[string]interface{}{"errors": map[string][]string{"body": {"server error"}}},
		Delay:      10 * time.Millisecond,
	}}))
	require.NoError(t, ic.Register("offline", Route{Method: "GET", Pattern: "**/user", Stub: &Stub{ForceNetworkError: true}}))
	assert.Error(t, ic.Register("missing", Route{Pattern: "**/x", Stub: &Stub{Fixture: "missing.json"}}))

	d := ic.Observe(Request{ID: "1", Method: "GET", URL: "http://app/api/tags"})
	require.NotNil(t, d.Fulfilment)
	assert.Equal(t, 200, d.Fulfilment.StatusCode)
	assert.JSONEq(t, `{"tags":["dragons","training"]}`, string(d.Fulfilment.Body))
	assert.Equal(t, "application/json; charset=utf-8", d.Fulfilment.Headers["Content-Type"])

	d = ic.Observe(Request{ID: "2", Method: "POST", URL: "http://app/api/articles"})
	require.NotNil(t, d.Fulfilment)
	assert.Equal(t, 500, d.Fulfilment.StatusCode)
	assert.Equal(t, 10*time.Millisecond, d.Fulfilment.Delay)
	assert.JSONEq(t, `{"errors":{"body":["server error"]}}`, string(d.Fulfilment.Body))

	d = ic.Observe(Request{ID: "3", Method: "GET", URL: "http://app/api/user"})
	require.NotNil(t, d.Fulfilment)
	assert.True(t, d.Fulfilment.NetworkError)
}

func TestWaitRespectsContext(t *testing.T) {
	ic := newTestInterceptor(nil)
	require.NoError(t, ic.Register("tags", Route{Pattern: "**/tags"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ic.Wait(ctx, "tags", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReset(t *testing.T) {
	ic := newTestInterceptor(nil)
	require.NoError(t, ic.Register("tags", Route{Pattern: "**/tags"}))
	ic.Observe(Request{ID: "1", Method: "GET", URL: "http://app/api/tags"})
	ic.Reset()

	assert.Empty(t, ic.Aliases())
	assert.False(t, ic.Pending("1"))
}
