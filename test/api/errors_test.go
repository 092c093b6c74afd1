package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conduit "github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/harness"
)

func TestErrorStatuses(t *testing.T) {
	harness.Tags(t, harness.TagAPI, harness.TagError)
	ac := harness.NewAPIContext(t)

	tests := []struct {
		name       string
		client     *conduit.Client
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantErrors bool
	}{
		{
			name:       "invalid token is unauthorized",
			client:     ac.Client.WithAuthorization("invalid-token"),
			method:     http.MethodGet,
			path:       "/user",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown article is not found",
			client:     ac.Client,
			method:     http.MethodGet,
			path:       "/articles/non-existent-slug",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "blank login is a validation error",
			client:     ac.Client,
			method:     http.MethodPost,
			path:       "/users/login",
			body:       map[string]conduit.LoginInput{"user": {Email: "", Password: ""}},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: true,
		},
		{
			name:       "blank registration is a validation error",
			client:     ac.Client,
			method:     http.MethodPost,
			path:       "/users",
			body:       map[string]conduit.RegisterInput{"user": {}},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.client.Do(ac.Ctx, tt.method, tt.path, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantErrors {
				assert.NotEmpty(t, resp.Errors(), "body must carry an errors map")
			}
			ac.Log("%s %s -> %d", tt.method, tt.path, resp.StatusCode)
		})
	}
}
