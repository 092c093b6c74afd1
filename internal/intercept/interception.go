package intercept

import (
	"context"
	"time"

	"github.com/ternarybob/conduit-e2e/internal/payload"
)

// Request is a captured outgoing request
type Request struct {
	ID      string
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the captured or stubbed reply
type Response struct {
	StatusCode   int
	Headers      map[string]string
	Body         []byte
	Stubbed      bool
	NetworkError bool
}

// Interception is one aliased call that has completed
type Interception struct {
	Alias    string
	Request  Request
	Response Response
	Started  time.Time
	Duration time.Duration
}

// RequestQuery evaluates a jq expression against the request body
func (i *Interception) RequestQuery(ctx context.Context, expression string) (interface{}, error) {
	return payload.Query(ctx, expression, i.Request.Body)
}

// ResponseQuery evaluates a jq expression against the response body
func (i *Interception) ResponseQuery(ctx context.Context, expression string) (interface{}, error) {
	return payload.Query(ctx, expression, i.Response.Body)
}

// DecodeRequest unmarshals the request body into target
func (i *Interception) DecodeRequest(target interface{}) error {
	return payload.Decode(i.Request.Body, target)
}

// DecodeResponse unmarshals the response body into target
func (i *Interception) DecodeResponse(target interface{}) error {
	return payload.Decode(i.Response.Body, target)
}
