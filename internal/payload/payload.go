// Package payload inspects captured JSON request and response bodies with jq
// expressions.
package payload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
)

// ErrEmptyBody is returned when a query runs against a body with no content
var ErrEmptyBody = errors.New("empty body")

// Compile parses and compiles a jq expression
func Compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return code, nil
}

// Query evaluates expression against a JSON document. A single result is
// returned as is, several results as a slice and no result as nil.
func Query(ctx context.Context, expression string, body []byte) (interface{}, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("body is not JSON: %w", err)
	}

	return Eval(ctx, expression, data)
}

// Eval evaluates expression against already decoded data
func Eval(ctx context.Context, expression string, data interface{}) (interface{}, error) {
	code, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, data)

	var results []interface{}
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query %q: %w", expression, err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// String evaluates expression and requires a string result
func String(ctx context.Context, expression string, body []byte) (string, error) {
	v, err := Query(ctx, expression, body)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("query %q returned %T, not a string", expression, v)
	}
	return s, nil
}

// Decode unmarshals a JSON body into target
func Decode(body []byte, target interface{}) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}
