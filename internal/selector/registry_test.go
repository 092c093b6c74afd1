package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestIDQuery(t *testing.T) {
	assert.Equal(t, `[data-cy="email-input"]`, TestIDQuery("email-input"))
	assert.Equal(t, `[data-cy^="tag-"]`, TestIDPrefixQuery("tag-"))

	s := TestID("login-button")
	assert.Equal(t, "login-button", s.Name)
	assert.Equal(t, `[data-cy="login-button"]`, s.Query)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(TestID("email-input"), TestID("email-input"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSelector))

	_, err = NewRegistry(Selector{Query: ".nameless"})
	require.Error(t, err)
}

func TestMustRegistryPanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		MustRegistry(TestID("a"), TestID("a"))
	})
}

func TestRegistryLocate(t *testing.T) {
	r := MustRegistry(TestIDs("email-input", "password-input")...)
	assert.Equal(t, 2, r.Len())

	loc := r.Locate("email-input")
	assert.Equal(t, "email-input", loc.Name)
	assert.Equal(t, `[data-cy="email-input"]`, loc.Query)
	_, hasIndex := loc.Index()
	assert.False(t, hasIndex)

	missing := r.Locate("does-not-exist")
	assert.Equal(t, "does-not-exist", missing.Name)
	assert.Equal(t, unmatchable, missing.Query)
}

func TestLocatorChaining(t *testing.T) {
	r := MustRegistry(TestIDs("comment-list", "comment-item", "delete-comment-button")...)

	item := r.Locate("comment-item").HasText("first!").Within(r.Locate("comment-list"))
	button := r.Locate("delete-comment-button").Within(item).Nth(0)

	assert.Equal(t, `comment-list > comment-item containing "first!" > delete-comment-button[0]`, button.String())

	spec := button.Spec()
	assert.Equal(t, `[data-cy="delete-comment-button"]`, spec.Query)
	assert.Equal(t, 0, spec.Index)
	require.NotNil(t, spec.Scope)
	assert.Equal(t, "first!", spec.Scope.Text)
	assert.Equal(t, -1, spec.Scope.Index)
	require.NotNil(t, spec.Scope.Scope)
	assert.Equal(t, `[data-cy="comment-list"]`, spec.Scope.Scope.Query)

	scope, ok := button.Scope()
	require.True(t, ok)
	assert.Equal(t, "first!", scope.Text())
}

func TestLocatorValueSemantics(t *testing.T) {
	base := TestID("article-preview").Locate()
	second := base.Nth(1)

	_, baseHasIndex := base.Index()
	idx, ok := second.Index()
	assert.False(t, baseHasIndex, "Nth must not mutate the original locator")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Locator: TestID("favorite-button").Locate()}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "favorite-button")
	assert.Contains(t, err.Error(), `[data-cy="favorite-button"]`)
}
