package harness

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/intercept"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFixturesLoad(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "tags.json", `{"tags":["go","testing"]}`)
	f := NewFixtures(dir)

	for _, name := range []string{"tags", "tags.json"} {
		data, err := f.Load(name)
		require.NoError(t, err, name)
		assert.JSONEq(t, `{"tags":["go","testing"]}`, string(data))
	}

	var tags api.TagsEnvelope
	require.NoError(t, f.LoadJSON("tags", &tags))
	assert.Equal(t, []string{"go", "testing"}, tags.Tags)

	_, err := f.Load("missing")
	assert.Error(t, err)
	_, err = f.Load("../secrets.json")
	assert.ErrorContains(t, err, "outside the fixtures directory")

	writeFixture(t, dir, "broken.json", `{`)
	assert.ErrorContains(t, f.LoadJSON("broken", &tags), "failed to parse fixture broken")
}

func TestDefaultStubsServeFixtures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "articles.json", `{"articles":[],"articlesCount":0}`)
	writeFixture(t, dir, "tags.json", `{"tags":[]}`)
	writeFixture(t, dir, "user.json", `{"user":{"username":"fixture"}}`)

	ic := intercept.NewInterceptor(NewFixtures(dir).Loader(), arbor.NewLogger())
	require.NoError(t, registerStubs(ic, DefaultStubs("https://api.example.com/api/")))
	assert.Equal(t, []string{AliasGetArticles, AliasGetCurrentUser, AliasGetTags}, ic.Aliases())

	tests := []struct {
		method string
		url    string
		alias  string
	}{
		{http.MethodGet, "https://api.example.com/api/articles?limit=10&offset=0", AliasGetArticles},
		{http.MethodGet, "https://api.example.com/api/tags", AliasGetTags},
		{http.MethodGet, "https://api.example.com/api/user", AliasGetCurrentUser},
		{http.MethodPost, "https://api.example.com/api/articles", ""},
		{http.MethodGet, "https://api.example.com/api/profiles/jake", ""},
	}
	for i, tt := range tests {
		d := ic.Observe(intercept.Request{ID: string(rune('a' + i)), Method: tt.method, URL: tt.url})
		assert.Equal(t, tt.alias, d.Alias, "%s %s", tt.method, tt.url)
		if tt.alias != "" {
			require.NotNil(t, d.Fulfilment)
			assert.Equal(t, http.StatusOK, d.Fulfilment.StatusCode)
		}
	}

	// A fixture that does not exist is rejected at registration
	missing := intercept.NewInterceptor(NewFixtures(t.TempDir()).Loader(), arbor.NewLogger())
	assert.Error(t, registerStubs(missing, DefaultStubs("https://api.example.com/api")))
}

func TestDataFactoryIsUnique(t *testing.T) {
	d := NewDataFactory(42)

	seenUsers := map[string]bool{}
	seenEmails := map[string]bool{}
	seenTitles := map[string]bool{}
	for i := 0; i < 20; i++ {
		u := d.User()
		assert.NotEmpty(t, u.Password)
		assert.Regexp(t, `^[a-z0-9]+$`, u.Username)
		assert.Contains(t, u.Email, "@example.com")
		assert.False(t, seenUsers[u.Username], "duplicate username %s", u.Username)
		assert.False(t, seenEmails[u.Email], "duplicate email %s", u.Email)
		seenUsers[u.Username] = true
		seenEmails[u.Email] = true

		a := d.Article()
		assert.NotEmpty(t, a.Description)
		assert.Contains(t, a.Body, a.Title)
		assert.LessOrEqual(t, len(a.TagList), 3)
		assert.False(t, seenTitles[a.Title], "duplicate title %s", a.Title)
		seenTitles[a.Title] = true
	}
	assert.NotEmpty(t, d.Comment())
}
