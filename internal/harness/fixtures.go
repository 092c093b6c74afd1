package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/ternarybob/conduit-e2e/internal/api"
	"github.com/ternarybob/conduit-e2e/internal/intercept"
)

// Fixtures reads canned JSON payloads from a directory
type Fixtures struct {
	Dir string
}

// NewFixtures creates a fixture reader rooted at dir
func NewFixtures(dir string) *Fixtures {
	return &Fixtures{Dir: dir}
}

// path resolves a fixture name, with or without its .json extension, and
// refuses names that leave the fixture directory
func (f *Fixtures) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("fixture %q is outside the fixtures directory", name)
	}
	if filepath.Ext(clean) == "" {
		clean += ".json"
	}
	return filepath.Join(f.Dir, clean), nil
}

// Load returns the raw bytes of a fixture
func (f *Fixtures) Load(name string) ([]byte, error) {
	path, err := f.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	return data, nil
}

// LoadJSON decodes a fixture into target
func (f *Fixtures) LoadJSON(name string, target interface{}) error {
	data, err := f.Load(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse fixture %s: %w", name, err)
	}
	return nil
}

// Loader adapts the reader for stubbed network responses
func (f *Fixtures) Loader() intercept.FixtureLoader {
	return f.Load
}

// DataFactory generates unique users and articles so tests never collide on
// usernames, emails or slugs
type DataFactory struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewDataFactory creates a factory. A zero seed picks a random one.
func NewDataFactory(seed uint64) *DataFactory {
	return &DataFactory{faker: gofakeit.New(seed)}
}

// suffix is a short random token guaranteeing uniqueness across runs
func suffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// User returns registration details for a new user
func (d *DataFactory) User() api.RegisterInput {
	d.mu.Lock()
	defer d.mu.Unlock()

	tag := suffix()
	name := strings.ToLower(d.faker.Username())
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, name)
	if name == "" {
		name = "user"
	}
	return api.RegisterInput{
		Username: fmt.Sprintf("%s%s", name, tag),
		Email:    fmt.Sprintf("%s.%s@example.com", name, tag),
		Password: "pw-" + uuid.NewString(),
	}
}

// Article returns article content with a unique title and between one and
// three tags
func (d *DataFactory) Article() api.ArticleInput {
	d.mu.Lock()
	defer d.mu.Unlock()

	f := d.faker
	title := fmt.Sprintf("The %s %s %s", f.Adjective(), f.Noun(), suffix())

	paragraphs := make([]string, 2+f.IntN(2))
	for i := range paragraphs {
		paragraphs[i] = f.Sentence(8 + f.IntN(8))
	}

	tags := make([]string, 0, 3)
	seen := map[string]bool{}
	for range 1 + f.IntN(3) {
		tag := strings.ToLower(f.Noun())
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	return api.ArticleInput{
		Title:       title,
		Description: f.Sentence(6),
		Body:        "# " + title + "\n\n" + strings.Join(paragraphs, "\n\n"),
		TagList:     tags,
	}
}

// Comment returns a one-sentence comment body
func (d *DataFactory) Comment() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.faker.Sentence(6 + d.faker.IntN(6))
}
