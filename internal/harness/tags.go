package harness

import (
	"strings"
	"testing"
)

// Suite tags
const (
	TagSmoke       = "@smoke"
	TagAuth        = "@auth"
	TagArticles    = "@articles"
	TagComments    = "@comments"
	TagProfiles    = "@profiles"
	TagAPI         = "@api"
	TagUI          = "@ui"
	TagResponsive  = "@responsive"
	TagSecurity    = "@security"
	TagSlow        = "@slow"
	TagTags        = "@tags"
	TagError       = "@error"
	TagPerformance = "@performance"
	TagCRUD        = "@crud"
	TagValidation  = "@validation"
	TagNavigation  = "@navigation"
)

// Selected reports whether a test carrying tags runs under the grep
// expression. Entries prefixed with "-" exclude, the rest include. With no
// include entries every test not excluded runs.
func Selected(grep []string, tags []string) bool {
	has := make(map[string]bool, len(tags))
	for _, tag := range tags {
		has[normalizeTag(tag)] = true
	}

	var includes int
	matched := false
	for _, entry := range grep {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, "-") {
			if has[normalizeTag(entry[1:])] {
				return false
			}
			continue
		}
		includes++
		if has[normalizeTag(entry)] {
			matched = true
		}
	}
	return includes == 0 || matched
}

func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag != "" && !strings.HasPrefix(tag, "@") {
		tag = "@" + tag
	}
	return tag
}

// Tags skips t unless its tags are selected by the configured grep
func Tags(t testing.TB, tags ...string) {
	t.Helper()
	cfg, _, err := LoadConfig()
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !Selected(cfg.Grep.Tags, tags) {
		t.Skipf("not selected by grep %v (tags %v)", cfg.Grep.Tags, tags)
	}
}
