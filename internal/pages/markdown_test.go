package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("# Heading\n\n**bold** and *em*\n\n- item")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Heading</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<em>em</em>")
	assert.Contains(t, html, "<li>item</li>")
}

func TestMarkdownText(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"plain", "hello world", "hello world"},
		{"emphasis", "some **bold** text", "some bold text"},
		{"heading and paragraph", "# Title\n\nBody text", "Title Body text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkdownText(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountElements(t *testing.T) {
	n, err := countElements("<h1>a</h1><p><strong>b</strong></p>", markdownElements)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = countElements("<p>plain</p>", markdownElements)
	require.NoError(t, err)
	assert.Zero(t, n)
}
