package sources

import (
	"strings"
	"testing"
)

func TestHTMLPreview(t *testing.T) {
	t.Run("strips markup and collapses whitespace", func(t *testing.T) {
		html := `<div><h1>The Grid</h1>
			<script>track();</script>
			<style>p { color: red }</style>
			<p>Why   utilities
			keep failing.</p></div>`
		got := htmlPreview(html, 300)
		want := "The Grid Why utilities keep failing."
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("truncates long bodies", func(t *testing.T) {
		html := "<p>" + strings.Repeat("word ", 100) + "</p>"
		got := htmlPreview(html, 20)
		if !strings.HasSuffix(got, "...") {
			t.Errorf("expected ellipsis suffix, got %q", got)
		}
		if len([]rune(got)) > 23 {
			t.Errorf("preview too long: %d runes", len([]rune(got)))
		}
	})

	t.Run("invalid markup degrades to empty", func(t *testing.T) {
		if got := htmlPreview("", 100); got != "" {
			t.Errorf("got %q", got)
		}
	})
}
