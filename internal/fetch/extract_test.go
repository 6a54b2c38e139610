package fetch

import (
	"strings"
	"testing"
)

const filler = "This is a long enough paragraph of readable article text to clear the minimum content threshold used by the extractor."

func TestExtractReadable_PrefersArticle(t *testing.T) {
	markup := `<html><body>
		<nav>Home About Contact</nav>
		<article><p>` + filler + `</p></article>
		<footer>copyright</footer>
	</body></html>`

	got := ExtractReadable(markup, 10_000)
	if got != filler {
		t.Errorf("got %q, want %q", got, filler)
	}
}

func TestExtractReadable_ShortArticleLosesToBody(t *testing.T) {
	markup := `<html><body>
		<article>stub</article>
		<p>` + filler + `</p>
	</body></html>`

	got := ExtractReadable(markup, 10_000)
	if !strings.Contains(got, "readable article text") {
		t.Errorf("fallback not used, got %q", got)
	}
	if strings.HasPrefix(got, "stub") && len(got) < minContentLength {
		t.Errorf("short article candidate won: %q", got)
	}
}

func TestExtractReadable_ContentClassCandidate(t *testing.T) {
	markup := `<html><body>
		<div class="sidebar">nav nav nav</div>
		<div class="Post-Body"><p>` + filler + `</p></div>
	</body></html>`

	got := ExtractReadable(markup, 10_000)
	if got != filler {
		t.Errorf("got %q, want %q", got, filler)
	}
}

func TestExtractReadable_RemovesScriptsAndStyles(t *testing.T) {
	markup := `<html><body><main>
		<script>var x = "SCRIPTTEXT";</script>
		<style>.a { color: red }</style>
		<p>` + filler + `</p>
	</main></body></html>`

	got := ExtractReadable(markup, 10_000)
	if strings.Contains(got, "SCRIPTTEXT") || strings.Contains(got, "color") {
		t.Errorf("non-content element leaked into %q", got)
	}
}

func TestExtractReadable_WhitespaceCollapsed(t *testing.T) {
	markup := "<html><body><main><p>" + filler + "</p>\n\n\t  <p>second   paragraph</p></main></body></html>"
	got := ExtractReadable(markup, 10_000)
	if strings.Contains(got, "  ") || strings.Contains(got, "\n") {
		t.Errorf("whitespace not collapsed: %q", got)
	}
	if !strings.HasSuffix(got, "second paragraph") {
		t.Errorf("got %q", got)
	}
}

func TestExtractReadable_NothingClearsThreshold(t *testing.T) {
	if got := ExtractReadable("<html><body><p>tiny</p></body></html>", 10_000); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestExtractReadable_Truncates(t *testing.T) {
	markup := "<html><body><main><p>" + strings.Repeat("abcd ", 100) + "</p></main></body></html>"
	got := ExtractReadable(markup, 60)
	if len(got) != 60 {
		t.Errorf("len = %d, want 60", len(got))
	}
}
