package export

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestGenerateRSS_Structure(t *testing.T) {
	links := []models.LinkRecord{
		{
			ID:         1,
			URL:        "http://a.test/old",
			PageTitle:  "Old Post",
			Summary:    "A summary of the old post.",
			SourceDate: day("2025-01-01"),
			Tags:       []models.LinkTag{{Name: "go"}, {Name: "database"}},
		},
		{
			ID:          2,
			URL:         "http://b.test/new",
			Title:       "New Post",
			Description: "my note",
			SourceDate:  day("2025-02-01"),
		},
	}

	out, err := GenerateRSS(links, FeedOptions{
		Title:       "Raido Links",
		Description: "Links from daily notes",
		SiteURL:     "http://raido.test",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out, "<?xml") {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(out, `<rss version="2.0">`) {
		t.Error("missing rss root element")
	}
	for _, want := range []string{
		"<title>Raido Links</title>",
		"<link>http://raido.test</link>",
		"<title>Old Post</title>",
		"<description>A summary of the old post.</description>",
		"<category>go</category>",
		"<category>database</category>",
		`<guid isPermaLink="true">http://a.test/old</guid>`,
		// No summary: falls back to the user's note.
		"<description>my note</description>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	// Newest source date first.
	if strings.Index(out, "http://b.test/new") > strings.Index(out, "http://a.test/old") {
		t.Error("items not sorted newest first")
	}
}

func TestGenerateRSS_TitleFallbackAndUnescape(t *testing.T) {
	links := []models.LinkRecord{
		{ID: 1, URL: "http://a.test/1", PageTitle: "Ben &amp; Jerry", SourceDate: day("2025-01-01")},
		{ID: 2, URL: "http://a.test/2", SourceDate: day("2025-01-01")},
	}

	out, err := GenerateRSS(links, FeedOptions{Title: "t", SiteURL: "u"})
	if err != nil {
		t.Fatal(err)
	}
	// Stored entities are decoded once; the encoder re-escapes for XML.
	if !strings.Contains(out, "<title>Ben &amp; Jerry</title>") {
		t.Errorf("entity handling wrong in %q", out)
	}
	if !strings.Contains(out, "<title>http://a.test/2</title>") {
		t.Error("missing URL fallback title")
	}
}

func TestGenerateRSS_LimitAndPubDate(t *testing.T) {
	links := []models.LinkRecord{
		{ID: 1, URL: "http://a.test/1", SourceDate: day("2025-01-01")},
		{ID: 2, URL: "http://a.test/2", SourceDate: day("2025-01-02")},
		{ID: 3, URL: "http://a.test/3", SourceDate: day("2025-01-03")},
	}

	out, err := GenerateRSS(links, FeedOptions{Title: "t", SiteURL: "u", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "http://a.test/1") {
		t.Error("oldest item should be dropped by limit")
	}
	// Date-only source dates publish at noon.
	if !strings.Contains(out, "03 Jan 2025 12:00:00") {
		t.Errorf("pubDate not at noon: %q", out)
	}
}
