package fetch

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// minContentLength is the smallest normalized text a candidate container may
// produce and still win. Shorter candidates (a near-empty <article> wrapper)
// lose to a richer fallback.
const minContentLength = 50

var contentClassRe = regexp.MustCompile(`(?i)content|article|post`)

// ExtractReadable strips non-content elements from markup and returns the
// best-guess main readable text, truncated to maxLen characters. An empty
// string means no candidate produced enough text.
func ExtractReadable(markup string, maxLen int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, header, footer, aside, form, noscript").Remove()

	var candidates []*goquery.Selection
	if s := doc.Find("article").First(); s.Length() > 0 {
		candidates = append(candidates, s)
	}
	if s := doc.Find("main").First(); s.Length() > 0 {
		candidates = append(candidates, s)
	}
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		if class, ok := s.Attr("class"); ok && contentClassRe.MatchString(class) {
			candidates = append(candidates, s)
		}
	})
	if s := doc.Find("body"); s.Length() > 0 {
		candidates = append(candidates, s)
	}

	for _, c := range candidates {
		text := normalizedText(c)
		if len(text) >= minContentLength {
			return truncate(text, maxLen)
		}
	}
	return ""
}

// normalizedText joins the selection's text nodes with single spaces and
// collapses runs of whitespace.
func normalizedText(sel *goquery.Selection) string {
	var parts []string
	for _, node := range sel.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
