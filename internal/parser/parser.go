// Package parser extracts links from the "## Links" section of daily notes.
//
// The section is a nested Markdown bullet list. Indentation encodes the tree:
// a link nested under another inherits the ancestor's URL as its parent.
package parser

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	bareURLRe      = regexp.MustCompile(`https?://[^\s\)]+`)
	sectionRe      = regexp.MustCompile(`(?m)^## Links\s*$`)
	nextSectionRe  = regexp.MustCompile(`(?m)^## `)
	listItemRe     = regexp.MustCompile(`^(\s*)-\s+(.+)$`)
)

// ParseFile extracts all links from one note's content. sourcePath is
// recorded as provenance and its filename stem supplies the source date.
func ParseFile(sourcePath string, content []byte) []models.ExtractedLink {
	sourceDate := dateFromPath(sourcePath)

	section, ok := linksSection(string(content))
	if !ok {
		return nil
	}
	return parseSection(section, sourceDate, sourcePath)
}

// linksSection returns the text between the "## Links" heading and the next
// top-level heading (or end of input). A missing heading is not an error.
func linksSection(content string) (string, bool) {
	loc := sectionRe.FindStringIndex(content)
	if loc == nil {
		return "", false
	}
	rest := content[loc[1]:]
	if next := nextSectionRe.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return strings.TrimSpace(rest), true
}

type ancestor struct {
	indent int
	url    string
}

func parseSection(section string, sourceDate time.Time, sourceFile string) []models.ExtractedLink {
	var links []models.ExtractedLink
	var stack []ancestor

	for _, line := range strings.Split(section, "\n") {
		m := listItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		indent := indentLevel(m[1])
		item := strings.TrimSpace(m[2])

		// Close every ancestor at or below this indentation.
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		parentURL := ""
		if len(stack) > 0 {
			parentURL = stack[len(stack)-1].url
		}

		link, ok := parseItem(item, sourceDate, sourceFile, indent, parentURL)
		if !ok {
			// No URL on this line: skipped, and it opens no subtree.
			continue
		}

		links = append(links, link)
		stack = append(stack, ancestor{indent: indent, url: link.URL})
	}
	return links
}

// indentLevel counts tabs as one level each and spaces in units of four.
func indentLevel(ws string) int {
	tabs := strings.Count(ws, "\t")
	spaces := len(strings.ReplaceAll(ws, "\t", ""))
	return tabs + spaces/4
}

// parseItem matches one list item against the inline-link form first, then
// the bare-URL form.
func parseItem(item string, sourceDate time.Time, sourceFile string, indent int, parentURL string) (models.ExtractedLink, bool) {
	if m := markdownLinkRe.FindStringSubmatch(item); m != nil {
		// Whatever surrounds the [title](url) becomes the description.
		desc := strings.Trim(markdownLinkRe.ReplaceAllString(item, ""), " -")
		return models.ExtractedLink{
			URL:         m[2],
			Title:       m[1],
			Description: desc,
			SourceDate:  sourceDate,
			SourceFile:  sourceFile,
			IndentLevel: indent,
			ParentURL:   parentURL,
		}, true
	}

	if loc := bareURLRe.FindStringIndex(item); loc != nil {
		desc := strings.Trim(item[:loc[0]], " -")
		return models.ExtractedLink{
			URL:         item[loc[0]:loc[1]],
			Description: desc,
			SourceDate:  sourceDate,
			SourceFile:  sourceFile,
			IndentLevel: indent,
			ParentURL:   parentURL,
		}, true
	}

	return models.ExtractedLink{}, false
}

// dateFromPath parses the date from a path like ".../2025/03/2025-03-15.md".
// Scanner guarantees the pattern, but a zero time is returned for anything else.
func dateFromPath(p string) time.Time {
	stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	d, err := time.Parse("2006-01-02", stem)
	if err != nil {
		return time.Time{}
	}
	return d
}
