// Package enrich generates summaries and tags for fetched links using an
// OpenAI-compatible chat completion endpoint.
package enrich

import (
	"sort"
	"strings"

	"github.com/starford/raido/internal/models"
)

// vocabulary is the closed tag set, organized by category. The tagger
// discards anything outside this list.
var vocabulary = map[models.TagCategory][]string{
	models.CategoryProgrammingLanguage: {
		"python", "rust", "typescript", "javascript", "lisp", "common-lisp",
		"clojure", "scheme", "haskell", "go", "c", "cpp", "nix", "sql",
		"swift", "java", "ruby", "elixir", "zig",
	},
	models.CategoryTechnicalTopic: {
		"ai", "llm", "compilers", "github-repo", "database", "devops",
		"web-dev", "academic-paper", "tutorial", "cli-tool",
		"distributed-systems", "security", "emulator",
	},
	models.CategoryCulture: {
		"tv", "movie", "fiction-book", "nonfiction-book", "music", "news",
		"politics", "podcast", "video", "gaming", "social-media",
	},
}

// ValidTag reports whether name belongs to category in the vocabulary.
func ValidTag(category models.TagCategory, name string) bool {
	for _, t := range vocabulary[category] {
		if t == name {
			return true
		}
	}
	return false
}

// Vocabulary returns a copy of the tag vocabulary keyed by category.
func Vocabulary() map[models.TagCategory][]string {
	out := make(map[models.TagCategory][]string, len(vocabulary))
	for cat, tags := range vocabulary {
		out[cat] = append([]string(nil), tags...)
	}
	return out
}

// tagList renders the vocabulary as a prompt block, categories in a
// stable order.
func tagList() string {
	cats := make([]models.TagCategory, 0, len(vocabulary))
	for cat := range vocabulary {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	var sb strings.Builder
	for _, cat := range cats {
		sb.WriteString("\n")
		sb.WriteString(string(cat))
		sb.WriteString(":")
		for _, tag := range vocabulary[cat] {
			sb.WriteString("\n  - ")
			sb.WriteString(tag)
		}
	}
	return sb.String()
}
