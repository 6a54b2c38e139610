package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/raido/internal/models"
)

// Tagger assigns vocabulary tags with confidence scores to a link.
type Tagger interface {
	Tag(ctx context.Context, link models.LinkRecord) ([]models.TagScore, error)
}

// LLMTagger tags links via a chat completion endpoint, constrained to
// the closed vocabulary.
type LLMTagger struct {
	client completer
	logger *slog.Logger
}

// NewTagger creates a tagger backed by the given client.
func NewTagger(client *Client, logger *slog.Logger) *LLMTagger {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMTagger{client: client, logger: logger}
}

// Tag generates 1-5 tags for a link. Model replies that fail to parse
// yield an empty list rather than an error, so one bad reply never
// stalls the pipeline.
func (t *LLMTagger) Tag(ctx context.Context, link models.LinkRecord) ([]models.TagScore, error) {
	reply, err := t.client.Complete(ctx, t.buildPrompt(link))
	if err != nil {
		return nil, err
	}
	return t.parseReply(reply, link.URL), nil
}

func (t *LLMTagger) buildPrompt(link models.LinkRecord) string {
	title := link.Title
	if title == "" {
		title = link.PageTitle
	}
	if title == "" {
		title = "Unknown"
	}
	description := link.Description
	if description == "" {
		description = "None"
	}
	summary := link.Summary
	if summary == "" {
		summary = "None"
	}

	return fmt.Sprintf(`Analyze this web link and assign appropriate tags from the available categories.

AVAILABLE TAGS:%s

LINK INFORMATION:
- Title: %s
- URL: %s
- Domain: %s
- User's description: %s
- Summary: %s

INSTRUCTIONS:
1. Select 1-5 tags that best describe this content
2. Only use tags from the AVAILABLE TAGS list above
3. Assign a confidence score (0.0-1.0) for each tag
4. Higher confidence for explicit mentions, lower for inferred topics
5. Return ONLY valid JSON, no other text

Return your response as JSON in this exact format:
{"tags": [{"name": "tag-name", "category": "category_name", "confidence": 0.9}]}

JSON response:`, tagList(), title, link.URL, link.Domain, description, summary)
}

type taggerReply struct {
	Tags []struct {
		Name       string  `json:"name"`
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	} `json:"tags"`
}

func (t *LLMTagger) parseReply(reply, url string) []models.TagScore {
	reply = stripCodeFence(reply)

	var parsed taggerReply
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		t.logger.Error("tagger reply is not valid JSON", "url", url, "error", err)
		return nil
	}

	var out []models.TagScore
	for _, raw := range parsed.Tags {
		name := strings.ToLower(strings.TrimSpace(raw.Name))
		category := models.TagCategory(strings.ToLower(strings.TrimSpace(raw.Category)))

		if !category.Valid() {
			t.logger.Warn("tagger returned unknown category", "url", url, "category", string(category))
			continue
		}
		if !ValidTag(category, name) {
			t.logger.Warn("tagger returned unknown tag", "url", url, "tag", name, "category", string(category))
			continue
		}

		confidence := raw.Confidence
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence < 0 {
			confidence = 0
		}

		out = append(out, models.TagScore{
			Tag:        models.Tag{Name: name, Category: category},
			Confidence: confidence,
		})
	}
	return out
}

// stripCodeFence removes a surrounding markdown code block, with or
// without a language marker.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
