package enrich

import (
	"context"
	"fmt"
)

// maxPromptContent caps the page text included in the summarize prompt.
const maxPromptContent = 8000

// SummaryInput carries the material available for summarizing one link.
type SummaryInput struct {
	Content     string
	Title       string
	Description string
	URL         string
}

// Summarizer produces a short summary of a fetched page.
type Summarizer interface {
	Summarize(ctx context.Context, in SummaryInput) (string, error)
	ModelName() string
}

// completer is the slice of Client the summarizer and tagger need.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMSummarizer summarizes page content via a chat completion endpoint.
type LLMSummarizer struct {
	client completer
	model  string
}

// NewSummarizer creates a summarizer backed by the given client.
func NewSummarizer(client *Client) *LLMSummarizer {
	return &LLMSummarizer{client: client, model: client.Model()}
}

// ModelName returns the model identifier recorded alongside summaries.
func (s *LLMSummarizer) ModelName() string { return s.model }

// Summarize generates a 2-3 sentence summary of the link content.
func (s *LLMSummarizer) Summarize(ctx context.Context, in SummaryInput) (string, error) {
	content := in.Content
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent] + "..."
	}

	title := in.Title
	if title == "" {
		title = "Unknown"
	}
	url := in.URL
	if url == "" {
		url = "Unknown"
	}
	note := in.Description
	if note == "" {
		note = "None provided"
	}

	prompt := fmt.Sprintf(`Summarize this web page in 2-3 sentences. Focus on the main topic and key takeaways.

Title: %s
URL: %s
User's note: %s

Content:
%s

Summary:`, title, url, note, content)

	return s.client.Complete(ctx, prompt)
}
