package enrich

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/raido/internal/models"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testRecord() models.LinkRecord {
	return models.LinkRecord{
		ID:          1,
		URL:         "http://a.test/post",
		Domain:      "a.test",
		Title:       "A post about Go",
		Description: "worth reading",
		Summary:     "An essay on Go concurrency.",
	}
}

func TestTag_ParsesValidReply(t *testing.T) {
	fc := &fakeCompleter{reply: `{"tags": [
		{"name": "go", "category": "programming_language", "confidence": 0.95},
		{"name": "distributed-systems", "category": "technical_topic", "confidence": 0.6}
	]}`}
	tagger := &LLMTagger{client: fc, logger: discardLogger()}

	tags, err := tagger.Tag(context.Background(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(tags))
	}
	if tags[0].Tag.Name != "go" || tags[0].Tag.Category != models.CategoryProgrammingLanguage {
		t.Errorf("first tag = %+v", tags[0])
	}
	if tags[0].Confidence != 0.95 {
		t.Errorf("confidence = %v", tags[0].Confidence)
	}
}

func TestTag_StripsCodeFence(t *testing.T) {
	fc := &fakeCompleter{reply: "```json\n{\"tags\": [{\"name\": \"rust\", \"category\": \"programming_language\", \"confidence\": 0.8}]}\n```"}
	tagger := &LLMTagger{client: fc, logger: discardLogger()}

	tags, err := tagger.Tag(context.Background(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Tag.Name != "rust" {
		t.Fatalf("tags = %+v", tags)
	}
}

func TestTag_DiscardsOutOfVocabulary(t *testing.T) {
	fc := &fakeCompleter{reply: `{"tags": [
		{"name": "blockchain", "category": "technical_topic", "confidence": 0.9},
		{"name": "go", "category": "made_up_category", "confidence": 0.9},
		{"name": "go", "category": "programming_language", "confidence": 0.9}
	]}`}
	tagger := &LLMTagger{client: fc, logger: discardLogger()}

	tags, err := tagger.Tag(context.Background(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Tag.Name != "go" {
		t.Fatalf("tags = %+v, want only the in-vocabulary entry", tags)
	}
}

func TestTag_ClampsConfidence(t *testing.T) {
	fc := &fakeCompleter{reply: `{"tags": [
		{"name": "go", "category": "programming_language", "confidence": 1.7},
		{"name": "ai", "category": "technical_topic", "confidence": -0.2}
	]}`}
	tagger := &LLMTagger{client: fc, logger: discardLogger()}

	tags, err := tagger.Tag(context.Background(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(tags))
	}
	if tags[0].Confidence != 1.0 {
		t.Errorf("high confidence = %v, want clamped 1.0", tags[0].Confidence)
	}
	if tags[1].Confidence != 0 {
		t.Errorf("low confidence = %v, want clamped 0", tags[1].Confidence)
	}
}

func TestTag_MalformedReplyYieldsEmptyList(t *testing.T) {
	fc := &fakeCompleter{reply: "I think this link is about Go programming."}
	tagger := &LLMTagger{client: fc, logger: discardLogger()}

	tags, err := tagger.Tag(context.Background(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 0 {
		t.Errorf("tags = %+v, want none", tags)
	}
}

func TestTag_NormalizesCase(t *testing.T) {
	fc := &fakeCompleter{reply: `{"tags": [{"name": " Go ", "category": "Programming_Language", "confidence": 0.9}]}`}
	tagger := &LLMTagger{client: fc, logger: discardLogger()}

	tags, err := tagger.Tag(context.Background(), testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Tag.Name != "go" {
		t.Fatalf("tags = %+v", tags)
	}
}

func TestTag_PromptContainsLinkAndVocabulary(t *testing.T) {
	fc := &fakeCompleter{reply: `{"tags": []}`}
	tagger := &LLMTagger{client: fc, logger: discardLogger()}

	if _, err := tagger.Tag(context.Background(), testRecord()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"http://a.test/post", "a.test", "worth reading", "distributed-systems", "nonfiction-book"} {
		if !strings.Contains(fc.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestValidTag(t *testing.T) {
	if !ValidTag(models.CategoryCulture, "podcast") {
		t.Error("podcast should be valid in culture")
	}
	if ValidTag(models.CategoryCulture, "go") {
		t.Error("go should not be valid in culture")
	}
}
