// Package pipeline orchestrates the link stages: extract from notes,
// fetch pages, summarize, and tag. Every stage is idempotent; re-running
// only touches links the stage has not completed yet.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/enrich"
	"github.com/starford/raido/internal/fetch"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/scanner"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/store"
)

// PageFetcher retrieves HTML pages and routes PDFs.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) fetch.Result
	IsPDF(url string) bool
}

// PDFExtractor retrieves PDF documents and extracts their text.
type PDFExtractor interface {
	Fetch(ctx context.Context, url string) fetch.Result
}

// Options configures a Pipeline.
type Options struct {
	// BatchSize limits how many links each stage processes per run.
	BatchSize int
	// ExtractMaxLength caps the readable text stored per page.
	ExtractMaxLength int
	// Events receives link lifecycle events; nil disables publishing.
	Events *sse.Broker
	Logger *slog.Logger
}

// Pipeline drives links through the extract, fetch, summarize, and tag stages.
type Pipeline struct {
	db         *store.DB
	scanner    *scanner.Scanner
	fetcher    PageFetcher
	pdf        PDFExtractor
	summarizer enrich.Summarizer
	tagger     enrich.Tagger

	batchSize  int
	extractMax int
	events     *sse.Broker
	logger     *slog.Logger
}

// New assembles a pipeline. Summarizer and tagger may be nil, in which case
// only the metadata fallback produces summaries and the tag stage is skipped.
func New(db *store.DB, sc *scanner.Scanner, fetcher PageFetcher, pdf PDFExtractor,
	summarizer enrich.Summarizer, tagger enrich.Tagger, opts Options) *Pipeline {

	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.ExtractMaxLength <= 0 {
		opts.ExtractMaxLength = 50_000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		db:         db,
		scanner:    sc,
		fetcher:    fetcher,
		pdf:        pdf,
		summarizer: summarizer,
		tagger:     tagger,
		batchSize:  opts.BatchSize,
		extractMax: opts.ExtractMaxLength,
		events:     opts.Events,
		logger:     opts.Logger,
	}
}

// RunOptions selects which stages a Run executes and the date window for
// the extract stage.
type RunOptions struct {
	Fetch     bool
	Summarize bool
	Tag       bool
	DateFrom  string
	DateTo    string
}

// RunResult aggregates per-stage counts from one Run.
type RunResult struct {
	FilesScanned int
	NewLinks     int
	Fetched      int
	Summarized   int
	Tagged       int
	Stats        store.Stats
}

// Run executes the full pipeline.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	var res RunResult

	files, created, err := p.Extract(ctx, opts.DateFrom, opts.DateTo)
	if err != nil {
		return res, err
	}
	res.FilesScanned = files
	res.NewLinks = created

	if opts.Fetch {
		res.Fetched, err = p.FetchLinks(ctx)
		if err != nil {
			return res, err
		}
	}
	if opts.Summarize {
		res.Summarized, err = p.SummarizeLinks(ctx)
		if err != nil {
			return res, err
		}
	}
	if opts.Tag {
		res.Tagged, err = p.TagLinks(ctx)
		if err != nil {
			return res, err
		}
	}

	stats, err := p.db.GetStats()
	if err != nil {
		return res, err
	}
	res.Stats = stats
	p.logger.Info("pipeline run complete",
		"total", stats.TotalLinks, "fetched", stats.Fetched,
		"summarized", stats.Summarized, "tagged", stats.Tagged)
	return res, nil
}

// Extract scans note files in the date window and inserts links it has not
// seen before. Files whose checksum is unchanged since the last run are
// skipped entirely. Returns the number of files scanned and links created.
func (p *Pipeline) Extract(ctx context.Context, dateFrom, dateTo string) (int, int, error) {
	files, err := p.scanner.Scan(dateFrom, dateTo)
	if err != nil {
		return 0, 0, fmt.Errorf("pipeline: scan notes: %w", err)
	}
	p.logger.Info("scanned note files", "count", len(files))

	created := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return len(files), created, err
		}

		hash, err := checksum.SumFile(file.Path)
		if err != nil {
			p.logger.Error("hash note file", "path", file.Path, "error", err)
			continue
		}
		needs, err := p.db.FileNeedsProcessing(file.Path, hash)
		if err != nil {
			return len(files), created, err
		}
		if !needs {
			continue
		}

		n, err := p.extractFile(file.Path)
		if err != nil {
			p.logger.Error("extract links", "path", file.Path, "error", err)
			continue
		}
		created += n

		if err := p.db.MarkFileProcessed(file.Path, hash); err != nil {
			return len(files), created, err
		}
	}

	p.logger.Info("extracted links", "new", created)
	return len(files), created, nil
}

// ExtractFile processes a single note file regardless of the date window,
// used by the watcher when a file changes on disk.
func (p *Pipeline) ExtractFile(path string) (int, error) {
	hash, err := checksum.SumFile(path)
	if err != nil {
		return 0, fmt.Errorf("pipeline: hash note file: %w", err)
	}
	needs, err := p.db.FileNeedsProcessing(path, hash)
	if err != nil {
		return 0, err
	}
	if !needs {
		return 0, nil
	}
	n, err := p.extractFile(path)
	if err != nil {
		return 0, err
	}
	if err := p.db.MarkFileProcessed(path, hash); err != nil {
		return n, err
	}
	return n, nil
}

func (p *Pipeline) extractFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, link := range parser.ParseFile(path, content) {
		exists, err := p.db.LinkExists(link.URL)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		id, err := p.db.InsertLink(link)
		if err != nil {
			return created, err
		}
		created++
		p.publish(sse.KindCreated, id, link.URL)
	}
	return created, nil
}

// FetchLinks retrieves content for a batch of not-yet-fetched links. PDFs
// route through the PDF extractor; HTML passes through readable-content
// extraction before storage. Returns the number of links attempted.
func (p *Pipeline) FetchLinks(ctx context.Context) (int, error) {
	links, err := p.db.UnfetchedLinks(p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		p.logger.Info("no unfetched links")
		return 0, nil
	}
	p.logger.Info("fetching links", "count", len(links))

	fetched := 0
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		var result fetch.Result
		content := ""
		if p.fetcher.IsPDF(link.URL) {
			result = p.pdf.Fetch(ctx, link.URL)
			content = result.Content
		} else {
			result = p.fetcher.Fetch(ctx, link.URL)
			if result.Content != "" {
				content = fetch.ExtractReadable(result.Content, p.extractMax)
			}
		}

		if err := p.db.UpdateFetchResult(link.ID, result.Status, content, result.Title, result.Error); err != nil {
			return fetched, err
		}
		fetched++
		p.publish(sse.KindFetched, link.ID, link.URL)
		p.logger.Info("fetched", "status", string(result.Status), "url", clip(link.URL, 60))
	}
	return fetched, nil
}

// SummarizeLinks summarizes a batch of fetched links that have no summary
// yet. Links without page content get a summary assembled from metadata
// instead of an LLM call; a failed LLM call skips the link so the next run
// retries it. Returns the number of summaries written.
func (p *Pipeline) SummarizeLinks(ctx context.Context) (int, error) {
	links, err := p.db.UnsummarizedLinks(p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		p.logger.Info("no links to summarize")
		return 0, nil
	}
	p.logger.Info("summarizing links", "count", len(links))

	written := 0
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		if link.PageContent == "" {
			summary := metadataSummary(link)
			if summary == "" {
				continue
			}
			if err := p.db.UpdateSummary(link.ID, summary, "metadata"); err != nil {
				return written, err
			}
			written++
			p.publish(sse.KindSummarized, link.ID, link.URL)
			continue
		}

		if p.summarizer == nil {
			continue
		}
		title := link.PageTitle
		if title == "" {
			title = link.Title
		}
		summary, err := p.summarizer.Summarize(ctx, enrich.SummaryInput{
			Content:     link.PageContent,
			Title:       title,
			Description: link.Description,
			URL:         link.URL,
		})
		if err != nil {
			p.logger.Error("summarize failed", "url", link.URL, "error", err)
			continue
		}
		if err := p.db.UpdateSummary(link.ID, summary, p.summarizer.ModelName()); err != nil {
			return written, err
		}
		written++
		p.publish(sse.KindSummarized, link.ID, link.URL)
	}
	return written, nil
}

// metadataSummary assembles a summary from whatever metadata the link has
// when no page content is available.
func metadataSummary(link models.LinkRecord) string {
	var parts []string
	if link.PageTitle != "" {
		parts = append(parts, link.PageTitle)
	}
	if link.Description != "" && link.Description != link.PageTitle {
		parts = append(parts, link.Description)
	}
	if link.Title != "" && !contains(parts, link.Title) {
		parts = append(parts, link.Title)
	}
	return strings.Join(parts, " - ")
}

// TagLinks tags a batch of processed links that have no tags yet. A tagger
// failure on one link is logged and skipped. Returns the number of tags
// applied.
func (p *Pipeline) TagLinks(ctx context.Context) (int, error) {
	if p.tagger == nil {
		return 0, nil
	}
	links, err := p.db.UntaggedLinks(p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		p.logger.Info("no untagged links")
		return 0, nil
	}
	p.logger.Info("tagging links", "count", len(links))

	applied := 0
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		n, err := p.tagOne(ctx, link)
		if err != nil {
			p.logger.Error("tagging failed", "url", link.URL, "error", err)
			continue
		}
		applied += n
	}
	p.logger.Info("applied tags", "count", applied)
	return applied, nil
}

// Retag re-runs the tagger over processed links, optionally clearing the
// existing assignments first. Returns the number of tags applied.
func (p *Pipeline) Retag(ctx context.Context, clearExisting bool, limit int) (int, error) {
	if p.tagger == nil {
		return 0, fmt.Errorf("pipeline: no tagger configured")
	}
	if clearExisting {
		if err := p.db.ClearAllTags(); err != nil {
			return 0, err
		}
	}
	if limit <= 0 {
		limit = 1000
	}
	links, err := p.db.ProcessedLinks(limit)
	if err != nil {
		return 0, err
	}
	p.logger.Info("re-tagging links", "count", len(links))

	applied := 0
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		n, err := p.tagOne(ctx, link)
		if err != nil {
			p.logger.Error("tagging failed", "url", link.URL, "error", err)
			continue
		}
		applied += n
		p.logger.Info("re-tagged", "progress", fmt.Sprintf("%d/%d", i+1, len(links)),
			"url", clip(link.URL, 50), "tags", n)
	}
	return applied, nil
}

func (p *Pipeline) tagOne(ctx context.Context, link models.LinkRecord) (int, error) {
	scores, err := p.tagger.Tag(ctx, link)
	if err != nil {
		return 0, err
	}
	for _, s := range scores {
		if err := p.db.AddTag(link.ID, s.Tag, s.Confidence, "llm"); err != nil {
			return 0, err
		}
	}
	if len(scores) > 0 {
		p.publish(sse.KindTagged, link.ID, link.URL)
	}
	return len(scores), nil
}

// Refetch resets the fetch status of successful links whose stored content
// is empty, so the next fetch stage retries them. Returns the number reset.
func (p *Pipeline) Refetch(limit int) (int, error) {
	if limit <= 0 {
		limit = 1000
	}
	links, err := p.db.EmptyContentLinks(limit)
	if err != nil {
		return 0, err
	}
	for _, link := range links {
		if err := p.db.ResetFetchStatus(link.ID); err != nil {
			return 0, err
		}
	}
	p.logger.Info("reset links for refetch", "count", len(links))
	return len(links), nil
}

func (p *Pipeline) publish(kind string, id int64, url string) {
	if p.events != nil {
		p.events.PublishLinkEvent(kind, id, url)
	}
}

func contains(parts []string, s string) bool {
	for _, p := range parts {
		if p == s {
			return true
		}
	}
	return false
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
