package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/starford/raido/internal/models"
)

// PDFOptions configures a PDFFetcher.
type PDFOptions struct {
	Timeout          time.Duration
	MaxPages         int
	MaxContentLength int
	UserAgent        string
}

// PDFFetcher downloads PDF documents and extracts their text page by page.
type PDFFetcher struct {
	client     *http.Client
	maxPages   int
	maxContent int
	userAgent  string
}

// NewPDFFetcher creates a PDFFetcher. Zero option fields get defaults.
func NewPDFFetcher(opts PDFOptions) *PDFFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = 50_000
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &PDFFetcher{
		client:     &http.Client{Timeout: opts.Timeout},
		maxPages:   opts.MaxPages,
		maxContent: opts.MaxContentLength,
		userAgent:  opts.UserAgent,
	}
}

// Fetch downloads the PDF at rawURL and extracts its text and metadata
// title. Every failure, download or parse, is normalized to a Failed result
// with the underlying message preserved.
func (p *PDFFetcher) Fetch(ctx context.Context, rawURL string) Result {
	data, err := p.download(ctx, rawURL)
	if err != nil {
		return Result{Status: models.StatusFailed, Error: err.Error(), FetchedAt: time.Now()}
	}

	text, title, err := p.extractText(data)
	if err != nil {
		return Result{Status: models.StatusFailed, Error: err.Error(), FetchedAt: time.Now()}
	}

	return Result{
		Status:      models.StatusSuccess,
		Content:     text,
		Title:       title,
		ContentType: "application/pdf",
		FetchedAt:   time.Now(),
	}
}

func (p *PDFFetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pdf: build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pdf: download: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pdf: read body: %w", err)
	}
	return data, nil
}

// extractText concatenates per-page text up to the page cap. Pages beyond
// the cap and pages that fail to parse are silently ignored.
func (p *PDFFetcher) extractText(data []byte) (text, title string, err error) {
	// The pdf library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: parse: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("pdf: open: %w", err)
	}

	if info := reader.Trailer().Key("Info"); !info.IsNull() {
		if t := info.Key("Title"); t.Kind() == pdf.String {
			title = strings.TrimSpace(t.Text())
		}
	}

	pages := reader.NumPage()
	if pages > p.maxPages {
		pages = p.maxPages
	}

	var parts []string
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		if pageText != "" {
			parts = append(parts, pageText)
		}
	}

	text = strings.Join(strings.Fields(strings.Join(parts, "\n")), " ")
	return truncate(text, p.maxContent), title, nil
}
