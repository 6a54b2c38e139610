// Package fetch retrieves remote documents with per-host rate limiting and
// a closed result taxonomy: success, failed, timeout, skipped.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

// DefaultUserAgent identifies the crawler to remote servers.
const DefaultUserAgent = "raido/1.0"

var skipExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".mp4": {}, ".mp3": {}, ".wav": {},
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

// Result is the outcome of one fetch. Status is always set; Content and
// Title only on success; Error holds diagnostics for failed/timeout/skipped.
type Result struct {
	Status      models.FetchStatus
	Content     string
	Title       string
	Error       string
	ContentType string
	FetchedAt   time.Time
}

// Options configures a Fetcher.
type Options struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	MaxContentLength  int
	UserAgent         string
}

// Fetcher performs rate-limited HTTP fetches of HTML documents.
type Fetcher struct {
	client     *http.Client
	limit      *limiter
	maxContent int
	userAgent  string
}

// NewFetcher creates a Fetcher. Zero option fields get defaults.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = 1_000_000
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		limit:      newLimiter(opts.RequestsPerSecond),
		maxContent: opts.MaxContentLength,
		userAgent:  opts.UserAgent,
	}
}

// IsPDF reports whether the URL path points at a PDF document.
func (f *Fetcher) IsPDF(rawURL string) bool {
	return strings.HasSuffix(strings.ToLower(urlPath(rawURL)), ".pdf")
}

// ShouldSkip reports whether the URL path has a media extension that is
// never fetched.
func (f *Fetcher) ShouldSkip(rawURL string) bool {
	p := strings.ToLower(urlPath(rawURL))
	for ext := range skipExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// Fetch retrieves a URL. Media URLs and PDFs are skipped without a network
// call; PDFs are the caller's responsibility to route to the PDF extractor.
// Fetch never returns an error: every outcome is encoded in the Result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	now := time.Now()

	if f.ShouldSkip(rawURL) {
		return Result{Status: models.StatusSkipped, Error: "non-HTML content type (media file)", FetchedAt: now}
	}
	if f.IsPDF(rawURL) {
		return Result{
			Status:      models.StatusSkipped,
			Error:       "PDF - use pdf extractor",
			ContentType: "application/pdf",
			FetchedAt:   now,
		}
	}

	if err := f.limit.wait(ctx, urlHost(rawURL)); err != nil {
		return classifyError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{Status: models.StatusFailed, Error: err.Error(), FetchedAt: time.Now()}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{
			Status:    models.StatusFailed,
			Error:     fmt.Sprintf("HTTP %d", resp.StatusCode),
			FetchedAt: time.Now(),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return Result{
			Status:      models.StatusSkipped,
			Error:       "Non-HTML content: " + contentType,
			ContentType: contentType,
			FetchedAt:   time.Now(),
		}
	}

	// Oversized bodies are truncated, not rejected.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxContent)))
	if err != nil {
		return classifyError(err)
	}

	content := string(body)
	return Result{
		Status:      models.StatusSuccess,
		Content:     content,
		Title:       extractTitle(content),
		ContentType: contentType,
		FetchedAt:   time.Now(),
	}
}

// classifyError maps transport errors onto the result taxonomy: a timeout is
// a distinct status, everything else is a failure with the message retained.
func classifyError(err error) Result {
	now := time.Now()
	if errors.Is(err, context.DeadlineExceeded) {
		return Result{Status: models.StatusTimeout, Error: "request timed out", FetchedAt: now}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return Result{Status: models.StatusTimeout, Error: "request timed out", FetchedAt: now}
	}
	return Result{Status: models.StatusFailed, Error: err.Error(), FetchedAt: now}
}

// extractTitle returns the decoded text of the first <title> element.
func extractTitle(markup string) string {
	m := titleRe.FindStringSubmatch(markup)
	if m == nil {
		return ""
	}
	return html.UnescapeString(strings.TrimSpace(m[1]))
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func urlHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

// Domain returns the host part of a URL, used as the rate-limit key and the
// persisted domain attribute.
func Domain(rawURL string) string {
	return urlHost(rawURL)
}
