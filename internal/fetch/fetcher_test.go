package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func TestFetch_MediaExtensionSkippedWithoutNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	f := NewFetcher(Options{})
	res := f.Fetch(context.Background(), srv.URL+"/cat.png")
	if res.Status != models.StatusSkipped {
		t.Fatalf("status = %s, want skipped", res.Status)
	}
	if called {
		t.Error("network call made for media URL")
	}
}

func TestFetch_PDFRoutedToCaller(t *testing.T) {
	f := NewFetcher(Options{})
	res := f.Fetch(context.Background(), "http://x.test/paper.PDF")
	if res.Status != models.StatusSkipped {
		t.Fatalf("status = %s, want skipped", res.Status)
	}
	if !strings.Contains(res.Error, "pdf extractor") {
		t.Errorf("error = %q", res.Error)
	}
	if res.ContentType != "application/pdf" {
		t.Errorf("content type = %q", res.ContentType)
	}
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("user agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Hello &amp; Welcome</title></head><body>hi</body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(Options{})
	res := f.Fetch(context.Background(), srv.URL+"/page")
	if res.Status != models.StatusSuccess {
		t.Fatalf("status = %s (%s), want success", res.Status, res.Error)
	}
	if res.Title != "Hello & Welcome" {
		t.Errorf("title = %q", res.Title)
	}
	if !strings.Contains(res.Content, "<body>hi</body>") {
		t.Errorf("content = %q", res.Content)
	}
}

func TestFetch_Non200IsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res := NewFetcher(Options{}).Fetch(context.Background(), srv.URL)
	if res.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if res.Error != "HTTP 404" {
		t.Errorf("error = %q, want HTTP 404", res.Error)
	}
}

func TestFetch_NonHTMLContentTypeSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	res := NewFetcher(Options{}).Fetch(context.Background(), srv.URL)
	if res.Status != models.StatusSkipped {
		t.Fatalf("status = %s, want skipped", res.Status)
	}
	if res.Content != "" {
		t.Errorf("content should be empty, got %q", res.Content)
	}
	if !strings.Contains(res.Error, "application/json") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestFetch_OversizedBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	res := NewFetcher(Options{MaxContentLength: 1000}).Fetch(context.Background(), srv.URL)
	if res.Status != models.StatusSuccess {
		t.Fatalf("status = %s, want success", res.Status)
	}
	if len(res.Content) != 1000 {
		t.Errorf("len(content) = %d, want 1000", len(res.Content))
	}
}

func TestFetch_TimeoutClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	res := NewFetcher(Options{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	if res.Status != models.StatusTimeout {
		t.Fatalf("status = %s (%s), want timeout", res.Status, res.Error)
	}
}

func TestFetch_ConnectionRefusedIsFailed(t *testing.T) {
	// Reserve a port then close it so the connect is refused immediately.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	res := NewFetcher(Options{}).Fetch(context.Background(), addr)
	if res.Status != models.StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if res.Error == "" {
		t.Error("error text should be retained")
	}
}

func TestFetch_SameHostRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(Options{RequestsPerSecond: 5}) // 200ms min interval
	start := time.Now()
	f.Fetch(context.Background(), srv.URL+"/a")
	f.Fetch(context.Background(), srv.URL+"/b")
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("second fetch started after %v, want >= 200ms", elapsed)
	}
}

func TestLimiter_DistinctHostsDoNotWait(t *testing.T) {
	l := newLimiter(1) // 1s interval
	start := time.Now()
	if err := l.wait(context.Background(), "a.test"); err != nil {
		t.Fatal(err)
	}
	if err := l.wait(context.Background(), "b.test"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("distinct hosts waited %v", elapsed)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := newLimiter(0.5)
	if err := l.wait(context.Background(), "a.test"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.wait(ctx, "a.test"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestDomain(t *testing.T) {
	if got := Domain("https://example.com:8443/path?q=1"); got != "example.com:8443" {
		t.Errorf("domain = %q", got)
	}
}
