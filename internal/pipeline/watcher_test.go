package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return cond()
}

func TestWatch_ExtractsOnNoteWrite(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	p := newTestPipeline(t, db, dir, &fakeFetcher{}, &fakePDF{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, dir, slog.New(slog.DiscardHandler))
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	writeNote(t, dir, "2025-03-15.md", "## Links\n\n- http://a.test/watched\n")

	ok := waitFor(t, 3*time.Second, func() bool {
		exists, _ := db.LinkExists("http://a.test/watched")
		return exists
	})
	if !ok {
		t.Error("link from watched note never appeared")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop on cancel")
	}
}

func TestWatch_IgnoresNonDatedFiles(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	p := newTestPipeline(t, db, dir, &fakeFetcher{}, &fakePDF{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Watch(ctx, dir, slog.New(slog.DiscardHandler)) }()
	time.Sleep(100 * time.Millisecond)

	writeNote(t, dir, "scratch.md", "## Links\n\n- http://a.test/scratch\n")
	time.Sleep(500 * time.Millisecond)

	exists, _ := db.LinkExists("http://a.test/scratch")
	if exists {
		t.Error("link from non-dated note was extracted")
	}
}

func TestWatch_PicksUpNewSubdirectory(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	p := newTestPipeline(t, db, dir, &fakeFetcher{}, &fakePDF{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Watch(ctx, dir, slog.New(slog.DiscardHandler)) }()
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "2025")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to add the new directory.
	time.Sleep(200 * time.Millisecond)

	writeNote(t, sub, "2025-04-01.md", "## Links\n\n- http://a.test/nested\n")

	ok := waitFor(t, 3*time.Second, func() bool {
		exists, _ := db.LinkExists("http://a.test/nested")
		return exists
	})
	if !ok {
		t.Error("link from nested note never appeared")
	}
}
