package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"
)

var datedNoteRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// Watch starts an fsnotify watcher on the notes root and re-extracts links
// from dated note files as they are created or written, until ctx is
// cancelled. Writes are debounced per path because editors fire several
// events per save.
//
// Ingestion is additive: removing or renaming a note never deletes the
// links already extracted from it, so Remove and Rename events are ignored.
// New directories created at runtime are added to the watch list.
func (p *Pipeline) Watch(ctx context.Context, notesRoot string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, notesRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", notesRoot))

	const debounce = 300 * time.Millisecond
	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for path := range pending {
				delete(pending, path)
				n, extractErr := p.ExtractFile(path)
				if extractErr != nil {
					logger.Warn("watcher: extract failed",
						slog.String("path", path), slog.String("error", extractErr.Error()))
					continue
				}
				if n > 0 {
					logger.Info("watcher: extracted links",
						slog.String("path", path), slog.Int("new", n))
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !datedNoteRe.MatchString(filepath.Base(ev.Name)) {
				continue
			}

			pending[ev.Name] = struct{}{}
			scheduleFlush()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
