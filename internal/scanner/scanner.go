// Package scanner discovers dated note files under a root directory.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

var datedName = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// Scanner walks a daily-notes tree and returns files named YYYY-MM-DD.md.
type Scanner struct {
	root string
}

// New creates a Scanner rooted at dir.
func New(dir string) *Scanner {
	return &Scanner{root: dir}
}

// Scan returns note files whose filename date falls within the optional
// inclusive [from, to] range. Both bounds are ISO dates ("2025-03-15") and
// either may be empty. Files with unparsable names are silently excluded.
// Results are sorted newest first.
func (s *Scanner) Scan(from, to string) ([]models.SourceFile, error) {
	var fromDate, toDate time.Time
	var err error
	if from != "" {
		if fromDate, err = time.Parse("2006-01-02", from); err != nil {
			return nil, fmt.Errorf("scanner: parse date_from: %w", err)
		}
	}
	if to != "" {
		if toDate, err = time.Parse("2006-01-02", to); err != nil {
			return nil, fmt.Errorf("scanner: parse date_to: %w", err)
		}
	}

	var out []models.SourceFile
	err = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !datedName.MatchString(d.Name()) {
			return nil
		}
		date, ok := dateFromName(d.Name())
		if !ok {
			return nil
		}
		if from != "" && date.Before(fromDate) {
			return nil
		}
		if to != "" && date.After(toDate) {
			return nil
		}
		out = append(out, models.SourceFile{Path: p, Date: date})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: walk %s: %w", s.root, err)
	}

	// Newest first; the date string sorts lexically, so comparing stems is
	// both the ordering and the tie-break.
	sort.Slice(out, func(i, j int) bool {
		return stem(out[i].Path) > stem(out[j].Path)
	})
	return out, nil
}

// dateFromName parses the date out of a filename like "2025-03-15.md".
// The name has already matched the pattern, but impossible dates (month 13)
// still fail here and exclude the file.
func dateFromName(name string) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", strings.TrimSuffix(name, ".md"))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func stem(p string) string {
	return strings.TrimSuffix(filepath.Base(p), ".md")
}
