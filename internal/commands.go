package internal

import (
	"context"
	"fmt"

	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/pipeline"
	"github.com/starford/raido/internal/store"
)

// openStore opens the SQLite store from config.
func openStore(cfg *Config) (*store.DB, error) {
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// ExtractOptions selects pipeline stages and the date window for RunExtract.
type ExtractOptions struct {
	NoFetch     bool
	NoSummarize bool
	NoTag       bool
	DateFrom    string
	DateTo      string
}

// RunExtract executes the full pipeline once: scan notes, fetch, summarize, tag.
func RunExtract(ctx context.Context, cfg *Config, opts ExtractOptions) error {
	logger := newLogger(cfg)
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pipe := buildPipeline(cfg, db, nil, logger)
	res, err := pipe.Run(ctx, pipeline.RunOptions{
		Fetch:     !opts.NoFetch,
		Summarize: !opts.NoSummarize,
		Tag:       !opts.NoTag,
		DateFrom:  opts.DateFrom,
		DateTo:    opts.DateTo,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Files scanned: %d\n", res.FilesScanned)
	fmt.Printf("New links:     %d\n", res.NewLinks)
	fmt.Printf("Fetched:       %d\n", res.Fetched)
	fmt.Printf("Summarized:    %d\n", res.Summarized)
	fmt.Printf("Tags applied:  %d\n", res.Tagged)
	return nil
}

// RunSearch prints full-text search results.
func RunSearch(cfg *Config, query string, limit int) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Search(query, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for _, link := range results {
		fmt.Printf("[%s] %s\n", link.SourceDate.Format("2006-01-02"), link.DisplayTitle())
		fmt.Printf("  %s\n", link.URL)
		if link.Summary != "" {
			fmt.Printf("  Summary: %s\n", clipString(link.Summary, 100))
		}
		fmt.Println()
	}
	return nil
}

// RunByTag prints links carrying the given tag.
func RunByTag(cfg *Config, tagName string) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.LinksByTag(tagName)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No links with tag %q\n", tagName)
		return nil
	}

	fmt.Printf("Links tagged %q (%d):\n\n", tagName, len(results))
	for _, link := range results {
		fmt.Printf("[%s] %s\n", link.SourceDate.Format("2006-01-02"), link.DisplayTitle())
		fmt.Printf("  %s\n\n", link.URL)
	}
	return nil
}

// RunTags prints the tag catalog with usage counts.
func RunTags(cfg *Config) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tags, err := db.AllTags()
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Println("No tags found.")
		return nil
	}

	fmt.Println("Tags:")
	for _, t := range tags {
		fmt.Printf("  %s (%s): %d links\n", t.Name, t.Category, t.Count)
	}
	return nil
}

// RunStats prints database statistics.
func RunStats(cfg *Config) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := db.GetStats()
	if err != nil {
		return err
	}

	fmt.Println("Database Statistics:")
	fmt.Printf("  Total links:  %d\n", s.TotalLinks)
	fmt.Printf("  Fetched:      %d\n", s.Fetched)
	fmt.Printf("  Summarized:   %d\n", s.Summarized)
	fmt.Printf("  Tagged:       %d\n", s.Tagged)
	return nil
}

// RunRefetch resets successfully fetched links with empty content so the
// next extract run retries them. With dryRun it only lists candidates.
func RunRefetch(cfg *Config, limit int, dryRun bool) error {
	logger := newLogger(cfg)
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if limit <= 0 {
		limit = 1000
	}

	if dryRun {
		links, err := db.EmptyContentLinks(limit)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			fmt.Println("No links with empty content to refetch.")
			return nil
		}
		fmt.Printf("Would refetch %d links:\n", len(links))
		for i, link := range links {
			if i == 20 {
				fmt.Printf("  ... and %d more\n", len(links)-20)
				break
			}
			fmt.Printf("  %s\n", clipString(link.URL, 70))
		}
		return nil
	}

	pipe := buildPipeline(cfg, db, nil, logger)
	reset, err := pipe.Refetch(limit)
	if err != nil {
		return err
	}
	if reset == 0 {
		fmt.Println("No links with empty content to refetch.")
		return nil
	}
	fmt.Printf("Reset %d links. Run 'extract' to refetch them.\n", reset)
	return nil
}

// RunRetag re-runs the tagger over processed links.
func RunRetag(ctx context.Context, cfg *Config, clearExisting bool, limit int) error {
	logger := newLogger(cfg)
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if clearExisting {
		fmt.Println("Clearing existing tags...")
	}

	pipe := buildPipeline(cfg, db, nil, logger)
	applied, err := pipe.Retag(ctx, clearExisting, limit)
	if err != nil {
		return err
	}
	fmt.Printf("Applied %d tags\n", applied)

	tags, err := db.AllTags()
	if err != nil {
		return err
	}
	fmt.Println("\nTag distribution:")
	for i, t := range tags {
		if i == 15 {
			break
		}
		fmt.Printf("  %s (%s): %d\n", t.Name, t.Category, t.Count)
	}
	return nil
}

// RunMCP serves the MCP stdio server until the client disconnects.
func RunMCP(cfg *Config) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return mcpserver.New(db).ServeStdio()
}

func clipString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
