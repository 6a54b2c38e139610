package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	pkgconfig "github.com/starford/raido/pkg/config"
)

// loadConfig reads the config file named by the --config flag. A missing
// file is not an error; defaults apply.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
		Value:   "config/config.yaml",
		Sources: cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Extract, enrich, and browse links from daily Markdown notes",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "extract",
				Usage: "Extract and process links from daily notes",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-fetch", Usage: "Skip fetching web pages"},
					&cli.BoolFlag{Name: "no-summarize", Usage: "Skip summarization"},
					&cli.BoolFlag{Name: "no-tag", Usage: "Skip auto-tagging"},
					&cli.StringFlag{Name: "date-from", Usage: "Start date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "date-to", Usage: "End date (YYYY-MM-DD)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunExtract(ctx, cfg, internal.ExtractOptions{
						NoFetch:     cmd.Bool("no-fetch"),
						NoSummarize: cmd.Bool("no-summarize"),
						NoTag:       cmd.Bool("no-tag"),
						DateFrom:    cmd.String("date-from"),
						DateTo:      cmd.String("date-to"),
					})
				},
			},
			{
				Name:      "search",
				Usage:     "Full-text search links",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Max results", Value: 20},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					query := cmd.Args().First()
					if query == "" {
						return fmt.Errorf("query argument is required")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunSearch(cfg, query, int(cmd.Int("limit")))
				},
			},
			{
				Name:      "by-tag",
				Usage:     "List links by tag",
				ArgsUsage: "<tag>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					tag := cmd.Args().First()
					if tag == "" {
						return fmt.Errorf("tag argument is required")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunByTag(cfg, tag)
				},
			},
			{
				Name:  "tags",
				Usage: "List all tags with counts",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunTags(cfg)
				},
			},
			{
				Name:  "stats",
				Usage: "Show database statistics",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunStats(cfg)
				},
			},
			{
				Name:  "refetch",
				Usage: "Reset links with empty content so the next extract retries them",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Limit number of links"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Show what would be refetched without doing it"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunRefetch(cfg, int(cmd.Int("limit")), cmd.Bool("dry-run"))
				},
			},
			{
				Name:  "retag",
				Usage: "Re-tag links using LLM-based tagging",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear-existing", Usage: "Clear existing tags first"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Limit number of links"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunRetag(ctx, cfg, cmd.Bool("clear-existing"), int(cmd.Int("limit")))
				},
			},
			{
				Name:  "serve",
				Usage: "Start the HTTP API, SSE event stream, and notes watcher",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
						return fmt.Errorf("app run error: %w", err)
					}
					return nil
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the MCP stdio server for LLM tool integration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(cfg)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
