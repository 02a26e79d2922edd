package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/shelf/internal"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/records"
	pkgconfig "github.com/starford/shelf/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func export(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Export(ctx, cmd.String("dest"), opts...)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	printReport("works", res.Works)
	printReport("notes", res.Notes)
	return nil
}

func printReport(kind string, r *records.ExportReport) {
	if r == nil {
		return
	}
	fmt.Printf("%s: %d copied to %s\n", kind, r.Copied, r.Dir)
	for _, f := range r.Failed {
		fmt.Printf("  failed: %s\n", f)
	}
}

func importNotes(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("import: at least one file is required")
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	notes, err := internal.Import(ctx, paths, opts...)
	for _, n := range notes {
		fmt.Printf("%s\t%s\n", n.ID, n.Title)
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

func list(ctx context.Context, cmd *cli.Command) error {
	var f library.Filter
	if raw := cmd.String("type"); raw != "" {
		t, ok := models.ParseWorkType(raw)
		if !ok {
			return fmt.Errorf("unknown type %q", raw)
		}
		f.Type = t
	}
	if raw := cmd.String("status"); raw != "" {
		st, ok := models.ParseWorkStatus(raw)
		if !ok {
			return fmt.Errorf("unknown status %q", raw)
		}
		f.Status = st
	}
	f.Query = cmd.String("query")

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	works, err := internal.List(ctx, f, cmd.String("sort"), opts...)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSTATUS")
	for _, w := range works {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.ID, w.Title, w.Type, w.Status)
	}
	return tw.Flush()
}

func main() {
	cmd := &cli.Command{
		Name:   "shelf",
		Usage:  "Personal catalogue of books, manga, anime and series with free-text notes",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, the directory watcher and scheduled backups",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:   "export",
				Usage:  "Copy works and notes into fresh timestamped directories",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dest", Aliases: []string{"d"}, Usage: "Destination root (defaults to library.export_dir)"},
				},
			},
			{
				Name:      "import",
				Usage:     "Import text files as notes",
				ArgsUsage: "FILE...",
				Action:    importNotes,
			},
			{
				Name:   "list",
				Usage:  "Print works",
				Action: list,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "ANIME, BOOK, MANGA or SERIES"},
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match title or other titles"},
					&cli.StringFlag{Name: "sort", Value: library.SortTitle, Usage: "title, year or dateRead"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
