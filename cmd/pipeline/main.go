package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/app"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "llm-embedding-pipeline",
		Usage: "embed Federal Register documents into Postgres/pgvector",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "keyword",
				Usage: "term filter; repeatable, joined with |",
			},
			&cli.StringFlag{
				Name:  "since",
				Usage: "inclusive publication date lower bound (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "until",
				Usage: "inclusive publication date upper bound (YYYY-MM-DD)",
			},
			&cli.StringSliceFlag{
				Name:  "type",
				Usage: "document type filter: RULE, PRORULE, NOTICE, PRESDOCU",
			},
			&cli.IntFlag{
				Name:  "max-documents",
				Usage: "stop after collecting this many documents",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	// Interruption is honoured between documents; mid-document state is
	// whatever the store already committed.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	if kw := c.StringSlice("keyword"); len(kw) > 0 {
		cfg.Keywords = kw
	}
	if v := c.String("since"); v != "" {
		cfg.SinceDate = v
	}
	if v := c.String("until"); v != "" {
		cfg.UntilDate = v
	}
	if types := c.StringSlice("type"); len(types) > 0 {
		cfg.DocTypes = types
	}
	if v := c.Int("max-documents"); v > 0 {
		cfg.MaxDocuments = v
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer application.Close()

	report, runErr := application.Runner.Run(ctx)
	if report != nil {
		slog.Info("run complete",
			"fetched", report.Fetched,
			"skipped_no_text", report.SkippedNoText,
			"skipped_duplicate", report.SkippedDuplicate,
			"chunks_embedded", report.ChunksEmbedded,
			"chunks_failed", report.ChunksFailed,
			"documents_persisted", report.DocumentsPersisted,
			"documents_storage_failed", report.DocumentsStorageFailed,
		)
	}
	return runErr
}
