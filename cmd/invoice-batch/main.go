// invoice-batch processes every invoice under a directory and appends the
// valid ones to a single workbook. Exit code 1 when any invoice failed.
package main

import (
	"context"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-pipeline/internal/app"
	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/ingest"
	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

func main() {
	dir := flag.String("dir", ".", "directory to scan for invoices")
	out := flag.String("out", "invoices.xlsx", "export workbook path")
	workers := flag.Int("workers", 4, "concurrent invoices")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(cfg, logger, app.Options{History: true})
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	paths, err := collect(*dir)
	if err != nil {
		logger.Error("scan failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		logger.Info("no invoices found", "dir", *dir)
		return
	}

	var ok, invalid, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := ingest.CheckSource(path); err != nil {
				failed.Add(1)
				logger.Error("precheck failed", "invoice", path, "error", err)
				return nil
			}
			env := a.Workflow.Run(gctx, path, *out)
			switch env.Status {
			case pipeline.StatusSuccess:
				ok.Add(1)
			case pipeline.StatusWarning:
				invalid.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("batch done",
		"total", len(paths),
		"succeeded", ok.Load(),
		"invalid", invalid.Load(),
		"failed", failed.Load(),
	)
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func collect(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if ingest.AllowedExt(path) && !ingest.IsHidden(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
