// invoice-watch watches directories for new invoice documents and feeds
// them through the pipeline as they appear.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-pipeline/internal/app"
	"github.com/joseph-ayodele/invoice-pipeline/internal/async"
	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/ingest"
)

func main() {
	out := flag.String("out", "invoices.xlsx", "export workbook path")
	workers := flag.Int("workers", 4, "concurrent invoices")
	scan := flag.Bool("initial-scan", false, "process files already present at startup")
	flag.Parse()

	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

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

	queue := async.NewQueue(a.Workflow, logger, async.WithWorkers(*workers))

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       roots,
		InitialScan: *scan,
		Debounce:    500 * time.Millisecond,
	})
	if err != nil {
		logger.Error("watcher failed", "error", err)
		os.Exit(1)
	}

	logger.Info("watching", "roots", roots, "export", *out)

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			queue.Shutdown(shutdownCtx)
			cancel()
			return
		case path, open := <-events:
			if !open {
				return
			}
			if err := ingest.CheckSource(path); err != nil {
				logger.Warn("skipping file", "path", path, "error", err)
				continue
			}
			_ = queue.Enqueue(ctx, async.Job{
				InvoicePath: path,
				ExportPath:  *out,
				SubmittedAt: time.Now(),
			})
		case werr, open := <-errs:
			if open && werr != nil {
				logger.Warn("watch error", "error", werr)
			}
		}
	}
}
