// invoiced serves the invoice pipeline over HTTP: multipart upload in,
// envelope out, plus job history and prometheus metrics.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-pipeline/internal/app"
	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/server"
	"github.com/joseph-ayodele/invoice-pipeline/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(cfg, logger, app.Options{History: true, Metrics: true})
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("close error", "error", cerr)
		}
	}()

	srv := server.New(server.Config{
		Addr:      cfg.Server.Addr,
		UploadDir: cfg.Server.UploadDir,
		ExportDir: cfg.Export.Dir,
	}, a.Workflow, logger,
		server.WithHistory(historyView{a.Store}),
		server.WithMetricsRegistry(a.Registry),
	)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
}

// historyView adapts the store's rows to the server's read model.
type historyView struct {
	store *store.Store
}

func (h historyView) List(ctx context.Context, limit int) ([]server.JobView, error) {
	jobs, err := h.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]server.JobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, server.JobView{
			ID:           j.ID,
			InvoicePath:  j.InvoicePath,
			Status:       string(j.Status),
			RemoteJobID:  j.RemoteJobID,
			RemoteStatus: j.RemoteStatus,
			Error:        j.Error,
			StartedAt:    j.StartedAt,
			FinishedAt:   j.FinishedAt,
		})
	}
	return out, nil
}
