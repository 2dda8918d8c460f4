package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

// Config is the HTTP surface configuration.
type Config struct {
	Addr      string
	UploadDir string // where multipart uploads land before processing
	ExportDir string // where named export workbooks are written
}

// Processor runs one invoice through the pipeline. Satisfied by
// *pipeline.Workflow; narrowed to an interface so handler tests can stub it.
type Processor interface {
	Run(ctx context.Context, invoicePath, exportPath string) *pipeline.Envelope
}

// History is the optional job-listing surface backed by the store.
type History interface {
	List(ctx context.Context, limit int) ([]JobView, error)
}

// JobView is the read model handed to clients.
type JobView struct {
	ID           string     `json:"id"`
	InvoicePath  string     `json:"invoice_path"`
	Status       string     `json:"status"`
	RemoteJobID  string     `json:"remote_job_id,omitempty"`
	RemoteStatus string     `json:"remote_status,omitempty"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Server exposes the pipeline over HTTP.
type Server struct {
	app     *fiber.App
	cfg     Config
	proc    Processor
	history History
	reg     prometheus.Gatherer
	logger  *slog.Logger
}

type Option func(*Server)

// WithHistory enables the job-history endpoint.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithMetricsRegistry exposes /metrics from the given registry.
func WithMetricsRegistry(g prometheus.Gatherer) Option {
	return func(s *Server) { s.reg = g }
}

func New(cfg Config, proc Processor, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // extraction can poll for a while
		IdleTimeout:  120 * time.Second,
		BodyLimit:    32 * 1024 * 1024,
	})

	s := &Server{
		app:    app,
		cfg:    cfg,
		proc:   proc,
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())

	s.app.Get("/health", s.handleHealth)
	s.app.Post("/process-invoice", s.handleProcessInvoice)
	s.app.Get("/jobs", s.handleListJobs)

	if s.reg != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}),
		))
	}
}

// App exposes the fiber app for handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start blocks serving on the configured address.
func (s *Server) Start() error {
	s.logger.Info("server.listen", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
