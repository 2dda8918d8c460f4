package server

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-pipeline/internal/ingest"
)

const version = "0.1.0"

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   version,
		"timestamp": time.Now().Unix(),
	})
}

// handleProcessInvoice accepts a multipart upload, runs the pipeline, and
// returns the envelope. HTTP status is 200 for every pipeline outcome; the
// envelope's status field carries success/warning/error. Only transport
// problems (bad multipart, unsaveable upload) get non-200.
func (s *Server) handleProcessInvoice(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no file provided"})
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.logger.Error("server.upload_dir_error", "dir", s.cfg.UploadDir, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to prepare upload directory"})
	}

	// uuid prefix keeps concurrent uploads of the same filename apart
	path := filepath.Join(s.cfg.UploadDir, uuid.New().String()+"_"+filepath.Base(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		s.logger.Error("server.upload_save_error", "file", file.Filename, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save upload"})
	}
	defer func() {
		if rerr := os.Remove(path); rerr != nil {
			s.logger.Warn("server.upload_cleanup_error", "file", path, "error", rerr)
		}
	}()

	if err := ingest.CheckSource(path); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	exportPath := ""
	if name := c.FormValue("export"); name != "" {
		exportPath = filepath.Join(s.cfg.ExportDir, filepath.Base(name))
	}

	env := s.proc.Run(c.UserContext(), path, exportPath)
	return c.JSON(env)
}

func (s *Server) handleListJobs(c *fiber.Ctx) error {
	if s.history == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job history not enabled"})
	}
	limit := c.QueryInt("limit", 50)
	jobs, err := s.history.List(c.UserContext(), limit)
	if err != nil {
		s.logger.Error("server.jobs_list_error", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list jobs"})
	}
	return c.JSON(jobs)
}
