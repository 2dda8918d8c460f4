package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joseph-ayodele/invoice-pipeline/constants"
	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

// Store keeps per-invocation job history in an embedded sqlite database.
// It satisfies pipeline.JobRecorder.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to (or creates) the sqlite database at path and migrates
// the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db, err := gorm.Open(sqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("init gorm: %w", err)
	}
	if err := db.AutoMigrate(&ExtractJob{}); err != nil {
		return nil, fmt.Errorf("migrate job schema: %w", err)
	}
	log.Info("store.open", "path", path)
	return &Store{db: db, logger: log}, nil
}

// Start records a new RUNNING job and returns its id.
func (s *Store) Start(ctx context.Context, invoicePath string) (string, error) {
	job := ExtractJob{
		ID:          uuid.New().String(),
		InvoicePath: invoicePath,
		Status:      constants.JobStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", fmt.Errorf("create job record: %w", err)
	}
	return job.ID, nil
}

// Finish stamps the terminal outcome onto the job row.
func (s *Store) Finish(ctx context.Context, jobID string, outcome pipeline.JobOutcome) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":        outcome.Status,
		"remote_job_id": outcome.RemoteJobID,
		"remote_status": outcome.RemoteStatus,
		"raw_payload":   outcome.RawPayload,
		"feedback":      strings.Join(outcome.Feedback, "\n"),
		"error":         outcome.Error,
		"finished_at":   &now,
	}
	res := s.db.WithContext(ctx).Model(&ExtractJob{}).Where("id = ?", jobID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("finish job %s: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish job %s: not found", jobID)
	}
	return nil
}

// Get loads one job by id.
func (s *Store) Get(ctx context.Context, jobID string) (*ExtractJob, error) {
	var job ExtractJob
	if err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return &job, nil
}

// List returns the most recent jobs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]ExtractJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []ExtractJob
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
