package store

import (
	"time"

	"github.com/joseph-ayodele/invoice-pipeline/constants"
)

// ExtractJob is one recorded pipeline invocation.
type ExtractJob struct {
	ID           string              `gorm:"primaryKey;size:36"`
	InvoicePath  string              `gorm:"index;not null"`
	Status       constants.JobStatus `gorm:"index;not null"`
	RemoteJobID  string
	RemoteStatus string
	RawPayload   string `gorm:"type:text"`
	Feedback     string `gorm:"type:text"` // newline-joined validation issues
	Error        string
	StartedAt    time.Time `gorm:"index;not null"`
	FinishedAt   *time.Time
}

func (ExtractJob) TableName() string { return "extract_jobs" }
