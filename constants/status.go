package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"    // queued for processing
	JobStatusRunning   JobStatus = "RUNNING"   // in progress
	JobStatusSucceeded JobStatus = "SUCCEEDED" // extracted, validated, exported if requested
	JobStatusInvalid   JobStatus = "INVALID"   // extracted but failed rule validation
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)
