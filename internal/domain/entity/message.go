package entity

import "github.com/google/uuid"

// AnalysisRequestMessage is the inbound message from the analysis.jobs queue.
type AnalysisRequestMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    string    `json:"user_id"`
	VideoKey  string    `json:"video_key"`
	FileSize  int64     `json:"file_size"`
	UserEmail string    `json:"user_email"`
}

// AnalysisStatusMessage is the outbound message published to the
// analysis.status queue.
type AnalysisStatusMessage struct {
	JobID                uuid.UUID `json:"job_id"`
	UserID               string    `json:"user_id"`
	Status               JobStatus `json:"status"`
	VideoKey             string    `json:"video_key"`
	ReportKey            string    `json:"report_key,omitempty"`
	ArchiveKey           string    `json:"archive_key,omitempty"`
	DetectedFrames       int       `json:"detected_frames,omitempty"`
	KeyMomentCount       int       `json:"key_moment_count,omitempty"`
	CompensationDetected bool      `json:"compensation_detected"`
	Degraded             bool      `json:"degraded"`
	Duration             float64   `json:"duration_seconds,omitempty"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	Attempt              int       `json:"attempt"`
	MaxAttempts          int       `json:"max_attempts"`
}
