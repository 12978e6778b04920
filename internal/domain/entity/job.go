package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// AnalysisJob tracks one movement-analysis request through its lifecycle.
type AnalysisJob struct {
	ID                   uuid.UUID
	UserID               string
	VideoKey             string
	ReportKey            string
	ArchiveKey           string
	Status               JobStatus
	DetectedFrames       int
	KeyMomentCount       int
	CompensationDetected bool
	Degraded             bool
	FileSize             int64
	VideoDuration        float64
	Attempt              int
	MaxAttempts          int
	ErrorMessage         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
}

func NewAnalysisJob(userID, videoKey string, fileSize int64, maxAttempts int) *AnalysisJob {
	now := time.Now().UTC()
	return &AnalysisJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FileSize:    fileSize,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *AnalysisJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) MarkCompleted(reportKey, archiveKey string, report *Report) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ReportKey = reportKey
	j.ArchiveKey = archiveKey
	j.DetectedFrames = len(report.KeypointsData)
	j.KeyMomentCount = len(report.KeyMoments)
	j.CompensationDetected = report.Analysis.CompensationDetected
	j.Degraded = report.Degraded
	j.VideoDuration = report.Duration
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *AnalysisJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
