package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/daryalok/rehab-motion-ai/internal/analysis"
	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
	"github.com/daryalok/rehab-motion-ai/internal/domain/port"
	"github.com/daryalok/rehab-motion-ai/internal/infra/metrics"
)

type AnalyzeVideoUseCase struct {
	repo      port.JobRepository
	storage   port.ResultStorage
	pipeline  *analysis.Pipeline
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	stride    int
}

type AnalyzeVideoConfig struct {
	TempDir    string
	MaxRetries int
	Stride     int
}

func NewAnalyzeVideoUseCase(
	repo port.JobRepository,
	storage port.ResultStorage,
	pipeline *analysis.Pipeline,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	if cfg.Stride < 1 {
		cfg.Stride = 1
	}
	return &AnalyzeVideoUseCase{
		repo:      repo,
		storage:   storage,
		pipeline:  pipeline,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		stride:    cfg.Stride,
	}
}

func (uc *AnalyzeVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.AnalysisRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewAnalysisJob(msg.UserID, msg.VideoKey, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.runAnalysisPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.AnalysisStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *AnalyzeVideoUseCase) runAnalysisPipeline(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from MinIO.
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.AnalysisStageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Run the analysis pipeline.
	anStart := time.Now()
	ctx3, spanAn := tracer.Start(ctx, "analyze_video")
	report, err := uc.pipeline.Run(ctx3, videoPath, workDir)
	if err != nil {
		spanAn.End()
		log.Error("analysis failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "analyze_video: "+err.Error(), log)
	}
	spanAn.End()
	metrics.AnalysisStageDuration.WithLabelValues("analyze").Observe(time.Since(anStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(report.TotalFrames / uc.stride))
	metrics.PosesDetectedTotal.Add(float64(len(report.KeypointsData)))
	if report.Degraded {
		metrics.DegradedAnalysesTotal.Inc()
	}
	if report.Analysis.CompensationDetected {
		metrics.CompensationDetectedTotal.Inc()
	}

	// Upload report and key-moment images, then a zip bundle of both.
	upStart := time.Now()
	ctx4, spanUp := tracer.Start(ctx, "upload_results")
	reportKey, archiveKey, err := uc.uploadResults(ctx4, job, msg, report, workDir)
	if err != nil {
		spanUp.End()
		log.Error("result upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_results: "+err.Error(), log)
	}
	spanUp.End()
	metrics.AnalysisStageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(reportKey, archiveKey, report)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)
	metrics.AnalysesTotal.WithLabelValues("completed").Inc()

	log.Info("job completed successfully",
		zap.Int("detected_frames", len(report.KeypointsData)),
		zap.Int("key_moments", len(report.KeyMoments)),
		zap.Bool("compensation_detected", report.Analysis.CompensationDetected),
		zap.Bool("degraded", report.Degraded),
		zap.String("report_key", reportKey),
	)

	return nil
}

func (uc *AnalyzeVideoUseCase) uploadResults(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	report *entity.Report,
	workDir string,
) (reportKey, archiveKey string, err error) {
	prefix := fmt.Sprintf("%s/%s", msg.UserID, job.ID.String())

	archiveFiles := make([]string, 0, len(report.KeyMoments)+1)
	for _, km := range report.KeyMoments {
		imgPath := filepath.Join(workDir, km.Image)
		if err := uc.storage.UploadImage(ctx, prefix+"/"+km.Image, imgPath); err != nil {
			return "", "", fmt.Errorf("upload image %s: %w", km.Image, err)
		}
		archiveFiles = append(archiveFiles, imgPath)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", "", fmt.Errorf("marshal report: %w", err)
	}
	reportPath := filepath.Join(workDir, "report.json")
	if err := os.WriteFile(reportPath, reportJSON, 0644); err != nil {
		return "", "", fmt.Errorf("write report file: %w", err)
	}
	archiveFiles = append(archiveFiles, reportPath)

	reportKey = prefix + "/report.json"
	if err := uc.storage.UploadReport(ctx, reportKey, bytes.NewReader(reportJSON), int64(len(reportJSON))); err != nil {
		return "", "", fmt.Errorf("upload report: %w", err)
	}

	archivePath := filepath.Join(workDir, "results.zip")
	if err := uc.archiver.CreateArchive(ctx, archiveFiles, archivePath); err != nil {
		return "", "", fmt.Errorf("create archive: %w", err)
	}
	archiveKey = prefix + "/results.zip"
	if err := uc.storage.UploadArchive(ctx, archiveKey, archivePath); err != nil {
		return "", "", fmt.Errorf("upload archive: %w", err)
	}

	return reportKey, archiveKey, nil
}

func (uc *AnalyzeVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.AnalysesTotal.WithLabelValues("failed").Inc()
	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *AnalyzeVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.AnalysesTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *AnalyzeVideoUseCase) publishStatus(ctx context.Context, job *entity.AnalysisJob, log *zap.Logger) {
	statusMsg := entity.AnalysisStatusMessage{
		JobID:                job.ID,
		UserID:               job.UserID,
		Status:               job.Status,
		VideoKey:             job.VideoKey,
		ReportKey:            job.ReportKey,
		ArchiveKey:           job.ArchiveKey,
		DetectedFrames:       job.DetectedFrames,
		KeyMomentCount:       job.KeyMomentCount,
		CompensationDetected: job.CompensationDetected,
		Degraded:             job.Degraded,
		Duration:             job.VideoDuration,
		ErrorMessage:         job.ErrorMessage,
		Attempt:              job.Attempt,
		MaxAttempts:          job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
