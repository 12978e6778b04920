package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/daryalok/rehab-motion-ai/internal/analysis"
	"github.com/daryalok/rehab-motion-ai/internal/domain/port"
	"github.com/daryalok/rehab-motion-ai/internal/infra/archive"
	"github.com/daryalok/rehab-motion-ai/internal/infra/config"
	"github.com/daryalok/rehab-motion-ai/internal/infra/email"
	"github.com/daryalok/rehab-motion-ai/internal/infra/metrics"
	"github.com/daryalok/rehab-motion-ai/internal/infra/minio"
	"github.com/daryalok/rehab-motion-ai/internal/infra/pose"
	"github.com/daryalok/rehab-motion-ai/internal/infra/postgres"
	"github.com/daryalok/rehab-motion-ai/internal/infra/rabbitmq"
	"github.com/daryalok/rehab-motion-ai/internal/infra/tracing"
	"github.com/daryalok/rehab-motion-ai/internal/infra/video"
	"github.com/daryalok/rehab-motion-ai/internal/usecase"
	"github.com/daryalok/rehab-motion-ai/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("starting movement analysis worker",
		zap.Int("workers", cfg.WorkerCount),
		zap.String("jobs_queue", cfg.RabbitMQJobsQueue),
		zap.Int("frame_stride", cfg.FrameStride),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing unavailable, continuing without it", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	storage, err := minio.NewStorage(minio.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		VideoBucket:   cfg.MinIOVideoBucket,
		ResultsBucket: cfg.MinIOResultsBucket,
	})
	if err != nil {
		log.Fatal("failed to create minio storage", zap.Error(err))
	}
	if err := storage.EnsureBuckets(ctx); err != nil {
		log.Fatal("failed to ensure buckets", zap.Error(err))
	}

	pubConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer pubConn.Close()

	publisher, err := rabbitmq.NewPublisher(pubConn, cfg.RabbitMQExchange)
	if err != nil {
		log.Fatal("failed to create publisher", zap.Error(err))
	}
	statusPub := rabbitmq.NewStatusPublisher(publisher)
	dlqPub := rabbitmq.NewDLQPublisher(publisher, cfg.RabbitMQDLQ)

	repo := postgres.NewJobRepository(pool)

	// A missing or broken pose model is not fatal: the pipeline serves
	// degraded analyses until a model is available.
	var detector port.PoseDetector
	if d, err := pose.NewDetector(cfg.PoseModelPath, cfg.PoseMinConfidence, log); err != nil {
		log.Warn("pose detector unavailable, running in degraded mode",
			zap.String("model_path", cfg.PoseModelPath),
			zap.Error(err),
		)
	} else {
		detector = d
		defer d.Close()
	}

	thresholds := analysis.Thresholds{
		HipShift:          cfg.HipShiftThreshold,
		KneeAsymmetry:     cfg.KneeAsymmetryThreshold,
		AttentionSeverity: cfg.AttentionSeverity,
		ProblemSeverity:   cfg.ProblemSeverity,
		MidlineShift:      cfg.MidlineShiftThreshold,
		ArrowWidthFrac:    cfg.ArrowWidthFraction,
	}
	pipeline := analysis.NewPipeline(video.NewOpener(), detector, analysis.Config{
		Stride:     cfg.FrameStride,
		Thresholds: thresholds,
	}, log)

	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	if err := os.MkdirAll(cfg.TempDir, 0755); err != nil {
		log.Fatal("failed to create temp dir", zap.Error(err))
	}

	uc := usecase.NewAnalyzeVideoUseCase(
		repo,
		storage,
		pipeline,
		archive.NewZipper(),
		statusPub,
		dlqPub,
		notifier,
		log,
		usecase.AnalyzeVideoConfig{
			TempDir:    cfg.TempDir,
			MaxRetries: cfg.MaxRetries,
			Stride:     cfg.FrameStride,
		},
	)

	metricsServer := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQJobsQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	if err != nil {
		log.Fatal("failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		log.Fatal("consumer stopped with error", zap.Error(err))
	}

	log.Info("worker shut down cleanly")
}
