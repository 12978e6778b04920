package analysis

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
	"github.com/daryalok/rehab-motion-ai/internal/domain/port"
)

// Config tunes the analysis pipeline. Stride is the frame sampling interval.
type Config struct {
	Stride     int
	Thresholds Thresholds
}

func DefaultConfig() Config {
	return Config{Stride: 2, Thresholds: DefaultThresholds()}
}

// Pipeline runs one full analysis invocation: sample frames, detect poses,
// aggregate asymmetry metrics, select key moments and render overlays. It is
// synchronous; the caller owns latency bounds via ctx and serializes access
// if the detector is not safe for concurrent use.
type Pipeline struct {
	opener   port.VideoOpener
	detector port.PoseDetector // nil switches every run to degraded mode
	analyzer *CompensationAnalyzer
	selector *KeyMomentSelector
	renderer *OverlayRenderer
	stride   int
	logger   *zap.Logger
}

func NewPipeline(opener port.VideoOpener, detector port.PoseDetector, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.Stride < 1 {
		cfg.Stride = 1
	}
	return &Pipeline{
		opener:   opener,
		detector: detector,
		analyzer: NewCompensationAnalyzer(cfg.Thresholds),
		selector: NewKeyMomentSelector(logger),
		renderer: NewOverlayRenderer(cfg.Thresholds),
		stride:   cfg.Stride,
		logger:   logger,
	}
}

// Run analyzes videoPath and writes key-moment images into outputDir.
// The only fatal failures are a missing/unopenable video and context
// cancellation; everything else degrades to a partial report.
func (p *Pipeline) Run(ctx context.Context, videoPath, outputDir string) (*entity.Report, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video not readable: %w", err)
	}

	if p.detector == nil {
		p.logger.Warn("pose detector unavailable, returning degraded analysis",
			zap.String("video", videoPath))
		return DegradedReport(), nil
	}

	src, err := p.opener.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer src.Close()

	meta := src.Metadata()
	p.logger.Info("video opened",
		zap.Float64("fps", meta.FPS),
		zap.Int("total_frames", meta.TotalFrames),
		zap.Float64("duration_secs", meta.Duration()),
	)

	records, err := p.collectRecords(ctx, src)
	if err != nil {
		return nil, err
	}

	analysis := p.analyzer.Analyze(records)

	moments := p.selector.Select(src, records, p.stride, meta.FPS)
	keyMoments := p.renderMoments(moments, analysis.Metrics, videoPath, outputDir)

	return &entity.Report{
		FPS:           meta.FPS,
		TotalFrames:   meta.TotalFrames,
		Duration:      meta.Duration(),
		KeypointsData: records,
		Analysis:      analysis,
		KeyMoments:    keyMoments,
	}, nil
}

func (p *Pipeline) collectRecords(ctx context.Context, src port.VideoSource) ([]entity.FrameRecord, error) {
	sampler := NewFrameSampler(src, p.stride)
	records := make([]entity.FrameRecord, 0)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		frame, ok := sampler.Next()
		if !ok {
			break
		}

		det, err := p.detector.Detect(frame.Image)
		if err != nil {
			// A failed frame never aborts the session.
			p.logger.Warn("pose detection failed for frame",
				zap.Int("frame", frame.Index), zap.Error(err))
			continue
		}
		if det.OK {
			records = append(records, entity.FrameRecord{
				Frame:     frame.Index,
				Time:      frame.Time,
				Keypoints: det.Keypoints,
			})
		}

		if sampled := sampler.Sampled(); sampled%100 == 0 {
			p.logger.Debug("sampling progress",
				zap.Int("sampled", sampled), zap.Int("detected", len(records)))
		}
	}

	p.logger.Info("pose extraction complete",
		zap.Int("sampled_frames", sampler.Sampled()),
		zap.Int("detected_frames", len(records)),
	)
	return records, nil
}

func (p *Pipeline) renderMoments(moments []Moment, metrics *entity.Metrics, videoPath, outputDir string) []entity.KeyMoment {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	keyMoments := make([]entity.KeyMoment, 0, len(moments))

	for _, m := range moments {
		img := p.renderer.Render(m.Frame.Image, m.Record.Keypoints, metrics)

		name := fmt.Sprintf("%s_%s.png", base, m.Type)
		if err := writePNG(filepath.Join(outputDir, name), img); err != nil {
			p.logger.Warn("failed to write key moment image, dropping moment",
				zap.String("image", name), zap.Error(err))
			continue
		}

		keyMoments = append(keyMoments, entity.KeyMoment{
			Time:  m.Record.Time,
			Frame: m.Record.Frame,
			Label: m.Label,
			Type:  m.Type,
			Image: name,
		})
	}
	return keyMoments
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return err
	}
	return f.Sync()
}
