package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rehab_analyses_total",
		Help: "Total number of analysis jobs processed, by status",
	}, []string{"status"})

	AnalysisStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rehab_analysis_stage_duration_seconds",
		Help:    "Duration of the analysis pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rehab_frames_sampled_total",
		Help: "Total number of video frames sampled across all jobs",
	})

	PosesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rehab_poses_detected_total",
		Help: "Total number of frames with a detected pose across all jobs",
	})

	DegradedAnalysesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rehab_degraded_analyses_total",
		Help: "Total number of analyses served in degraded mode",
	})

	CompensationDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rehab_compensation_detected_total",
		Help: "Total number of analyses that flagged compensation",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rehab_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rehab_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
