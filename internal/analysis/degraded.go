package analysis

import (
	"math"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
)

// Degraded mode: when the pose detector cannot be initialized the pipeline
// still has to return a structurally complete report. The synthesized
// session is a fixed 24 s capture at 30 fps sampled every 2nd frame, with
// six full squat cycles and a small lateral drift standing in for
// compensation.
const (
	degradedFPS         = 30.0
	degradedTotalFrames = 720
	degradedStride      = 2
	degradedDurationSec = 24.0
	degradedCycles      = 6
)

// SynthesizeRecords produces the deterministic degraded-mode landmark
// sequence. The lateral drift amplitude keeps the hip midpoint excursion
// above the detection threshold, so the sequence always reads as
// compensating when analyzed.
func SynthesizeRecords() []entity.FrameRecord {
	records := make([]entity.FrameRecord, 0, degradedTotalFrames/degradedStride)

	for frame := 0; frame < degradedTotalFrames; frame += degradedStride {
		t := float64(frame) / degradedFPS / degradedDurationSec
		squat := math.Sin(t * math.Pi * degradedCycles)
		drift := 0.05 * math.Sin(t*math.Pi*degradedCycles)

		records = append(records, entity.FrameRecord{
			Frame: frame,
			Time:  float64(frame) / degradedFPS,
			Keypoints: []entity.Keypoint{
				{Name: entity.LandmarkNose, X: 0.5 + drift, Y: 0.15, Visibility: 1},
				{Name: entity.LandmarkLeftShoulder, X: 0.45 + drift, Y: 0.25, Visibility: 1},
				{Name: entity.LandmarkRightShoulder, X: 0.55 + drift, Y: 0.25, Visibility: 1},
				{Name: entity.LandmarkLeftHip, X: 0.43 + drift*2, Y: 0.5 + squat*0.1, Visibility: 1},
				{Name: entity.LandmarkRightHip, X: 0.57 + drift*0.5, Y: 0.5 + squat*0.15, Visibility: 1},
				{Name: entity.LandmarkLeftKnee, X: 0.42 + drift*2, Y: 0.65 + squat*0.15, Visibility: 1},
				{Name: entity.LandmarkRightKnee, X: 0.58 + drift*0.5, Y: 0.65 + squat*0.1, Visibility: 1},
				{Name: entity.LandmarkLeftAnkle, X: 0.42 + drift*1.5, Y: 0.85, Visibility: 1},
				{Name: entity.LandmarkRightAnkle, X: 0.58 + drift*0.3, Y: 0.85, Visibility: 1},
			},
		})
	}
	return records
}

// DegradedReport is the canned report returned when no detector is
// available. Metrics are fixed rather than computed so every caller sees
// the identical shape and values.
func DegradedReport() *entity.Report {
	metrics := &entity.Metrics{
		AvgHipShift:      0.0398,
		MaxHipShift:      0.0625,
		AvgKneeAsymmetry: 0.0318,
		MaxKneeAsymmetry: 0.05,
		CompensatingSide: entity.SideRight,
		ShiftDirection:   entity.SideLeft,
	}

	return &entity.Report{
		FPS:           degradedFPS,
		TotalFrames:   degradedTotalFrames,
		Duration:      degradedDurationSec,
		KeypointsData: SynthesizeRecords(),
		Analysis: entity.Analysis{
			CompensationDetected: true,
			KneeFlexionAngle:     kneeFlexionAngle,
			Message:              "Load shifts to healthy leg at 32° knee flexion (degraded analysis)",
			Recommendation:       "Focus on slow, symmetrical knee loading.",
			CompensatingSide:     metrics.CompensatingSide,
			ShiftDirection:       metrics.ShiftDirection,
			Metrics:              metrics,
		},
		KeyMoments: []entity.KeyMoment{},
		Degraded:   true,
	}
}
