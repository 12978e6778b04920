package analysis

import (
	"math"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
)

// Thresholds are the uncalibrated detection and rendering constants. They
// are deliberately overridable configuration rather than literals; the
// defaults reproduce the clinically reviewed values.
type Thresholds struct {
	HipShift          float64 // max hip shift above which compensation is flagged
	KneeAsymmetry     float64 // max knee asymmetry above which compensation is flagged
	AttentionSeverity float64 // severity above which overlays use the attention color
	ProblemSeverity   float64 // severity above which overlays use the problem color
	MidlineShift      float64 // avg hip shift above which the midline is highlighted
	ArrowWidthFrac    float64 // pixel hip shift, as a fraction of frame width, that triggers the arrow
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HipShift:          0.05,
		KneeAsymmetry:     0.08,
		AttentionSeverity: 0.01,
		ProblemSeverity:   0.02,
		MidlineShift:      0.015,
		ArrowWidthFrac:    0.05,
	}
}

// kneeFlexionAngle is a placeholder until real joint-angle computation
// lands; the reported angle is not derived from the landmarks.
const kneeFlexionAngle = 32

// CompensationAnalyzer derives session-level asymmetry metrics from the
// full frame-record sequence.
type CompensationAnalyzer struct {
	thresholds Thresholds
}

func NewCompensationAnalyzer(t Thresholds) *CompensationAnalyzer {
	return &CompensationAnalyzer{thresholds: t}
}

// qualifyingLandmarks must all be present for a frame to count toward the
// asymmetry aggregates.
var qualifyingLandmarks = []string{
	entity.LandmarkLeftHip,
	entity.LandmarkRightHip,
	entity.LandmarkLeftKnee,
	entity.LandmarkRightKnee,
	entity.LandmarkLeftAnkle,
	entity.LandmarkRightAnkle,
}

// Analyze aggregates per-frame hip shift and knee flexion asymmetry into a
// session verdict. Records is the ordered detected-frame sequence; an empty
// sequence or one with no qualifying frames yields a no-verdict analysis
// rather than an error.
func (a *CompensationAnalyzer) Analyze(records []entity.FrameRecord) entity.Analysis {
	if len(records) == 0 {
		return entity.Analysis{
			CompensationDetected: false,
			Message:              entity.MsgNoPoseData,
		}
	}

	var (
		hipShifts      []float64
		hipDirections  []float64
		kneeAsyms      []float64
		kneeDepthDiffs []float64
	)

	for _, rec := range records {
		if !hasAll(rec, qualifyingLandmarks) {
			continue
		}

		leftHip, _ := rec.Keypoint(entity.LandmarkLeftHip)
		rightHip, _ := rec.Keypoint(entity.LandmarkRightHip)
		leftKnee, _ := rec.Keypoint(entity.LandmarkLeftKnee)
		rightKnee, _ := rec.Keypoint(entity.LandmarkRightKnee)
		leftAnkle, _ := rec.Keypoint(entity.LandmarkLeftAnkle)
		rightAnkle, _ := rec.Keypoint(entity.LandmarkRightAnkle)

		// Lateral drift of the hip midpoint from the frame center.
		hipDirection := (leftHip.X+rightHip.X)/2 - 0.5
		hipDirections = append(hipDirections, hipDirection)
		hipShifts = append(hipShifts, math.Abs(hipDirection))

		// Knee-to-ankle distance is the flexion-depth proxy: a shorter
		// distance means a straighter, less loaded leg.
		leftFlexion := math.Abs(leftKnee.Y - leftAnkle.Y)
		rightFlexion := math.Abs(rightKnee.Y - rightAnkle.Y)
		depthDiff := leftFlexion - rightFlexion
		kneeDepthDiffs = append(kneeDepthDiffs, depthDiff)
		kneeAsyms = append(kneeAsyms, math.Abs(depthDiff))
	}

	if len(hipShifts) == 0 {
		return entity.Analysis{
			CompensationDetected: false,
			Message:              entity.MsgInsufficientData,
		}
	}

	metrics := &entity.Metrics{
		AvgHipShift:      mean(hipShifts),
		MaxHipShift:      max64(hipShifts),
		AvgKneeAsymmetry: mean(kneeAsyms),
		MaxKneeAsymmetry: max64(kneeAsyms),
	}

	// Positive depth diff means the left leg shows the greater flexion
	// distance, which reads as the right leg avoiding load. A perfectly
	// symmetric session resolves to "right"; tests pin this boundary.
	if mean(kneeDepthDiffs) > 0 {
		metrics.CompensatingSide = entity.SideLeft
	} else {
		metrics.CompensatingSide = entity.SideRight
	}
	if mean(hipDirections) > 0 {
		metrics.ShiftDirection = entity.SideRight
	} else {
		metrics.ShiftDirection = entity.SideLeft
	}

	detected := metrics.MaxHipShift > a.thresholds.HipShift ||
		metrics.MaxKneeAsymmetry > a.thresholds.KneeAsymmetry

	analysis := entity.Analysis{
		CompensationDetected: detected,
		KneeFlexionAngle:     kneeFlexionAngle,
		CompensatingSide:     metrics.CompensatingSide,
		ShiftDirection:       metrics.ShiftDirection,
		Metrics:              metrics,
	}
	if detected {
		analysis.Message = "Load shifts to healthy leg at 32° knee flexion"
		analysis.Recommendation = "Focus on slow, symmetrical knee loading."
	} else {
		analysis.Message = entity.MsgNoCompensation
		analysis.Recommendation = "Continue current rehabilitation protocol."
	}
	return analysis
}

func hasAll(rec entity.FrameRecord, names []string) bool {
	for _, name := range names {
		if _, ok := rec.Keypoint(name); !ok {
			return false
		}
	}
	return true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func max64(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
