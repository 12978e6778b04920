package analysis

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
)

func TestSeverityTier(t *testing.T) {
	renderer := NewOverlayRenderer(DefaultThresholds())

	tests := []struct {
		name    string
		metrics *entity.Metrics
		want    Tier
	}{
		{"nil metrics is ok", nil, TierOK},
		{"low severity is ok", &entity.Metrics{AvgHipShift: 0.005, AvgKneeAsymmetry: 0.008}, TierOK},
		{"boundary severity is ok", &entity.Metrics{AvgHipShift: 0.01}, TierOK},
		{"moderate severity needs attention", &entity.Metrics{AvgHipShift: 0.015}, TierAttention},
		{"high severity is a problem", &entity.Metrics{AvgHipShift: 0.03}, TierProblem},
		{"knee asymmetry drives severity too", &entity.Metrics{AvgHipShift: 0.001, AvgKneeAsymmetry: 0.03}, TierProblem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderer.SeverityTier(tt.metrics))
		})
	}
}

func TestTierColor(t *testing.T) {
	renderer := NewOverlayRenderer(DefaultThresholds())

	assert.Equal(t, colorOK, renderer.TierColor(TierOK))
	assert.Equal(t, colorAttention, renderer.TierColor(TierAttention))
	assert.Equal(t, colorProblem, renderer.TierColor(TierProblem))
}

func TestRenderPreservesDimensions(t *testing.T) {
	renderer := NewOverlayRenderer(DefaultThresholds())
	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))

	out := renderer.Render(frame, fullKeypoints(0.5, 0.2, 0.2), nil)

	require.NotNil(t, out)
	assert.Equal(t, 320, out.Bounds().Dx())
	assert.Equal(t, 240, out.Bounds().Dy())
}

func TestRenderDrawsSkeletonOverBackground(t *testing.T) {
	renderer := NewOverlayRenderer(DefaultThresholds())
	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))

	metrics := &entity.Metrics{
		AvgHipShift:      0.03,
		AvgKneeAsymmetry: 0.02,
		CompensatingSide: entity.SideLeft,
		ShiftDirection:   entity.SideRight,
	}
	out := renderer.Render(frame, fullKeypoints(0.5, 0.2, 0.2), metrics)

	// Hips sit at x = 0.5 ± 0.07, so the joint markers center on pixels
	// (137, 120) and (182, 120). The compensating side's marker carries the
	// problem-tier fill, the healthy side the ok fill, and the background
	// away from any drawing stays untouched.
	assertPixel(t, out, 137, 120, colorProblem)
	assertPixel(t, out, 182, 120, colorOK)

	r, g, b, _ := out.At(5, 200).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func assertPixel(t *testing.T, img image.Image, x, y int, want color.RGBA) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	assert.InDelta(t, want.R, uint8(r>>8), 1, "red at (%d,%d)", x, y)
	assert.InDelta(t, want.G, uint8(g>>8), 1, "green at (%d,%d)", x, y)
	assert.InDelta(t, want.B, uint8(b>>8), 1, "blue at (%d,%d)", x, y)
}

func TestRenderWithPartialKeypoints(t *testing.T) {
	renderer := NewOverlayRenderer(DefaultThresholds())
	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))

	// Missing hips must not panic; the reference line is simply skipped.
	keypoints := []entity.Keypoint{
		{Name: entity.LandmarkNose, X: 0.5, Y: 0.15},
		{Name: entity.LandmarkLeftKnee, X: 0.45, Y: 0.6},
	}

	out := renderer.Render(frame, keypoints, &entity.Metrics{AvgHipShift: 0.03})
	require.NotNil(t, out)
	assert.Equal(t, frame.Bounds(), out.Bounds())
}

func TestRenderNoKeypoints(t *testing.T) {
	renderer := NewOverlayRenderer(DefaultThresholds())
	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))

	out := renderer.Render(frame, nil, nil)
	require.NotNil(t, out)
	assert.Equal(t, frame.Bounds(), out.Bounds())
}
