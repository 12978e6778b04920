package analysis

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
)

// Tier is one of the three severity bands driving overlay colors.
type Tier int

const (
	TierOK Tier = iota
	TierAttention
	TierProblem
)

var (
	colorOK        = color.RGBA{R: 0x00, G: 0xFF, B: 0x88, A: 0xFF}
	colorAttention = color.RGBA{R: 0xFF, G: 0xAA, B: 0x00, A: 0xFF}
	colorProblem   = color.RGBA{R: 0xFF, G: 0x44, B: 0x44, A: 0xFF}
	colorReference = color.RGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF}
	colorOutline   = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorBoxFill   = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xB4}
)

// limb pairs per side, drawn shoulder to ankle.
var sideLimbs = map[string][][2]string{
	entity.SideLeft: {
		{entity.LandmarkLeftShoulder, entity.LandmarkLeftHip},
		{entity.LandmarkLeftHip, entity.LandmarkLeftKnee},
		{entity.LandmarkLeftKnee, entity.LandmarkLeftAnkle},
	},
	entity.SideRight: {
		{entity.LandmarkRightShoulder, entity.LandmarkRightHip},
		{entity.LandmarkRightHip, entity.LandmarkRightKnee},
		{entity.LandmarkRightKnee, entity.LandmarkRightAnkle},
	},
}

// OverlayRenderer draws a severity-colored skeleton and annotations over a
// single raw frame. The input frame is never mutated; Render always returns
// a fresh buffer of the same dimensions.
type OverlayRenderer struct {
	thresholds Thresholds
}

func NewOverlayRenderer(t Thresholds) *OverlayRenderer {
	return &OverlayRenderer{thresholds: t}
}

// SeverityTier maps session metrics to a color tier from the larger of the
// average hip shift and average knee asymmetry. Nil metrics render as ok.
func (r *OverlayRenderer) SeverityTier(m *entity.Metrics) Tier {
	if m == nil {
		return TierOK
	}
	severity := math.Max(m.AvgHipShift, m.AvgKneeAsymmetry)
	switch {
	case severity > r.thresholds.ProblemSeverity:
		return TierProblem
	case severity > r.thresholds.AttentionSeverity:
		return TierAttention
	default:
		return TierOK
	}
}

// TierColor returns the palette color for a tier.
func (r *OverlayRenderer) TierColor(tier Tier) color.RGBA {
	switch tier {
	case TierProblem:
		return colorProblem
	case TierAttention:
		return colorAttention
	default:
		return colorOK
	}
}

// Render draws the skeleton for one frame. Keypoints are the complete
// landmark set in normalized coordinates; metrics may be nil, in which case
// every element uses the ok color and no annotations are drawn.
func (r *OverlayRenderer) Render(frame image.Image, keypoints []entity.Keypoint, m *entity.Metrics) image.Image {
	bounds := frame.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(frame, 0, 0)
	dc.SetFontFace(basicfont.Face7x13)

	points := make(map[string]gg.Point, len(keypoints))
	for _, kp := range keypoints {
		points[kp.Name] = gg.Point{X: kp.X * w, Y: kp.Y * h}
	}

	tier := r.SeverityTier(m)
	tierColor := r.TierColor(tier)

	midColor := colorOK
	if m != nil && m.AvgHipShift > r.thresholds.MidlineShift {
		midColor = colorAttention
	}

	sideColor := func(side string) color.RGBA {
		if m != nil && side == m.CompensatingSide {
			return tierColor
		}
		return colorOK
	}

	// Vertical reference line through the hip center.
	leftHip, lok := points[entity.LandmarkLeftHip]
	rightHip, rok := points[entity.LandmarkRightHip]
	var hipCenterX float64
	if lok && rok {
		hipCenterX = (leftHip.X + rightHip.X) / 2
		dc.SetColor(colorReference)
		dc.SetLineWidth(2)
		dc.DrawLine(hipCenterX, 0, hipCenterX, h)
		dc.Stroke()
	}

	// Limb segments, injured side in the tier color.
	dc.SetLineWidth(4)
	for side, limbs := range sideLimbs {
		dc.SetColor(sideColor(side))
		for _, limb := range limbs {
			from, fok := points[limb[0]]
			to, tok := points[limb[1]]
			if !fok || !tok {
				continue
			}
			dc.DrawLine(from.X, from.Y, to.X, to.Y)
			dc.Stroke()
		}
	}
	if lok && rok {
		dc.SetColor(midColor)
		dc.DrawLine(leftHip.X, leftHip.Y, rightHip.X, rightHip.Y)
		dc.Stroke()
	}

	// Joint markers with a white outline.
	for _, kp := range keypoints {
		pt := points[kp.Name]
		fill := midColor
		switch side := landmarkSide(kp.Name); side {
		case entity.SideLeft, entity.SideRight:
			fill = sideColor(side)
		}
		dc.DrawCircle(pt.X, pt.Y, 8)
		dc.SetColor(fill)
		dc.FillPreserve()
		dc.SetColor(colorOutline)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	if m != nil && tier != TierOK {
		r.drawSideLabel(dc, m.CompensatingSide, tierColor)
	}

	// Directional arrow once the pixel shift is visually meaningful.
	if m != nil && lok && rok {
		if math.Abs(hipCenterX-w/2) > r.thresholds.ArrowWidthFrac*w {
			r.drawShiftArrow(dc, m.ShiftDirection, w)
		}
	}

	return dc.Image()
}

func (r *OverlayRenderer) drawSideLabel(dc *gg.Context, side string, c color.RGBA) {
	label := "Compensating side: " + side
	tw, th := dc.MeasureString(label)

	dc.SetColor(colorBoxFill)
	dc.DrawRoundedRectangle(20, 20, tw+24, th+16, 6)
	dc.Fill()
	dc.SetColor(c)
	dc.DrawString(label, 32, 20+th+4)
}

func (r *OverlayRenderer) drawShiftArrow(dc *gg.Context, direction string, w float64) {
	const y = 80.0
	x1, x2 := w/2-50, w/2+50
	head := 12.0
	if direction == entity.SideLeft {
		x1, x2 = x2, x1
		head = -head
	}

	dc.SetColor(colorProblem)
	dc.SetLineWidth(4)
	dc.DrawLine(x1, y, x2, y)
	dc.Stroke()
	dc.DrawLine(x2, y, x2-head, y-8)
	dc.Stroke()
	dc.DrawLine(x2, y, x2-head, y+8)
	dc.Stroke()

	dc.DrawString("Shift "+direction, x1, y-16)
}

func landmarkSide(name string) string {
	switch name {
	case entity.LandmarkLeftShoulder, entity.LandmarkLeftHip,
		entity.LandmarkLeftKnee, entity.LandmarkLeftAnkle:
		return entity.SideLeft
	case entity.LandmarkRightShoulder, entity.LandmarkRightHip,
		entity.LandmarkRightKnee, entity.LandmarkRightAnkle:
		return entity.SideRight
	default:
		return ""
	}
}
