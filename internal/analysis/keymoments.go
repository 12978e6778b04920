package analysis

import (
	"math"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
	"github.com/daryalok/rehab-motion-ai/internal/domain/port"
	"go.uber.org/zap"
)

// Moment pairs a selected frame record with the full-resolution frame
// re-fetched from the source for rendering.
type Moment struct {
	Label  string
	Type   string
	Record entity.FrameRecord
	Frame  *port.Frame
}

// KeyMomentSelector picks three representative timestamps (neutral at 20%,
// compensation peak at 50%, recovery at 80% of the session), matches each to
// the nearest detected frame record and re-fetches that frame at full
// resolution.
type KeyMomentSelector struct {
	logger *zap.Logger
}

func NewKeyMomentSelector(logger *zap.Logger) *KeyMomentSelector {
	return &KeyMomentSelector{logger: logger}
}

type momentTarget struct {
	frac  float64
	label string
	typ   string
}

var momentTargets = []momentTarget{
	{0.2, "Neutral", entity.MomentNeutral},
	{0.5, "Compensation peak", entity.MomentPeak},
	{0.8, "Recovery phase", entity.MomentRecovery},
}

// Select returns at most three moments. A failed re-seek drops that moment
// silently; partial lists are fine.
func (s *KeyMomentSelector) Select(src port.VideoSource, records []entity.FrameRecord, stride int, fps float64) []Moment {
	if len(records) == 0 {
		return nil
	}

	// Approximate session duration from the record count, not the container
	// metadata, so corrupt tails shrink the window instead of skewing it.
	duration := 0.0
	if fps > 0 {
		duration = float64(len(records)*stride) / fps
	}

	moments := make([]Moment, 0, len(momentTargets))
	for _, target := range momentTargets {
		rec := nearestRecord(records, duration*target.frac)

		frame, ok := src.Seek(rec.Frame)
		if !ok {
			s.logger.Warn("key moment frame re-fetch failed, dropping moment",
				zap.String("type", target.typ),
				zap.Int("frame", rec.Frame),
			)
			continue
		}

		moments = append(moments, Moment{
			Label:  target.label,
			Type:   target.typ,
			Record: rec,
			Frame:  frame,
		})
	}
	return moments
}

// nearestRecord returns the record whose timestamp is closest to target;
// the first record wins ties.
func nearestRecord(records []entity.FrameRecord, target float64) entity.FrameRecord {
	best := records[0]
	bestDist := math.Abs(best.Time - target)
	for _, rec := range records[1:] {
		if dist := math.Abs(rec.Time - target); dist < bestDist {
			best = rec
			bestDist = dist
		}
	}
	return best
}
