package analysis

import (
	"errors"
	"image"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
	"github.com/daryalok/rehab-motion-ai/internal/domain/port"
)

// fakeSource replays a scripted frame sequence.
type fakeSource struct {
	meta     port.VideoMetadata
	frames   []*port.Frame
	pos      int
	failSeek map[int]bool
	closed   bool
}

func newFakeSource(fps float64, width, height, frameCount int) *fakeSource {
	frames := make([]*port.Frame, frameCount)
	for i := range frames {
		frames[i] = &port.Frame{
			Index: i,
			Time:  float64(i) / fps,
			Image: image.NewRGBA(image.Rect(0, 0, width, height)),
		}
	}
	return &fakeSource{
		meta: port.VideoMetadata{
			FPS:         fps,
			TotalFrames: frameCount,
			Width:       width,
			Height:      height,
		},
		frames:   frames,
		failSeek: map[int]bool{},
	}
}

func (s *fakeSource) Metadata() port.VideoMetadata { return s.meta }

func (s *fakeSource) Next() (*port.Frame, bool) {
	if s.pos >= len(s.frames) {
		return nil, false
	}
	f := s.frames[s.pos]
	s.pos++
	return f, true
}

func (s *fakeSource) Seek(frameIndex int) (*port.Frame, bool) {
	if s.failSeek[frameIndex] {
		return nil, false
	}
	if frameIndex < 0 || frameIndex >= len(s.frames) {
		return nil, false
	}
	return s.frames[frameIndex], true
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	src *fakeSource
	err error
}

func (o *fakeOpener) Open(path string) (port.VideoSource, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

// fakeDetector returns per-frame scripted detections; detect is called once
// per sampled frame in order.
type fakeDetector struct {
	detect func(call int) (port.Detection, error)
	calls  int
	closed bool
}

func (d *fakeDetector) Detect(img image.Image) (port.Detection, error) {
	det, err := d.detect(d.calls)
	d.calls++
	return det, err
}

func (d *fakeDetector) Close() error {
	d.closed = true
	return nil
}

var errDetect = errors.New("inference failed")

// fullKeypoints builds the complete landmark set with the hip midpoint at
// hipCenter and the knee-to-ankle distances set per side. Every other
// coordinate is anatomically plausible filler.
func fullKeypoints(hipCenter, leftFlex, rightFlex float64) []entity.Keypoint {
	const ankleY = 0.85
	return []entity.Keypoint{
		{Name: entity.LandmarkNose, X: hipCenter, Y: 0.15, Visibility: 1},
		{Name: entity.LandmarkLeftShoulder, X: hipCenter - 0.05, Y: 0.25, Visibility: 1},
		{Name: entity.LandmarkRightShoulder, X: hipCenter + 0.05, Y: 0.25, Visibility: 1},
		{Name: entity.LandmarkLeftHip, X: hipCenter - 0.07, Y: 0.5, Visibility: 1},
		{Name: entity.LandmarkRightHip, X: hipCenter + 0.07, Y: 0.5, Visibility: 1},
		{Name: entity.LandmarkLeftKnee, X: hipCenter - 0.08, Y: ankleY - leftFlex, Visibility: 1},
		{Name: entity.LandmarkRightKnee, X: hipCenter + 0.08, Y: ankleY - rightFlex, Visibility: 1},
		{Name: entity.LandmarkLeftAnkle, X: hipCenter - 0.08, Y: ankleY, Visibility: 1},
		{Name: entity.LandmarkRightAnkle, X: hipCenter + 0.08, Y: ankleY, Visibility: 1},
	}
}

func record(frame int, t float64, hipCenter, leftFlex, rightFlex float64) entity.FrameRecord {
	return entity.FrameRecord{
		Frame:     frame,
		Time:      t,
		Keypoints: fullKeypoints(hipCenter, leftFlex, rightFlex),
	}
}
