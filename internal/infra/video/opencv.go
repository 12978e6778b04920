package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/daryalok/rehab-motion-ai/internal/domain/port"
)

// Opener opens video files through an OpenCV capture.
type Opener struct{}

func NewOpener() *Opener {
	return &Opener{}
}

func (o *Opener) Open(path string) (port.VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("capture not opened: %s", path)
	}

	meta := port.VideoMetadata{
		FPS:         capture.Get(gocv.VideoCaptureFPS),
		TotalFrames: int(capture.Get(gocv.VideoCaptureFrameCount)),
		Width:       int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}

	return &Source{capture: capture, meta: meta, mat: gocv.NewMat()}, nil
}

// Source is a sequential, seekable frame reader over one capture handle.
// It is not safe for concurrent use.
type Source struct {
	capture *gocv.VideoCapture
	meta    port.VideoMetadata
	mat     gocv.Mat
	next    int
}

func (s *Source) Metadata() port.VideoMetadata {
	return s.meta
}

// Next decodes the next frame in stream order. Decode failures end the
// stream; truncated files read as shorter sessions.
func (s *Source) Next() (*port.Frame, bool) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, false
	}
	index := s.next
	s.next++
	return s.frameAt(index)
}

// Seek positions the capture at frameIndex and decodes that frame at full
// resolution.
func (s *Source) Seek(frameIndex int) (*port.Frame, bool) {
	s.capture.Set(gocv.VideoCapturePosFrames, float64(frameIndex))
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, false
	}
	s.next = frameIndex + 1
	return s.frameAt(frameIndex)
}

func (s *Source) frameAt(index int) (*port.Frame, bool) {
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, false
	}

	timestamp := 0.0
	if s.meta.FPS > 0 {
		timestamp = float64(index) / s.meta.FPS
	}
	return &port.Frame{Index: index, Time: timestamp, Image: img}, true
}

func (s *Source) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
