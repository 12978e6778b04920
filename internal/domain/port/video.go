package port

import "image"

// VideoMetadata is read once from the container when a source is opened.
type VideoMetadata struct {
	FPS         float64
	TotalFrames int
	Width       int
	Height      int
}

// Duration is TotalFrames/FPS, or 0 when the container reports no frame rate.
func (m VideoMetadata) Duration() float64 {
	if m.FPS <= 0 {
		return 0
	}
	return float64(m.TotalFrames) / m.FPS
}

// Frame is one decoded frame. Time is Index divided by the source frame
// rate, 0 when the rate is unreported.
type Frame struct {
	Index int
	Time  float64
	Image image.Image
}

// VideoSource is a sequentially-decodable, seekable video handle. Next and
// Seek report false at end of stream or on a decode failure; a mid-stream
// decode failure is indistinguishable from end of stream on purpose, so
// truncated files degrade to shorter sessions instead of errors.
type VideoSource interface {
	Metadata() VideoMetadata
	Next() (*Frame, bool)
	Seek(frameIndex int) (*Frame, bool)
	Close() error
}

// VideoOpener opens a video file. Open failure is the only fatal error in
// the analysis pipeline.
type VideoOpener interface {
	Open(path string) (VideoSource, error)
}
