package analysis

import "github.com/daryalok/rehab-motion-ai/internal/domain/port"

// FrameSampler pulls frames from a video source and emits every strideth
// one. The sequence is lazy, finite and non-restartable; it ends when the
// source stops producing frames.
type FrameSampler struct {
	src     port.VideoSource
	stride  int
	sampled int
}

func NewFrameSampler(src port.VideoSource, stride int) *FrameSampler {
	if stride < 1 {
		stride = 1
	}
	return &FrameSampler{src: src, stride: stride}
}

// Next returns the next sampled frame, or false at end of stream.
func (s *FrameSampler) Next() (*port.Frame, bool) {
	for {
		frame, ok := s.src.Next()
		if !ok {
			return nil, false
		}
		if frame.Index%s.stride != 0 {
			continue
		}
		s.sampled++
		return frame, true
	}
}

// Sampled reports how many frames have been emitted so far.
func (s *FrameSampler) Sampled() int {
	return s.sampled
}
