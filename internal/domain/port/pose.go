package port

import (
	"image"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
)

// Detection is the per-frame detector result. When OK is false the detector
// found no person and Keypoints is nil; when OK is true Keypoints is the
// complete landmark set, never a partial one.
type Detection struct {
	OK        bool
	Keypoints []entity.Keypoint
}

// PoseDetector turns one RGB frame into named body landmarks. An error means
// the detector failed on this frame only; callers treat it the same as a
// not-detected result.
type PoseDetector interface {
	Detect(img image.Image) (Detection, error)
	Close() error
}
