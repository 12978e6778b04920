package entity

// Landmark names reported by the pose detector. The detector may know more
// points than these; the analysis only ever reads this fixed subset.
const (
	LandmarkNose          = "nose"
	LandmarkLeftShoulder  = "left_shoulder"
	LandmarkRightShoulder = "right_shoulder"
	LandmarkLeftHip       = "left_hip"
	LandmarkRightHip      = "right_hip"
	LandmarkLeftKnee      = "left_knee"
	LandmarkRightKnee     = "right_knee"
	LandmarkLeftAnkle     = "left_ankle"
	LandmarkRightAnkle    = "right_ankle"
)

// LandmarkNames lists all tracked landmarks in report order.
var LandmarkNames = []string{
	LandmarkNose,
	LandmarkLeftShoulder,
	LandmarkRightShoulder,
	LandmarkLeftHip,
	LandmarkRightHip,
	LandmarkLeftKnee,
	LandmarkRightKnee,
	LandmarkLeftAnkle,
	LandmarkRightAnkle,
}

const (
	SideLeft  = "left"
	SideRight = "right"
)

// Key moment phases.
const (
	MomentNeutral  = "neutral"
	MomentPeak     = "peak"
	MomentRecovery = "recovery"
)

// Analysis outcome messages.
const (
	MsgNoPoseData       = "No pose data available for analysis"
	MsgInsufficientData = "Insufficient data for analysis"
	MsgNoCompensation   = "No significant compensation detected"
)

// Keypoint is one named body landmark in a single frame. Coordinates are
// normalized fractions of frame width/height; Visibility is the detector
// confidence in [0,1].
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// FrameRecord is one sampled frame that carried a detection. Keypoints is
// always the complete landmark set; frames without a detection are never
// serialized.
type FrameRecord struct {
	Frame     int        `json:"frame"`
	Time      float64    `json:"time"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Keypoint returns the named landmark and whether it is present.
func (r FrameRecord) Keypoint(name string) (Keypoint, bool) {
	for _, kp := range r.Keypoints {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// Metrics are the session-level asymmetry aggregates.
type Metrics struct {
	AvgHipShift      float64 `json:"avg_hip_shift"`
	MaxHipShift      float64 `json:"max_hip_shift"`
	AvgKneeAsymmetry float64 `json:"avg_knee_asymmetry"`
	MaxKneeAsymmetry float64 `json:"max_knee_asymmetry"`
	CompensatingSide string  `json:"compensating_side"`
	ShiftDirection   string  `json:"shift_direction"`
}

// Analysis is the compensation verdict for one session.
type Analysis struct {
	CompensationDetected bool     `json:"compensation_detected"`
	KneeFlexionAngle     int      `json:"knee_flexion_angle,omitempty"`
	Message              string   `json:"message"`
	Recommendation       string   `json:"recommendation,omitempty"`
	CompensatingSide     string   `json:"compensating_side,omitempty"`
	ShiftDirection       string   `json:"shift_direction,omitempty"`
	Metrics              *Metrics `json:"metrics,omitempty"`
}

// KeyMoment is a selected timestamp with its rendered overlay image.
type KeyMoment struct {
	Time  float64 `json:"time"`
	Frame int     `json:"frame"`
	Label string  `json:"label"`
	Type  string  `json:"type"`
	Image string  `json:"image"`
}

// Report bundles everything one analysis invocation produces.
type Report struct {
	FPS           float64       `json:"fps"`
	TotalFrames   int           `json:"total_frames"`
	Duration      float64       `json:"duration"`
	KeypointsData []FrameRecord `json:"keypoints_data"`
	Analysis      Analysis      `json:"analysis"`
	KeyMoments    []KeyMoment   `json:"key_moments"`
	Degraded      bool          `json:"degraded,omitempty"`
}
