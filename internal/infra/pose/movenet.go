package pose

import (
	"fmt"
	"image"
	"os"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/daryalok/rehab-motion-ai/internal/domain/entity"
	"github.com/daryalok/rehab-motion-ai/internal/domain/port"
)

const (
	inputSize    = 192
	numKeypoints = 17
)

// cocoLandmarks maps MoveNet's COCO keypoint indices to the landmark subset
// the analysis reads; the remaining 8 model keypoints are ignored.
var cocoLandmarks = []struct {
	idx  int
	name string
}{
	{0, entity.LandmarkNose},
	{5, entity.LandmarkLeftShoulder},
	{6, entity.LandmarkRightShoulder},
	{11, entity.LandmarkLeftHip},
	{12, entity.LandmarkRightHip},
	{13, entity.LandmarkLeftKnee},
	{14, entity.LandmarkRightKnee},
	{15, entity.LandmarkLeftAnkle},
	{16, entity.LandmarkRightAnkle},
}

// Detector runs a MoveNet single-pose ONNX model. It is expensive to build
// and intended to live for the whole process; Detect is not safe for
// concurrent use, callers serialize.
type Detector struct {
	logger        *zap.Logger
	session       *ort.DynamicAdvancedSession
	inputShape    ort.Shape
	minConfidence float64
}

func NewDetector(modelPath string, minConfidence float64, logger *zap.Logger) (*Detector, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("pose model not found: %s", modelPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"output_0"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create pose session: %w", err)
	}

	logger.Info("pose landmarker initialized",
		zap.String("model", modelPath),
		zap.Float64("min_confidence", minConfidence),
	)

	return &Detector{
		logger:        logger.With(zap.String("component", "pose-detector")),
		session:       session,
		inputShape:    ort.NewShape(1, inputSize, inputSize, 3),
		minConfidence: minConfidence,
	}, nil
}

// Detect runs the model on one RGB frame. A frame where any required
// landmark scores below the confidence floor is reported as not detected,
// never as a partial set.
func (d *Detector) Detect(img image.Image) (port.Detection, error) {
	inputTensor, err := d.preprocess(img)
	if err != nil {
		return port.Detection{}, fmt.Errorf("preprocess frame: %w", err)
	}
	defer inputTensor.Destroy()

	// Output layout is [1,1,17,3]: normalized (y, x, score) per keypoint.
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1, numKeypoints, 3))
	if err != nil {
		return port.Detection{}, fmt.Errorf("create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	inputs := []ort.ArbitraryTensor{inputTensor}
	outputs := []ort.ArbitraryTensor{outputTensor}
	if err := d.session.Run(inputs, outputs); err != nil {
		return port.Detection{}, fmt.Errorf("pose inference: %w", err)
	}

	data := outputTensor.GetData()
	if len(data) < numKeypoints*3 {
		return port.Detection{}, fmt.Errorf("unexpected pose output length %d", len(data))
	}

	keypoints := make([]entity.Keypoint, 0, len(cocoLandmarks))
	for _, lm := range cocoLandmarks {
		y := float64(data[lm.idx*3])
		x := float64(data[lm.idx*3+1])
		score := float64(data[lm.idx*3+2])

		if score < d.minConfidence {
			return port.Detection{OK: false}, nil
		}
		keypoints = append(keypoints, entity.Keypoint{
			Name:       lm.name,
			X:          x,
			Y:          y,
			Z:          0,
			Visibility: score,
		})
	}

	return port.Detection{OK: true, Keypoints: keypoints}, nil
}

// preprocess resizes the frame to the model input and packs it as an RGB
// int32 tensor in [0,255].
func (d *Detector) preprocess(img image.Image) (*ort.Tensor[int32], error) {
	resized := resize.Resize(inputSize, inputSize, img, resize.Bilinear)

	data := make([]int32, inputSize*inputSize*3)
	bounds := resized.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			data[i] = int32(r >> 8)
			data[i+1] = int32(g >> 8)
			data[i+2] = int32(b >> 8)
			i += 3
		}
	}

	return ort.NewTensor(d.inputShape, data)
}

// Close releases the session and ONNX environment.
func (d *Detector) Close() error {
	d.logger.Info("closing pose session")
	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			return err
		}
	}
	return ort.DestroyEnvironment()
}
