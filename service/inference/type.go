package inference

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/dfd-go/pipeline"
)

const (
	BackendONNX = "onnx"
	BackendFake = "fake"

	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// IService scores decoded BGR frames with the deepfake classifier.
// Implementations are safe for concurrent use.
type IService interface {
	pipeline.FrameScorer[gocv.Mat]
	InputSize() image.Point
	Close() error
}
