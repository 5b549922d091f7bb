package video

import (
	"gocv.io/x/gocv"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/pipeline"
)

// IService opens video files as sequential BGR frame readers.
type IService interface {
	pipeline.FrameSource[gocv.Mat]
	Probe(path string) (model.VideoInfo, error)
}
