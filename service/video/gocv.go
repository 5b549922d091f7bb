package video

import (
	"errors"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/pipeline"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

type gocvService struct {
}

func NewGoCV() IService {
	lgr.Logger.Info("video decoder ready", slog.String("openCV", gocv.Version()))
	return &gocvService{}
}

func (svc *gocvService) Open(path string) (pipeline.FrameReader[gocv.Mat], error) {
	capture, err := open(path)
	if err != nil {
		return nil, err
	}

	return &matReader{
		capture: capture,
		frame:   gocv.NewMat(),
	}, nil
}

func (svc *gocvService) Probe(path string) (model.VideoInfo, error) {
	capture, err := open(path)
	if err != nil {
		return model.VideoInfo{}, err
	}
	defer capture.Close()

	return model.VideoInfo{
		Frames: int(capture.Get(gocv.VideoCaptureFrameCount)),
		FPS:    capture.Get(gocv.VideoCaptureFPS),
		Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

func open(path string) (*gocv.VideoCapture, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrVideoOpen, path, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", model.ErrVideoOpen, path)
	}

	return capture, nil
}

// matReader decodes into a single Mat that is overwritten on every Read.
type matReader struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	done    bool
}

func (r *matReader) Read() (gocv.Mat, bool) {
	if r.done {
		return r.frame, false
	}

	if ok := r.capture.Read(&r.frame); !ok {
		r.done = true
		return r.frame, false
	}

	return r.frame, true
}

func (r *matReader) Close() error {
	return errors.Join(r.frame.Close(), r.capture.Close())
}
