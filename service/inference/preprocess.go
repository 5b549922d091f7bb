package inference

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/dfd-go/model"
)

// Preprocessor turns a BGR frame of any size into the classifier input:
// resized, RGB, scaled to [0,1], with a batch dimension of one.
type Preprocessor struct {
	Size   image.Point
	Layout string
}

func (p Preprocessor) Blob(frame gocv.Mat) (gocv.Mat, error) {
	if p.Layout == LayoutNCHW {
		if frame.Empty() {
			return gocv.NewMat(), fmt.Errorf("%w: empty frame", model.ErrPreprocessing)
		}

		blob := gocv.BlobFromImage(frame, 1.0/255.0, p.Size, gocv.NewScalar(0, 0, 0, 0), true, false)
		if blob.Empty() {
			blob.Close()
			return gocv.NewMat(), fmt.Errorf("%w: blob from image failed", model.ErrPreprocessing)
		}
		return blob, nil
	}

	normalized, err := p.Normalize(frame)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer normalized.Close()

	sizes := []int{1, p.Size.Y, p.Size.X, 3}
	blob, err := gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV32F, normalized.ToBytes())
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %w", model.ErrPreprocessing, err)
	}
	return blob, nil
}

// Normalize returns the resized RGB frame as a CV_32FC3 Mat with values in
// [0,1]. The caller closes it.
func (p Preprocessor) Normalize(frame gocv.Mat) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: empty frame", model.ErrPreprocessing)
	}
	if frame.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("%w: expected 3 channels, got %d", model.ErrPreprocessing, frame.Channels())
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(frame, &resized, p.Size, 0, 0, gocv.InterpolationLinear)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	normalized := gocv.NewMat()
	rgb.ConvertToWithParams(&normalized, gocv.MatTypeCV32FC3, 1.0/255.0, 0)
	if normalized.Empty() || normalized.Cols() != p.Size.X || normalized.Rows() != p.Size.Y {
		normalized.Close()
		return gocv.NewMat(), fmt.Errorf("%w: conversion failed", model.ErrPreprocessing)
	}

	return normalized, nil
}
