package model

import "errors"

// Sentinels for the analysis error taxonomy. Wrap them with context and
// compare with errors.Is.
var (
	ErrModelLoad      = errors.New("model load failed")
	ErrVideoOpen      = errors.New("could not open video file")
	ErrPreprocessing  = errors.New("error preprocessing frame")
	ErrClassification = errors.New("error classifying frame")
	ErrEmptyResult    = errors.New("no frames were successfully processed from the video")
	ErrValidation     = errors.New("invalid upload")
	ErrStorage        = errors.New("error saving file")
	ErrCleanup        = errors.New("error during cleanup")
)
