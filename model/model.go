package model

import (
	"fmt"
	"runtime/debug"
)

type CustomError struct {
	Component  string                 `json:"component"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(component string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Component:  component,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// FrameResult is the classification of one decoded frame.
// Confidence is the probability of the predicted label, never of "fake" itself.
type FrameResult struct {
	IsDeepfake  bool    `json:"is_deepfake"`
	Confidence  float64 `json:"confidence"`
	FrameNumber int     `json:"frame_number"`
}

type AnalysisReport struct {
	OverallResult      bool          `json:"overall_result"`
	Confidence         float64       `json:"confidence"`
	FramesAnalyzed     int           `json:"frames_analyzed"`
	DeepfakeFrameCount int           `json:"deepfake_frame_count"`
	FrameDetails       []FrameResult `json:"frame_details"`
	FramesRead         int           `json:"frames_read"`
	FramesSkipped      int           `json:"frames_skipped"`
}

// Prediction maps the overall verdict to the label used on the wire.
func (r AnalysisReport) Prediction() string {
	if r.OverallResult {
		return "fake"
	}
	return "real"
}

type AnalysisStats struct {
	ID             string  `json:"id"`
	Video          string  `json:"video"`
	FramesRead     int     `json:"framesRead"`
	FramesAnalyzed int     `json:"framesAnalyzed"`
	FramesSkipped  int     `json:"framesSkipped"`
	Prediction     string  `json:"prediction"`
	Confidence     float64 `json:"confidence"`
	Cached         bool    `json:"cached"`
	ProcTime       float64 `json:"procTime"` // seconds
	Timestamp      int64   `json:"timestamp"`
}

type SweepStats struct {
	Trigger   string  `json:"trigger"` // http, cron or cli
	Scanned   int     `json:"scanned"`
	Deleted   int     `json:"deleted"`
	Errors    int     `json:"errors"`
	ProcTime  float64 `json:"procTime"`
	Timestamp int64   `json:"timestamp"`
}

// VideoInfo is container metadata read without decoding frames.
type VideoInfo struct {
	Frames int     `json:"frames"`
	FPS    float64 `json:"fps"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}
