package pipeline

import (
	"github.com/khaledhikmat/dfd-go/model"
)

// FakeThreshold is the probability above which a frame is labeled fake.
const FakeThreshold = 0.5

// Label converts a raw model probability into a frame result. The reported
// confidence belongs to the predicted label, so it is never below 0.5.
func Label(frameNumber int, p float32) model.FrameResult {
	prob := float64(p)
	isDeepfake := prob > FakeThreshold

	confidence := prob
	if !isDeepfake {
		confidence = 1 - prob
	}

	return model.FrameResult{
		IsDeepfake:  isDeepfake,
		Confidence:  confidence,
		FrameNumber: frameNumber,
	}
}

// Aggregate reduces labeled frames into a report. A video is fake only when a
// strict majority of its frames are fake; an even split is real.
func Aggregate(results []model.FrameResult) (model.AnalysisReport, error) {
	if len(results) == 0 {
		return model.AnalysisReport{}, model.ErrEmptyResult
	}

	deepfakeFrames := 0
	totalConfidence := 0.0
	for _, r := range results {
		if r.IsDeepfake {
			deepfakeFrames++
		}
		totalConfidence += r.Confidence
	}

	total := len(results)
	details := make([]model.FrameResult, total)
	copy(details, results)

	return model.AnalysisReport{
		OverallResult:      float64(deepfakeFrames)/float64(total) > FakeThreshold,
		Confidence:         totalConfidence / float64(total),
		FramesAnalyzed:     total,
		DeepfakeFrameCount: deepfakeFrames,
		FrameDetails:       details,
	}, nil
}
