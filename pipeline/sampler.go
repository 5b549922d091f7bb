package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

// DefaultMaxFrames caps how many frames are read from one video.
const DefaultMaxFrames = 100

const (
	StagePreprocess = "preprocess"
	StageClassify   = "classify"
)

// Sample reads at most maxFrames frames from reader and scores each one.
// Frames that fail to score are recorded as skipped and do not stop the run.
// Sample does not close the reader.
func Sample[F any](ctx context.Context, reader FrameReader[F], scorer FrameScorer[F], maxFrames int) ([]FrameOutcome, error) {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}

	outcomes := make([]FrameOutcome, 0, maxFrames)
	for frameNumber := 1; frameNumber <= maxFrames; frameNumber++ {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		frame, ok := reader.Read()
		if !ok {
			break
		}

		p, err := score(scorer, frame)
		if err != nil {
			stage := StageClassify
			if errors.Is(err, model.ErrPreprocessing) {
				stage = StagePreprocess
			}

			lgr.Logger.Warn(
				"skipping frame",
				slog.Int("frame", frameNumber),
				slog.String("stage", stage),
				slog.Any("error", err),
			)
			framesSkippedTotal.WithLabelValues(stage).Inc()

			outcomes = append(outcomes, FrameOutcome{
				FrameNumber: frameNumber,
				Stage:       stage,
				Err:         err,
			})
			continue
		}

		result := Label(frameNumber, p)
		framesAnalyzedTotal.Inc()
		outcomes = append(outcomes, FrameOutcome{
			FrameNumber: frameNumber,
			Result:      &result,
		})
	}

	return outcomes, nil
}

// score turns a scorer panic into a classification error so one bad frame
// cannot take the request down.
func score[F any](scorer FrameScorer[F], frame F) (p float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: recovered from panic: %v", model.ErrClassification, r)
		}
	}()

	p, err = scorer.Score(frame)
	if err == nil && (math.IsNaN(float64(p)) || p < 0 || p > 1) {
		err = fmt.Errorf("%w: probability %v outside [0,1]", model.ErrClassification, p)
	}
	return p, err
}
