package pipeline

import (
	"context"

	"github.com/khaledhikmat/dfd-go/model"
)

// FrameReader yields decoded frames in order. Read returns false once the
// stream is exhausted. The reader owns the frames it returns; a frame is only
// valid until the next Read or Close.
type FrameReader[F any] interface {
	Read() (F, bool)
	Close() error
}

// FrameSource opens a video file for reading.
type FrameSource[F any] interface {
	Open(path string) (FrameReader[F], error)
}

// FrameScorer preprocesses one frame and returns the model probability that
// the frame is synthetic.
type FrameScorer[F any] interface {
	Score(frame F) (float32, error)
}

// Analyzer is what the upload surface needs from an analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (model.AnalysisReport, error)
}

// FrameOutcome records what happened to one frame read from the video.
// Exactly one of Result and Err is set.
type FrameOutcome struct {
	FrameNumber int
	Result      *model.FrameResult
	Stage       string // preprocess or classify, set when skipped
	Err         error
}

func (o FrameOutcome) Skipped() bool {
	return o.Result == nil
}
