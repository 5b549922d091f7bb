package pipeline

import (
	"fmt"

	"github.com/khaledhikmat/dfd-go/model"
)

type testFrame struct {
	index int
}

type testReader struct {
	total  int
	read   int
	closed bool
}

func (r *testReader) Read() (testFrame, bool) {
	if r.read >= r.total {
		return testFrame{}, false
	}
	r.read++
	return testFrame{index: r.read}, true
}

func (r *testReader) Close() error {
	r.closed = true
	return nil
}

type testSource struct {
	reader  *testReader
	openErr error
}

func (s *testSource) Open(path string) (FrameReader[testFrame], error) {
	if s.openErr != nil {
		return nil, fmt.Errorf("%w: %s", s.openErr, path)
	}
	return s.reader, nil
}

// testScorer returns scores[i-1] for frame i, repeating the last score when
// the video is longer than the script. Frames listed in fail are rejected.
type testScorer struct {
	scores []float32
	fail   map[int]error
	panics map[int]bool
	calls  int
}

func (s *testScorer) Score(frame testFrame) (float32, error) {
	s.calls++
	if s.panics[frame.index] {
		panic("corrupt frame")
	}
	if err, ok := s.fail[frame.index]; ok {
		return 0, err
	}
	if frame.index-1 < len(s.scores) {
		return s.scores[frame.index-1], nil
	}
	return s.scores[len(s.scores)-1], nil
}

var (
	errBadFrame = fmt.Errorf("%w: resize failed", model.ErrPreprocessing)
	errBadNet   = fmt.Errorf("%w: forward failed", model.ErrClassification)
)
