package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dfd-go/model"
)

func TestAnalyzeScenario(t *testing.T) {
	reader := &testReader{total: 3}
	source := &testSource{reader: reader}
	scorer := &testScorer{scores: []float32{0.9, 0.2, 0.6}}

	var detections bytes.Buffer
	stats := make(chan interface{}, 1)
	analyzer := NewAnalyzer[testFrame](source, scorer, AnalyzerConfig{
		Detections:  &detections,
		StatsStream: stats,
	})

	report, err := analyzer.Analyze(context.Background(), "/tmp/uploads/clip.mp4")
	require.NoError(t, err)

	assert.True(t, report.OverallResult)
	assert.Equal(t, 3, report.FramesAnalyzed)
	assert.Equal(t, 3, report.FramesRead)
	assert.Equal(t, 0, report.FramesSkipped)
	assert.Equal(t, 2, report.DeepfakeFrameCount)
	assert.InDelta(t, 0.7667, report.Confidence, 1e-4)
	assert.True(t, reader.closed)

	var entry detectionEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(detections.Bytes()), &entry))
	assert.Equal(t, "fake", entry.Prediction)
	assert.Equal(t, "/tmp/uploads/clip.mp4", entry.Video)
	assert.Equal(t, 2, entry.DeepfakeFrames)

	select {
	case s := <-stats:
		st, ok := s.(model.AnalysisStats)
		require.True(t, ok)
		assert.Equal(t, "clip.mp4", st.Video)
		assert.Equal(t, 3, st.FramesAnalyzed)
		assert.Equal(t, "fake", st.Prediction)
		assert.NotEmpty(t, st.ID)
	default:
		t.Fatal("expected analysis stats")
	}
}

func TestAnalyzeCountsSkippedFrames(t *testing.T) {
	reader := &testReader{total: 4}
	scorer := &testScorer{
		scores: []float32{0.9, 0.1, 0.1, 0.9},
		fail:   map[int]error{1: errBadFrame},
	}

	var detections bytes.Buffer
	analyzer := NewAnalyzer[testFrame](&testSource{reader: reader}, scorer, AnalyzerConfig{Detections: &detections})

	report, err := analyzer.Analyze(context.Background(), "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, 4, report.FramesRead)
	assert.Equal(t, 3, report.FramesAnalyzed)
	assert.Equal(t, 1, report.FramesSkipped)
	assert.Equal(t, 1, report.DeepfakeFrameCount)
	assert.False(t, report.OverallResult)
	assert.Equal(t, []int{2, 3, 4}, []int{
		report.FrameDetails[0].FrameNumber,
		report.FrameDetails[1].FrameNumber,
		report.FrameDetails[2].FrameNumber,
	})

	var entry detectionEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(detections.Bytes()), &entry))
	require.Len(t, entry.Skipped, 1)
	assert.Equal(t, 1, entry.Skipped[0].Frame)
	assert.Equal(t, StagePreprocess, entry.Skipped[0].Stage)
}

func TestAnalyzeAnalysesOnlyFirstHundredFrames(t *testing.T) {
	reader := &testReader{total: 180}
	analyzer := NewAnalyzer[testFrame](&testSource{reader: reader}, &testScorer{scores: []float32{0.2}}, AnalyzerConfig{})

	report, err := analyzer.Analyze(context.Background(), "long.mp4")
	require.NoError(t, err)

	assert.Equal(t, 100, report.FramesAnalyzed)
	assert.Equal(t, 100, report.FrameDetails[99].FrameNumber)
	assert.Equal(t, 100, reader.read)
}

func TestAnalyzeAllFramesFail(t *testing.T) {
	reader := &testReader{total: 2}
	scorer := &testScorer{
		scores: []float32{0.9},
		fail:   map[int]error{1: errBadFrame, 2: errBadNet},
	}
	analyzer := NewAnalyzer[testFrame](&testSource{reader: reader}, scorer, AnalyzerConfig{})

	report, err := analyzer.Analyze(context.Background(), "broken.mp4")

	assert.ErrorIs(t, err, model.ErrEmptyResult)
	assert.Zero(t, report.FramesAnalyzed)
	assert.True(t, reader.closed)
}

func TestAnalyzeEmptyVideo(t *testing.T) {
	reader := &testReader{total: 0}
	analyzer := NewAnalyzer[testFrame](&testSource{reader: reader}, &testScorer{scores: []float32{0.9}}, AnalyzerConfig{})

	_, err := analyzer.Analyze(context.Background(), "empty.mp4")

	assert.ErrorIs(t, err, model.ErrEmptyResult)
	assert.True(t, reader.closed)
}

func TestAnalyzeOpenFailure(t *testing.T) {
	source := &testSource{openErr: model.ErrVideoOpen}
	analyzer := NewAnalyzer[testFrame](source, &testScorer{scores: []float32{0.9}}, AnalyzerConfig{})

	_, err := analyzer.Analyze(context.Background(), "missing.mp4")

	require.ErrorIs(t, err, model.ErrVideoOpen)
	assert.Contains(t, err.Error(), "missing.mp4")
}

func TestAnalyzeReleasesReaderOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &testReader{total: 5}
	analyzer := NewAnalyzer[testFrame](&testSource{reader: reader}, &testScorer{scores: []float32{0.9}}, AnalyzerConfig{})

	_, err := analyzer.Analyze(ctx, "clip.mp4")

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, reader.closed)
}

func TestPublishDoesNotBlock(t *testing.T) {
	stream := make(chan interface{})
	Publish(stream, model.SweepStats{})
	Publish(nil, model.SweepStats{})
}
