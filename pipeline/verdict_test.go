package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dfd-go/model"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name       string
		p          float32
		isDeepfake bool
		confidence float64
	}{
		{name: "confident fake", p: 0.9, isDeepfake: true, confidence: 0.9},
		{name: "confident real", p: 0.1, isDeepfake: false, confidence: 0.9},
		{name: "threshold is real", p: 0.5, isDeepfake: false, confidence: 0.5},
		{name: "just above threshold", p: 0.51, isDeepfake: true, confidence: 0.51},
		{name: "certain real", p: 0, isDeepfake: false, confidence: 1},
		{name: "certain fake", p: 1, isDeepfake: true, confidence: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Label(7, tt.p)
			assert.Equal(t, tt.isDeepfake, r.IsDeepfake)
			assert.InDelta(t, tt.confidence, r.Confidence, 1e-6)
			assert.GreaterOrEqual(t, r.Confidence, 0.5)
			assert.Equal(t, 7, r.FrameNumber)
		})
	}
}

func TestAggregateScenario(t *testing.T) {
	results := []model.FrameResult{
		Label(1, 0.9),
		Label(2, 0.2),
		Label(3, 0.6),
	}

	report, err := Aggregate(results)
	require.NoError(t, err)

	assert.True(t, report.OverallResult)
	assert.Equal(t, "fake", report.Prediction())
	assert.Equal(t, 3, report.FramesAnalyzed)
	assert.Equal(t, 2, report.DeepfakeFrameCount)
	assert.InDelta(t, 0.7667, report.Confidence, 1e-4)

	require.Len(t, report.FrameDetails, 3)
	assert.Equal(t, []bool{true, false, true}, []bool{
		report.FrameDetails[0].IsDeepfake,
		report.FrameDetails[1].IsDeepfake,
		report.FrameDetails[2].IsDeepfake,
	})
	assert.InDelta(t, 0.8, report.FrameDetails[1].Confidence, 1e-6)
	assert.InDelta(t, 0.6, report.FrameDetails[2].Confidence, 1e-6)
}

func TestAggregateTieIsReal(t *testing.T) {
	report, err := Aggregate([]model.FrameResult{
		Label(1, 0.9),
		Label(2, 0.8),
		Label(3, 0.1),
		Label(4, 0.2),
	})
	require.NoError(t, err)

	assert.False(t, report.OverallResult)
	assert.Equal(t, "real", report.Prediction())
	assert.Equal(t, 2, report.DeepfakeFrameCount)
}

func TestAggregateInvariants(t *testing.T) {
	sequences := [][]float32{
		{0.99},
		{0.01},
		{0.3, 0.3, 0.3},
		{0.7, 0.2, 0.9, 0.4, 0.55},
		{0.6, 0.6, 0.1, 0.1, 0.1, 0.9},
	}

	for _, scores := range sequences {
		results := make([]model.FrameResult, len(scores))
		fakes := 0
		sum := 0.0
		for i, p := range scores {
			results[i] = Label(i+1, p)
			if results[i].IsDeepfake {
				fakes++
			}
			sum += results[i].Confidence
		}

		report, err := Aggregate(results)
		require.NoError(t, err)

		assert.Equal(t, len(scores), report.FramesAnalyzed)
		assert.Equal(t, len(report.FrameDetails), report.FramesAnalyzed)
		assert.Equal(t, fakes, report.DeepfakeFrameCount)
		assert.Equal(t, float64(fakes)/float64(len(scores)) > 0.5, report.OverallResult)
		// mean over every frame, regardless of label
		assert.InDelta(t, sum/float64(len(scores)), report.Confidence, 1e-9)
		assert.GreaterOrEqual(t, report.Confidence, 0.5)
		assert.LessOrEqual(t, report.Confidence, 1.0)
	}
}

func TestAggregateDoesNotAliasInput(t *testing.T) {
	results := []model.FrameResult{Label(1, 0.9)}
	report, err := Aggregate(results)
	require.NoError(t, err)

	results[0].IsDeepfake = false
	assert.True(t, report.FrameDetails[0].IsDeepfake)
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, model.ErrEmptyResult)
}
