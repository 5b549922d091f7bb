package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/khaledhikmat/dfd-go/model"
)

// NewDetectionsLog returns a rotated file that receives one JSON line per
// analysis.
func NewDetectionsLog(filename string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7,    // days
		Compress:   true, // compress old logs
	}
}

type skippedFrame struct {
	Frame int    `json:"frame"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type detectionEntry struct {
	Time           string         `json:"time"`
	ID             string         `json:"id"`
	Video          string         `json:"video"`
	Prediction     string         `json:"prediction"`
	Confidence     float64        `json:"confidence"`
	FramesRead     int            `json:"framesRead"`
	FramesAnalyzed int            `json:"framesAnalyzed"`
	DeepfakeFrames int            `json:"deepfakeFrames"`
	Skipped        []skippedFrame `json:"skipped,omitempty"`
}

func writeDetection(w io.Writer, id, video string, report model.AnalysisReport, outcomes []FrameOutcome) error {
	entry := detectionEntry{
		Time:           time.Now().Format(time.RFC3339),
		ID:             id,
		Video:          video,
		Prediction:     report.Prediction(),
		Confidence:     report.Confidence,
		FramesRead:     report.FramesRead,
		FramesAnalyzed: report.FramesAnalyzed,
		DeepfakeFrames: report.DeepfakeFrameCount,
	}
	for _, o := range outcomes {
		if o.Skipped() {
			entry.Skipped = append(entry.Skipped, skippedFrame{
				Frame: o.FrameNumber,
				Stage: o.Stage,
				Error: o.Err.Error(),
			})
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = w.Write(append(data, '\n'))
	return err
}
