package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

type AnalyzerConfig struct {
	MaxFrames int
	// Detections receives one JSON line per finished analysis. Optional.
	Detections io.Writer
	// StatsStream receives a model.AnalysisStats per finished analysis.
	// Sends never block; stats are dropped when nobody is listening.
	StatsStream chan<- interface{}
}

// FrameAnalyzer runs the sampling loop over a frame source and reduces the
// outcome into a report. It holds no per-request state and can be shared.
type FrameAnalyzer[F any] struct {
	source FrameSource[F]
	scorer FrameScorer[F]
	cfg    AnalyzerConfig
	tracer trace.Tracer
}

func NewAnalyzer[F any](source FrameSource[F], scorer FrameScorer[F], cfg AnalyzerConfig) *FrameAnalyzer[F] {
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = DefaultMaxFrames
	}

	return &FrameAnalyzer[F]{
		source: source,
		scorer: scorer,
		cfg:    cfg,
		tracer: otel.Tracer("pipeline"),
	}
}

func (a *FrameAnalyzer[F]) Analyze(ctx context.Context, path string) (model.AnalysisReport, error) {
	ctx, span := a.tracer.Start(ctx, "FrameAnalyzer.Analyze",
		trace.WithAttributes(attribute.String("video.path", path)))
	defer span.End()

	start := time.Now()
	id := uuid.NewString()

	report, outcomes, err := a.run(ctx, path)
	analysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		analysesTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		lgr.Logger.Error(
			"error processing video",
			slog.String("id", id),
			slog.String("video", path),
			slog.Any("error", err),
		)
		return model.AnalysisReport{}, err
	}

	analysesTotal.WithLabelValues(report.Prediction()).Inc()
	span.SetAttributes(
		attribute.Int("frames.read", report.FramesRead),
		attribute.Int("frames.analyzed", report.FramesAnalyzed),
		attribute.Int("frames.skipped", report.FramesSkipped),
		attribute.String("prediction", report.Prediction()),
	)

	lgr.Logger.Info(
		"video analyzed",
		slog.String("id", id),
		slog.String("video", filepath.Base(path)),
		slog.String("prediction", report.Prediction()),
		slog.Float64("confidence", report.Confidence),
		slog.Int("framesAnalyzed", report.FramesAnalyzed),
		slog.Int("framesSkipped", report.FramesSkipped),
	)

	if a.cfg.Detections != nil {
		if err := writeDetection(a.cfg.Detections, id, path, report, outcomes); err != nil {
			lgr.Logger.Warn("error writing detection log", slog.Any("error", err))
		}
	}

	a.emit(model.AnalysisStats{
		ID:             id,
		Video:          filepath.Base(path),
		FramesRead:     report.FramesRead,
		FramesAnalyzed: report.FramesAnalyzed,
		FramesSkipped:  report.FramesSkipped,
		Prediction:     report.Prediction(),
		Confidence:     report.Confidence,
		ProcTime:       time.Since(start).Seconds(),
	})

	return report, nil
}

func (a *FrameAnalyzer[F]) run(ctx context.Context, path string) (model.AnalysisReport, []FrameOutcome, error) {
	reader, err := a.source.Open(path)
	if err != nil {
		return model.AnalysisReport{}, nil, err
	}
	// The decoder is released whichever way sampling ends.
	defer func() {
		if err := reader.Close(); err != nil {
			lgr.Logger.Warn("error releasing video", slog.String("video", path), slog.Any("error", err))
		}
	}()

	_, span := a.tracer.Start(ctx, "FrameAnalyzer.sample")
	outcomes, err := Sample(ctx, reader, a.scorer, a.cfg.MaxFrames)
	span.End()
	if err != nil {
		return model.AnalysisReport{}, outcomes, err
	}

	results := make([]model.FrameResult, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Skipped() {
			results = append(results, *o.Result)
		}
	}

	report, err := Aggregate(results)
	if err != nil {
		return model.AnalysisReport{}, outcomes, xerrors.Errorf("analyzing %s: %w", filepath.Base(path), err)
	}

	report.FramesRead = len(outcomes)
	report.FramesSkipped = len(outcomes) - len(results)
	return report, outcomes, nil
}

// Publish forwards a stats or error record without blocking the caller.
func Publish(stream chan<- interface{}, record interface{}) {
	if stream == nil {
		return
	}
	select {
	case stream <- record:
	default:
		lgr.Logger.Warn("stream full, dropping record")
	}
}

func (a *FrameAnalyzer[F]) emit(stats model.AnalysisStats) {
	stats.Timestamp = time.Now().Unix()
	Publish(a.cfg.StatsStream, stats)
}
