package mode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

// Analyze runs the pipeline on one local video and prints the report.
func Analyze(canxCtx context.Context, svcs ServicesFactory, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: analyze <video file>")
	}
	path := args[0]

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %w", model.ErrVideoOpen, err)
	}

	if svcs.ProbeVideo != nil {
		info, err := svcs.ProbeVideo(path)
		if err != nil {
			return err
		}
		lgr.Logger.Info("video opened",
			slog.String("video", path),
			slog.Int("frames", info.Frames),
			slog.Float64("fps", info.FPS),
			slog.Int("width", info.Width),
			slog.Int("height", info.Height),
		)
	}

	errorStream := make(chan interface{}, streamBuffer)
	statsStream := make(chan interface{}, streamBuffer)
	defer drain(svcs.DataSvc, statsStream, errorStream)

	ctx := canxCtx
	if timeout := svcs.CfgSvc.GetAnalysisTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(canxCtx, timeout)
		defer cancel()
	}

	report, err := svcs.NewAnalyzer(statsStream).Analyze(ctx, path)
	if err != nil {
		errorStream <- model.GenError("mode_analyze", err, map[string]interface{}{
			"video": path,
		}, "error processing video")
		return err
	}

	lgr.Logger.Debug("analysis report", slog.String("video", path), slog.String("prediction", report.Prediction()))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
