package mode

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/pipeline"
	"github.com/khaledhikmat/dfd-go/service/cache"
	"github.com/khaledhikmat/dfd-go/service/config"
	"github.com/khaledhikmat/dfd-go/service/data"
	"github.com/khaledhikmat/dfd-go/service/janitor"
	"github.com/khaledhikmat/dfd-go/service/lgr"
	"github.com/khaledhikmat/dfd-go/service/storage"
)

// AnalyzerFactory builds the analysis pipeline around the loaded model. The
// analyzer reports a model.AnalysisStats on statsStream per finished video.
type AnalyzerFactory func(statsStream chan<- interface{}) pipeline.Analyzer

// ServicesFactory carries the services built once in main.
type ServicesFactory struct {
	CfgSvc     config.IService
	DataSvc    data.IService
	StorageSvc storage.IService
	CacheSvc   cache.IService
	// JanitorSvc is nil when no cleanup schedule is configured.
	JanitorSvc  janitor.IService
	NewAnalyzer AnalyzerFactory
	// ProbeVideo is nil in modes that never decode video.
	ProbeVideo func(path string) (model.VideoInfo, error)
}

type Processor func(canxCtx context.Context, svcs ServicesFactory, args []string) error

// Where one-shot modes print their results.
var stdout io.Writer = os.Stdout

const streamBuffer = 100

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.AnalysisStats:
		procAnalysisStats(datasvc, stats)
	case model.SweepStats:
		procSweepStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procAnalysisStats(datasvc data.IService, stats model.AnalysisStats) {
	err := datasvc.NewAnalysisStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store analysis stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procSweepStats(datasvc data.IService, stats model.SweepStats) {
	err := datasvc.NewSweepStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store sweep stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}

// drain stores whatever is already buffered on the streams.
func drain(datasvc data.IService, statsStream, errorStream chan interface{}) {
	for {
		select {
		case s := <-statsStream:
			procStats(datasvc, s)
		case e := <-errorStream:
			procError(datasvc, e)
		default:
			return
		}
	}
}
