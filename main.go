package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"gocv.io/x/gocv"

	"github.com/khaledhikmat/dfd-go/mode"
	"github.com/khaledhikmat/dfd-go/pipeline"
	"github.com/khaledhikmat/dfd-go/service/cache"
	"github.com/khaledhikmat/dfd-go/service/config"
	"github.com/khaledhikmat/dfd-go/service/data"
	"github.com/khaledhikmat/dfd-go/service/inference"
	"github.com/khaledhikmat/dfd-go/service/janitor"
	"github.com/khaledhikmat/dfd-go/service/lgr"
	"github.com/khaledhikmat/dfd-go/service/storage"
	"github.com/khaledhikmat/dfd-go/service/tracing"
	"github.com/khaledhikmat/dfd-go/service/video"
)

var modeProcessors = map[string]mode.Processor{
	"server":  mode.Server,
	"analyze": mode.Analyze,
	"cleanup": mode.Cleanup,
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)
	defer canxFn()

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			lgr.Logger.Error("error loading .env file", slog.Any("error", xerrors.New(err.Error())))
			return 1
		}
	}

	modeType := "server"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
		args = args[1:]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		return 2
	}

	// Config service
	cfgSvc, err := config.NewEnv()
	if err != nil {
		lgr.Logger.Error("invalid configuration", slog.Any("error", xerrors.New(err.Error())))
		return 1
	}

	if err := lgr.Configure(cfgSvc.GetLogFormat(), cfgSvc.GetLogLevel(), cfgSvc.GetLogFile()); err != nil {
		lgr.Logger.Error("invalid logging configuration", slog.Any("error", xerrors.New(err.Error())))
		return 1
	}

	shutdownTracing, err := tracing.Init(canxCtx, cfgSvc)
	if err != nil {
		lgr.Logger.Error("error initializing tracing", slog.Any("error", xerrors.New(err.Error())))
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(rootCtx, time.Duration(cfgSvc.GetModeMaxShutdownTime())*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			lgr.Logger.Warn("error flushing traces", slog.Any("error", err))
		}
	}()

	// Data service
	dataSvc, err := data.NewFilesDB(cfgSvc)
	if err != nil {
		lgr.Logger.Error("error creating data service", slog.Any("error", xerrors.New(err.Error())))
		return 1
	}

	// Storage service
	storageSvc, err := storage.NewLocal(cfgSvc)
	if err != nil {
		lgr.Logger.Error("error creating storage service", slog.Any("error", xerrors.New(err.Error())))
		return 1
	}

	svcs := mode.ServicesFactory{
		CfgSvc:     cfgSvc,
		DataSvc:    dataSvc,
		StorageSvc: storageSvc,
		CacheSvc:   cache.New(cfgSvc),
	}

	if cfgSvc.GetCleanupSchedule() != "" {
		svcs.JanitorSvc = janitor.NewCron(canxCtx, cfgSvc, storageSvc)
	}

	// The model is only needed by the modes that analyze videos
	if modeType != "cleanup" {
		inferenceSvc, err := newInference(cfgSvc)
		if err != nil {
			lgr.Logger.Error("error loading deepfake model", slog.Any("error", xerrors.New(err.Error())))
			return 1
		}
		defer inferenceSvc.Close()
		size := inferenceSvc.InputSize()
		lgr.Logger.Info("deepfake model ready",
			slog.String("backend", cfgSvc.GetModelParameters().Backend),
			slog.Int("inputWidth", size.X),
			slog.Int("inputHeight", size.Y),
		)

		detections := newDetectionsLog(cfgSvc)
		defer detections.Close()

		videoSvc := video.NewGoCV()
		svcs.ProbeVideo = videoSvc.Probe
		svcs.NewAnalyzer = func(statsStream chan<- interface{}) pipeline.Analyzer {
			return pipeline.NewAnalyzer[gocv.Mat](videoSvc, inferenceSvc, pipeline.AnalyzerConfig{
				MaxFrames:   cfgSvc.GetModelParameters().MaxFrames,
				Detections:  detections,
				StatsStream: statsStream,
			})
		}
	}

	if err := modeProc(canxCtx, svcs, args); err != nil {
		lgr.Logger.Error(
			"mode processor exited",
			slog.String("mode", modeType),
			slog.Any("error", xerrors.New(err.Error())),
		)
		return 1
	}

	return 0
}

func newInference(cfgSvc config.IService) (inference.IService, error) {
	switch backend := cfgSvc.GetModelParameters().Backend; backend {
	case inference.BackendONNX:
		return inference.NewONNX(cfgSvc)
	case inference.BackendFake:
		lgr.Logger.Warn("using the fake deepfake model, verdicts are not meaningful")
		return inference.NewFake(cfgSvc), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", backend)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

func newDetectionsLog(cfgSvc config.IService) io.WriteCloser {
	if cfgSvc.GetDetectionsLog() == "" {
		return nopCloser{io.Discard}
	}
	return pipeline.NewDetectionsLog(cfgSvc.GetDetectionsLog())
}
