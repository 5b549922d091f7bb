package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/dfd-go/api"
	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

// Server runs the HTTP surface and persists the stats and errors it
// produces until the context is cancelled.
func Server(canxCtx context.Context, svcs ServicesFactory, _ []string) error {
	// Create error and stats streams
	errorStream := make(chan interface{}, streamBuffer)
	statsStream := make(chan interface{}, streamBuffer)

	var sweepStream <-chan model.SweepStats
	if svcs.JanitorSvc != nil {
		stream, err := svcs.JanitorSvc.Subscribe()
		if err != nil {
			return err
		}
		sweepStream = stream
		defer svcs.JanitorSvc.Finalize()
	}

	server := api.NewServer(
		svcs.CfgSvc,
		svcs.NewAnalyzer(statsStream),
		svcs.StorageSvc,
		svcs.CacheSvc,
		statsStream,
		errorStream,
	)

	serverResult := make(chan error, 1)
	go func() {
		serverResult <- server.ListenAndServe(canxCtx)
	}()

	// Wait for cancellation, server exit, stats or errors
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"server mode context cancelled",
			)
			goto resume

		case err := <-serverResult:
			drain(svcs.DataSvc, statsStream, errorStream)
			return err

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)

		case s := <-sweepStream:
			procStats(svcs.DataSvc, s)
		}
	}

	// Keep storing stats and errors while in-flight requests finish
resume:
	lgr.Logger.Info(
		"server mode is waiting for in-flight requests",
	)

	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			lgr.Logger.Info(
				"server mode shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)
			drain(svcs.DataSvc, statsStream, errorStream)
			return nil

		case err := <-serverResult:
			drain(svcs.DataSvc, statsStream, errorStream)
			return err

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}
