package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/config"
	"github.com/khaledhikmat/dfd-go/service/lgr"
	"github.com/khaledhikmat/dfd-go/service/storage"
)

// Accepts both the 5-field and the 6-field (leading seconds) forms, plus
// descriptors such as @hourly and @every 10m.
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type cronService struct {
	CanxCtx      context.Context
	SubsCtx      context.Context
	SubsCancel   context.CancelFunc
	StatsChannel chan model.SweepStats
	StorageSvc   storage.IService
	Schedule     string
	MaxAge       time.Duration
	Cron         *cron.Cron
}

func NewCron(canxCtx context.Context, cfgSvc config.IService, storageSvc storage.IService) IService {
	return &cronService{
		CanxCtx:    canxCtx,
		StorageSvc: storageSvc,
		Schedule:   cfgSvc.GetCleanupSchedule(),
		MaxAge:     cfgSvc.GetCleanupMaxAge(),
	}
}

func (svc *cronService) Subscribe() (<-chan model.SweepStats, error) {
	if svc.SubsCtx != nil {
		return nil, xerrors.New("janitor cron service. already subscribed. Unsubscribe first")
	}

	if svc.StatsChannel == nil {
		svc.StatsChannel = make(chan model.SweepStats, 1)
	}

	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(cronLogger{}),
		// Prevent overlapping sweeps
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)

	subsContext, subsCancel := context.WithCancel(svc.CanxCtx)
	if _, err := c.AddFunc(svc.Schedule, func() { svc.sweep(subsContext) }); err != nil {
		subsCancel()
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", svc.Schedule, err)
	}

	svc.SubsCtx = subsContext
	svc.SubsCancel = subsCancel
	svc.Cron = c
	c.Start()

	lgr.Logger.Info("janitor scheduled",
		slog.String("schedule", svc.Schedule),
		slog.Duration("maxAge", svc.MaxAge),
		slog.String("folder", svc.StorageSvc.Dir()),
	)

	return svc.StatsChannel, nil
}

func (svc *cronService) Unsubscribe() error {
	if svc.SubsCtx == nil {
		return xerrors.New("janitor cron service. not subscribed yet. Subscribe first")
	}

	svc.cleanup()
	return nil
}

func (svc *cronService) Finalize() {
	svc.cleanup()
	if svc.StatsChannel != nil {
		close(svc.StatsChannel)
		svc.StatsChannel = nil
	}
}

func (svc *cronService) sweep(ctx context.Context) {
	result, err := svc.StorageSvc.Sweep(ctx, svc.MaxAge)
	if err != nil {
		lgr.Logger.Error("scheduled cleanup failed", slog.Any("error", err))
	}

	stats := model.SweepStats{
		Trigger:   "cron",
		Scanned:   result.Scanned,
		Deleted:   result.Deleted,
		Errors:    result.Errors,
		ProcTime:  result.Duration.Seconds(),
		Timestamp: time.Now().Unix(),
	}

	select {
	case <-ctx.Done():
	case svc.StatsChannel <- stats:
	default:
		lgr.Logger.Warn("janitor stats channel full, dropping stats")
	}
}

func (svc *cronService) cleanup() {
	if svc.Cron != nil {
		// Wait for a running sweep before the channel can be closed.
		<-svc.Cron.Stop().Done()
		svc.Cron = nil
	}
	if svc.SubsCancel != nil {
		svc.SubsCancel()
		svc.SubsCtx = nil
		svc.SubsCancel = nil
	}
}

// cronLogger routes cron's own logging through lgr.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	lgr.Logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	lgr.Logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
