package mode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/khaledhikmat/dfd-go/model"
)

// Cleanup runs a single sweep of the uploads folder and prints its stats.
func Cleanup(canxCtx context.Context, svcs ServicesFactory, _ []string) error {
	result, err := svcs.StorageSvc.Sweep(canxCtx, svcs.CfgSvc.GetCleanupMaxAge())

	stats := model.SweepStats{
		Trigger:   "cli",
		Scanned:   result.Scanned,
		Deleted:   result.Deleted,
		Errors:    result.Errors,
		ProcTime:  result.Duration.Seconds(),
		Timestamp: time.Now().Unix(),
	}
	procStats(svcs.DataSvc, stats)

	if err != nil {
		procError(svcs.DataSvc, model.GenError("mode_cleanup", err, nil, "error during cleanup"))
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
