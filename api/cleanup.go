package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/pipeline"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

func (s *Server) cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := s.StorageSvc.Sweep(r.Context(), s.CfgSvc.GetCleanupMaxAge())

	pipeline.Publish(s.StatsStream, model.SweepStats{
		Trigger:   "http",
		Scanned:   result.Scanned,
		Deleted:   result.Deleted,
		Errors:    result.Errors,
		ProcTime:  result.Duration.Seconds(),
		Timestamp: time.Now().Unix(),
	})

	if err != nil {
		pipeline.Publish(s.ErrorStream, model.GenError("api_cleanup", err, map[string]interface{}{
			"deleted": result.Deleted,
			"errors":  result.Errors,
		}, "error during cleanup"))
		writeError(w, http.StatusInternalServerError, CodeCleanup, "Error during cleanup: "+err.Error())
		return
	}

	lgr.Logger.Info("cleanup completed",
		slog.Int("scanned", result.Scanned),
		slog.Int("deleted", result.Deleted),
	)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cleanup completed"})
}
