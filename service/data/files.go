package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/config"
)

const (
	errorsFile        = "errors"
	analysisStatsFile = "analysis-stats"
	sweepStatsFile    = "sweep-stats"
)

type filesDBService struct {
	folder string
	mu     sync.Mutex
}

// NewFilesDB keeps each entity kind as a JSON array in its own file under
// the settings folder.
func NewFilesDB(cfgsvc config.IService) (IService, error) {
	folder := cfgsvc.GetSettingsFolder()
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("creating settings folder %s: %w", folder, err)
	}

	return &filesDBService{
		folder: folder,
	}, nil
}

func (svc *filesDBService) RetrieveAnalysisStats(max int) ([]model.AnalysisStats, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return retrieveLatest[model.AnalysisStats](svc.folder, analysisStatsFile, max)
}

func (svc *filesDBService) RetrieveSweepStats(max int) ([]model.SweepStats, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return retrieveLatest[model.SweepStats](svc.folder, sweepStatsFile, max)
}

func (svc *filesDBService) RetrieveErrors(max int) ([]ErrorRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return retrieveLatest[ErrorRecord](svc.folder, errorsFile, max)
}

func (svc *filesDBService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	switch e := err.(type) {
	case model.CustomError:
		customErr = e
	case error:
		customErr.Component = "N/A"
		customErr.Inner = e
		customErr.Message = e.Error()
		customErr.StackTrace = "N/A"
	default:
		return fmt.Errorf("unsupported error value %T", err)
	}

	record := ErrorRecord{
		Timestamp:  time.Now().Unix(),
		Component:  customErr.Component,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}
	if customErr.Inner != nil {
		record.Inner = customErr.Inner.Error()
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	return newEntity(record, svc.folder, errorsFile)
}

func (svc *filesDBService) NewAnalysisStats(stats model.AnalysisStats) error {
	if stats.Timestamp == 0 {
		stats.Timestamp = time.Now().Unix()
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	return newEntity(stats, svc.folder, analysisStatsFile)
}

func (svc *filesDBService) NewSweepStats(stats model.SweepStats) error {
	if stats.Timestamp == 0 {
		stats.Timestamp = time.Now().Unix()
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	return newEntity(stats, svc.folder, sweepStatsFile)
}

func entityPath(folder, filename string) string {
	return filepath.Join(folder, filename+".json")
}

func newEntity[T any](entity T, folder, filename string) error {
	entities, err := retrieveEntities[T](folder, filename)
	if err != nil {
		return err
	}

	entities = append(entities, entity)

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}

	// Write the JSON data to the file (with truncation)
	return os.WriteFile(entityPath(folder, filename), data, 0o644)
}

func retrieveEntities[T any](folder, filename string) ([]T, error) {
	entities := []T{}

	data, err := os.ReadFile(entityPath(folder, filename))
	if errors.Is(err, os.ErrNotExist) {
		// WARNING: nothing stored yet, return empty slice
		return entities, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", entityPath(folder, filename), err)
	}

	return entities, nil
}

// retrieveLatest returns up to max of the most recently stored entities,
// newest first. A non-positive max returns all of them.
func retrieveLatest[T any](folder, filename string, max int) ([]T, error) {
	entities, err := retrieveEntities[T](folder, filename)
	if err != nil {
		return nil, err
	}

	if max <= 0 || max > len(entities) {
		max = len(entities)
	}

	latest := make([]T, 0, max)
	for i := len(entities) - 1; i >= 0 && len(latest) < max; i-- {
		latest = append(latest, entities[i])
	}
	return latest, nil
}
