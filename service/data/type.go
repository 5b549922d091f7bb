package data

import "github.com/khaledhikmat/dfd-go/model"

type IService interface {
	RetrieveAnalysisStats(max int) ([]model.AnalysisStats, error)
	RetrieveSweepStats(max int) ([]model.SweepStats, error)
	RetrieveErrors(max int) ([]ErrorRecord, error)

	NewError(err interface{}) error
	NewAnalysisStats(stats model.AnalysisStats) error
	NewSweepStats(stats model.SweepStats) error
}

// ErrorRecord is the persisted form of a captured error.
type ErrorRecord struct {
	Timestamp  int64                  `json:"timestamp"`
	Component  string                 `json:"component"`
	Inner      string                 `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}
