package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dfd_frames_analyzed_total",
		Help: "Total number of frames classified across all analyses",
	})

	framesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dfd_frames_skipped_total",
		Help: "Total number of frames skipped, by failing stage",
	}, []string{"stage"})

	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dfd_analyses_total",
		Help: "Total number of video analyses, by outcome",
	}, []string{"result"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dfd_analysis_duration_seconds",
		Help:    "Duration of a full video analysis",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
)
