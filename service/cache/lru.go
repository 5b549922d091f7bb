package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/config"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dfd_report_cache_hits_total",
		Help: "Analysis reports served from the cache",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dfd_report_cache_misses_total",
		Help: "Analysis report cache misses",
	})
)

type lruService struct {
	cache *expirable.LRU[string, model.AnalysisReport]
}

// New returns an expirable LRU sized from the configuration, or a cache that
// never hits when CACHE_SIZE is zero.
func New(cfgsvc config.IService) IService {
	if cfgsvc.GetCacheSize() <= 0 {
		return &noopService{}
	}
	return NewLRU(cfgsvc.GetCacheSize(), cfgsvc.GetCacheTTL())
}

func NewLRU(size int, ttl time.Duration) IService {
	return &lruService{
		cache: expirable.NewLRU[string, model.AnalysisReport](size, nil, ttl),
	}
}

func (svc *lruService) Get(checksum string) (model.AnalysisReport, bool) {
	report, ok := svc.cache.Get(checksum)
	if !ok {
		cacheMissesTotal.Inc()
		return model.AnalysisReport{}, false
	}

	cacheHitsTotal.Inc()
	report.FrameDetails = append([]model.FrameResult(nil), report.FrameDetails...)
	return report, true
}

func (svc *lruService) Set(checksum string, report model.AnalysisReport) {
	report.FrameDetails = append([]model.FrameResult(nil), report.FrameDetails...)
	svc.cache.Add(checksum, report)
}

func (svc *lruService) Len() int {
	return svc.cache.Len()
}

type noopService struct{}

func (svc *noopService) Get(string) (model.AnalysisReport, bool) {
	return model.AnalysisReport{}, false
}

func (svc *noopService) Set(string, model.AnalysisReport) {}

func (svc *noopService) Len() int {
	return 0
}
