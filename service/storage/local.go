package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/config"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

var (
	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dfd_uploads_total",
		Help: "Number of uploaded videos saved to disk",
	})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dfd_upload_bytes_total",
		Help: "Bytes of uploaded video saved to disk",
	})

	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dfd_cleanup_runs_total",
		Help: "Number of upload directory sweeps",
	})

	sweepDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dfd_cleanup_files_deleted_total",
		Help: "Number of stale uploads deleted",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dfd_cleanup_duration_seconds",
		Help:    "Duration of upload directory sweeps",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

type Option func(*localService)

// WithClock replaces time.Now as the sweep's notion of the current time.
func WithClock(now func() time.Time) Option {
	return func(svc *localService) {
		svc.now = now
	}
}

type localService struct {
	dir       string
	urlPrefix string
	now       func() time.Time

	// serializes sweeps started by the endpoint and the scheduler
	mu sync.Mutex
}

func NewLocal(cfgsvc config.IService, opts ...Option) (IService, error) {
	svc := &localService{
		dir:       cfgsvc.GetUploadsFolder(),
		urlPrefix: path.Join(cfgsvc.GetStaticURLPrefix(), "uploads"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	if err := os.MkdirAll(svc.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", model.ErrStorage, svc.dir, err)
	}

	return svc, nil
}

func (svc *localService) Dir() string {
	return svc.dir
}

func (svc *localService) Save(ctx context.Context, r io.Reader, originalName string) (StoredVideo, error) {
	_, span := otel.Tracer("storage").Start(ctx, "storage.Save")
	defer span.End()

	name := uuid.NewString() + filepath.Ext(filepath.Base(originalName))
	fullPath := filepath.Join(svc.dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return StoredVideo{}, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(r, hasher))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return StoredVideo{}, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return StoredVideo{}, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return StoredVideo{}, fmt.Errorf("%w: %w", model.ErrStorage, err)
	}

	uploadsTotal.Inc()
	uploadBytesTotal.Add(float64(size))
	span.SetAttributes(attribute.String("video.name", name), attribute.Int64("video.size", size))

	return StoredVideo{
		Name:     name,
		Path:     fullPath,
		URL:      svc.urlPrefix + "/" + name,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (svc *localService) Remove(name string) error {
	err := os.Remove(filepath.Join(svc.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", model.ErrStorage, err)
	}
	return nil
}

func (svc *localService) Sweep(ctx context.Context, maxAge time.Duration) (result SweepResult, err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	start := time.Now()
	sweepRunsTotal.Inc()
	defer func() {
		result.Duration = time.Since(start)
		sweepDuration.Observe(result.Duration.Seconds())
	}()

	entries, err := os.ReadDir(svc.dir)
	if err != nil {
		return result, fmt.Errorf("%w: %w", model.ErrCleanup, err)
	}

	now := svc.now()
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if !entry.Type().IsRegular() {
			continue
		}
		result.Scanned++

		info, err := entry.Info()
		if err != nil {
			// Removed by someone else between ReadDir and Info.
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			result.Errors++
			errs = append(errs, err)
			continue
		}

		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		if err := os.Remove(filepath.Join(svc.dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			result.Errors++
			errs = append(errs, err)
			continue
		}

		result.Deleted++
		sweepDeletedTotal.Inc()
		lgr.Logger.Debug("removed stale upload",
			slog.String("file", entry.Name()),
			slog.Time("modified", info.ModTime()),
		)
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %w", model.ErrCleanup, errors.Join(errs...))
	}
	return result, nil
}
