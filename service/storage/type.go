package storage

import (
	"context"
	"io"
	"time"
)

// StoredVideo is an upload persisted under a generated name.
type StoredVideo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

type SweepResult struct {
	Scanned  int
	Deleted  int
	Errors   int
	Duration time.Duration
}

type IService interface {
	// Save streams r into the upload directory. originalName only contributes
	// its extension to the stored name.
	Save(ctx context.Context, r io.Reader, originalName string) (StoredVideo, error)
	// Sweep deletes regular files whose modification time is older than maxAge.
	// It keeps going after per-file failures and returns them joined.
	Sweep(ctx context.Context, maxAge time.Duration) (SweepResult, error)
	Remove(name string) error
	Dir() string
}
