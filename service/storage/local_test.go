package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dfd-go/model"
	"github.com/khaledhikmat/dfd-go/service/config"
)

func newTestService(t *testing.T, opts ...Option) IService {
	t.Helper()
	t.Setenv("STATIC_FOLDER", t.TempDir())

	cfgsvc, err := config.NewEnv()
	require.NoError(t, err)

	svc, err := NewLocal(cfgsvc, opts...)
	require.NoError(t, err)
	return svc
}

func touch(t *testing.T, dir, name string, modified time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(p, modified, modified))
	return p
}

func TestSave(t *testing.T) {
	svc := newTestService(t)
	content := "not really an mp4"

	stored, err := svc.Save(context.Background(), strings.NewReader(content), "../../etc/Holiday Clip.MP4")
	require.NoError(t, err)

	assert.Equal(t, ".MP4", filepath.Ext(stored.Name), "extension kept as uploaded")
	assert.NotContains(t, stored.Name, "Holiday")
	assert.Equal(t, svc.Dir(), filepath.Dir(stored.Path))
	assert.Equal(t, "/static/uploads/"+stored.Name, stored.URL)
	assert.Equal(t, int64(len(content)), stored.Size)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), stored.Checksum)

	data, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	entries, err := os.ReadDir(svc.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")
}

func TestSaveUniqueNames(t *testing.T) {
	svc := newTestService(t)

	a, err := svc.Save(context.Background(), strings.NewReader("a"), "clip.mp4")
	require.NoError(t, err)
	b, err := svc.Save(context.Background(), strings.NewReader("a"), "clip.mp4")
	require.NoError(t, err)

	assert.NotEqual(t, a.Name, b.Name)
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestSaveMissingDirectory(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, os.RemoveAll(svc.Dir()))

	_, err := svc.Save(context.Background(), strings.NewReader("a"), "clip.mp4")
	assert.ErrorIs(t, err, model.ErrStorage)
}

func TestSweepAgeBoundary(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return now }))

	stale := touch(t, svc.Dir(), "stale.mp4", now.Add(-3601*time.Second))
	fresh := touch(t, svc.Dir(), "fresh.mp4", now.Add(-3599*time.Second))
	require.NoError(t, os.Mkdir(filepath.Join(svc.Dir(), "nested"), 0o755))
	require.NoError(t, os.Chtimes(filepath.Join(svc.Dir(), "nested"), now.Add(-48*time.Hour), now.Add(-48*time.Hour)))

	result, err := svc.Sweep(context.Background(), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Deleted)
	assert.Zero(t, result.Errors)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(svc.Dir(), "nested"))
}

func TestSweepEmptyDirectory(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Sweep(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
}

func TestSweepMissingDirectory(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, os.RemoveAll(svc.Dir()))

	_, err := svc.Sweep(context.Background(), time.Hour)
	assert.ErrorIs(t, err, model.ErrCleanup)
}

func TestRemove(t *testing.T) {
	svc := newTestService(t)
	p := touch(t, svc.Dir(), "clip.mp4", time.Now())

	require.NoError(t, svc.Remove("clip.mp4"))
	assert.NoFileExists(t, p)
	assert.NoError(t, svc.Remove("clip.mp4"), "removing twice is not an error")
}
