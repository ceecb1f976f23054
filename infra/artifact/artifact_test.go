package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battery-health/core/factory"
	"github.com/kilianp07/battery-health/core/prediction"
)

func exerciseStore(t *testing.T, s prediction.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, prediction.ErrArtifactNotFound)
	require.NoError(t, s.Delete(ctx), "deleting a missing artifact")

	require.NoError(t, s.Save(ctx, []byte("first")))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	require.NoError(t, s.Save(ctx, []byte("second")))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	require.NoError(t, s.Delete(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, prediction.ErrArtifactNotFound)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "battery.bhm")
	exerciseStore(t, NewFileStore(path))
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "battery.bhm"))
	require.NoError(t, s.Save(context.Background(), []byte("x")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "battery.bhm", entries[0].Name())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "models.db"), "")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStoreUpdated(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "models.db"), "a")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.Updated(ctx)
	assert.ErrorIs(t, err, prediction.ErrArtifactNotFound)
	require.NoError(t, s.Save(ctx, []byte("x")))
	ts, err := s.Updated(ctx)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func TestSQLiteStoreNamesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.db")
	a, err := NewSQLiteStore(path, "a")
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	b, err := NewSQLiteStore(path, "b")
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	require.NoError(t, a.Save(ctx, []byte("model-a")))
	_, err = b.Load(ctx)
	assert.ErrorIs(t, err, prediction.ErrArtifactNotFound)
}

func TestStoreFactory(t *testing.T) {
	dir := t.TempDir()

	s, err := prediction.NewStore(factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": filepath.Join(dir, "m.bhm")}})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = prediction.NewStore(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "m.db")}})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.(io.Closer).Close())

	_, err = prediction.NewStore(factory.ModuleConfig{Type: "file"})
	assert.Error(t, err)
	_, err = prediction.NewStore(factory.ModuleConfig{Type: "s3"})
	assert.Error(t, err)
}

func TestPredictorPersistsThroughFileStore(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "battery.bhm"))
	cfg := prediction.DefaultTrainConfig()
	cfg.Samples = 500
	cfg.Forest.Trees = 3

	f, _, err := prediction.Train(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, prediction.Save(ctx, s, f))

	loaded, err := prediction.Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, f.Trees, loaded.Trees)
}
