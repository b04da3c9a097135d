package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.txt")

	_, ok := Load(path)
	assert.False(t, ok, "missing file")

	d := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Save(path, d))

	got, ok := Load(path)
	require.True(t, ok)
	assert.True(t, got.Equal(d))
}

func TestLoad_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.txt")
	require.NoError(t, os.WriteFile(path, []byte("yesterday-ish\n"), 0o644))

	_, ok := Load(path)
	assert.False(t, ok)
}

func TestLoad_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.txt")
	require.NoError(t, os.WriteFile(path, []byte("  2025-01-05\n"), 0o644))

	got, ok := Load(path)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestEnsureInitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.txt")

	require.NoError(t, EnsureInitialized(path))
	got, ok := Load(path)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().UTC(), got, 48*time.Hour)

	// a second call must not move an existing watermark
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Save(path, old))
	require.NoError(t, EnsureInitialized(path))
	got, ok = Load(path)
	require.True(t, ok)
	assert.True(t, got.Equal(old))
}

func TestResolveSince(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "last_run.txt")
	saved := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Save(path, saved))

	t.Run("explicit override wins", func(t *testing.T) {
		got := ResolveSince("2025-02-01", path, 7)
		assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("watermark next", func(t *testing.T) {
		got := ResolveSince("", path, 7)
		assert.True(t, got.Equal(saved))
	})

	t.Run("bad explicit falls back to watermark", func(t *testing.T) {
		got := ResolveSince("February 1", path, 7)
		assert.True(t, got.Equal(saved))
	})

	t.Run("backfill window when nothing persisted", func(t *testing.T) {
		missing := filepath.Join(dir, "nope.txt")
		got := ResolveSince("", missing, 3)
		want := time.Now().UTC().AddDate(0, 0, -3)
		assert.WithinDuration(t, want, got, time.Minute)
	})

	t.Run("zero backfill uses the default", func(t *testing.T) {
		missing := filepath.Join(dir, "nope.txt")
		got := ResolveSince("", missing, 0)
		want := time.Now().UTC().AddDate(0, 0, -DefaultBackfillDays)
		assert.WithinDuration(t, want, got, time.Minute)
	})
}
