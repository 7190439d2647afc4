package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistryTrackAndPurge(t *testing.T) {
	dir := t.TempDir()
	upload := filepath.Join(dir, "abcd1234_a.mp4")
	output := filepath.Join(dir, "abcd1234_a")
	require.NoError(t, os.WriteFile(upload, []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(output, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(output, "abcd1234_a_part1.mp4"), []byte("x"), 0o644))

	reg := NewSessionRegistry(time.Hour)
	reg.TrackUpload("tok", upload)
	reg.TrackUpload("tok", upload)
	reg.TrackSplit("tok", output)

	snap, ok := reg.Snapshot("tok")
	require.True(t, ok)
	assert.Equal(t, []string{upload}, snap.Uploads)
	assert.Equal(t, []string{output}, snap.Splits)

	assert.Equal(t, 2, reg.PurgeSession("tok"))
	assert.NoFileExists(t, upload)
	assert.NoDirExists(t, output)

	snap, ok = reg.Snapshot("tok")
	require.True(t, ok)
	assert.Empty(t, snap.Uploads)
	assert.Empty(t, snap.Splits)

	assert.Equal(t, 0, reg.PurgeSession("tok"), "purge is idempotent")
	assert.Equal(t, 0, reg.PurgeSession("never-seen"))
}

func TestSessionRegistrySkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.mp4")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	reg := NewSessionRegistry(time.Hour)
	reg.TrackUpload("tok", filepath.Join(dir, "gone.mp4"))
	reg.TrackUpload("tok", present)

	assert.Equal(t, 1, reg.PurgeSession("tok"))
	assert.NoFileExists(t, present)
}

func TestSessionRegistryPurgeReportsRemovedSplits(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "abcd1234_a")
	require.NoError(t, os.Mkdir(out, 0o755))

	reg := NewSessionRegistry(time.Hour)
	var dropped []string
	reg.SetOnSplitRemoved(func(d string) { dropped = append(dropped, d) })
	reg.TrackSplit("tok", out)
	reg.TrackSplit("tok", filepath.Join(dir, "already_gone"))

	assert.Equal(t, 1, reg.PurgeSession("tok"))
	assert.Equal(t, []string{out, filepath.Join(dir, "already_gone")}, dropped)
	assert.NoDirExists(t, out)
}

func TestSessionRegistryConsumeAndForget(t *testing.T) {
	reg := NewSessionRegistry(time.Hour)
	reg.Ensure("tok")
	reg.TrackUpload("tok", "uploads/a.mp4")
	reg.TrackUpload("tok", "uploads/b.mp4")
	reg.TrackSplit("tok", "out/a")

	reg.ConsumeUpload("tok", "uploads/a.mp4")
	reg.ForgetSplit("out/a")
	reg.ForgetSplit("out/unknown")
	reg.ConsumeUpload("other", "uploads/b.mp4")

	snap, ok := reg.Snapshot("tok")
	require.True(t, ok)
	assert.Equal(t, []string{"uploads/b.mp4"}, snap.Uploads)
	assert.Empty(t, snap.Splits)

	_, ok = reg.Snapshot("other")
	assert.False(t, ok)
}

func TestSessionRegistryIsolatesTokens(t *testing.T) {
	dir := t.TempDir()
	mine := filepath.Join(dir, "mine.mp4")
	theirs := filepath.Join(dir, "theirs.mp4")
	require.NoError(t, os.WriteFile(mine, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(theirs, []byte("x"), 0o644))

	reg := NewSessionRegistry(time.Hour)
	reg.TrackUpload("me", mine)
	reg.TrackUpload("them", theirs)

	reg.PurgeSession("me")
	assert.NoFileExists(t, mine)
	assert.FileExists(t, theirs)
}
