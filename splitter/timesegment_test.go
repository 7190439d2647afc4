package splitter

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/video-splitter-go/types"
)

type fakeProber struct {
	duration float64
	err      error
}

func (p fakeProber) Duration(context.Context, string) (float64, error) {
	return p.duration, p.err
}

type fakeCopier struct {
	segments []Segment
	failAt   int // 1-based, 0 never fails
}

func (c *fakeCopier) CopySegment(_ context.Context, seg Segment) error {
	c.segments = append(c.segments, seg)
	if c.failAt == seg.Index+1 {
		return errors.New("exit status 1")
	}
	return os.WriteFile(seg.Output, []byte("segment"), 0o644)
}

func TestPlanSegments(t *testing.T) {
	segments := PlanSegments(600, 5*1024, 2*1024)
	require.Len(t, segments, 3)

	assert.InDelta(t, 0, segments[0].Start, 1e-9)
	assert.InDelta(t, 200, segments[0].End, 1e-9)
	assert.InDelta(t, 200, segments[1].Start, 1e-9)
	assert.InDelta(t, 400, segments[1].End, 1e-9)
	assert.InDelta(t, 400, segments[2].Start, 1e-9)
	assert.True(t, segments[2].ToEnd)
	assert.False(t, segments[0].ToEnd)
	assert.False(t, segments[1].ToEnd)
}

func TestPlanSegmentsAtLeastOne(t *testing.T) {
	segments := PlanSegments(42.5, 0, 1024)
	require.Len(t, segments, 1)
	assert.Zero(t, segments[0].Start)
	assert.True(t, segments[0].ToEnd)
}

func TestPlanSegmentsContiguous(t *testing.T) {
	segments := PlanSegments(3601.7, 10*1024+1, 1024)
	require.Len(t, segments, 11)
	for i := 1; i < len(segments); i++ {
		assert.Equal(t, segments[i-1].End, segments[i].Start)
		assert.Equal(t, i, segments[i].Index)
	}
}

func TestTimeSegmentSplitter(t *testing.T) {
	dir := t.TempDir()
	_, src := writeSource(t, dir, "abcd1234_clip.mp4", 5*1024)
	outDir := filepath.Join(dir, "out")

	copier := &fakeCopier{}
	var reported []float64
	parts, err := NewTimeSegmentSplitter(fakeProber{duration: 600}, copier).Split(context.Background(), Request{
		SourcePath: src,
		OutputDir:  outDir,
		PartBytes:  2 * 1024,
	}, func(p float64) { reported = append(reported, p) })
	require.NoError(t, err)

	assert.Equal(t, []string{
		"abcd1234_clip_part1.mp4",
		"abcd1234_clip_part2.mp4",
		"abcd1234_clip_part3.mp4",
	}, parts)
	require.Len(t, copier.segments, 3)
	for i, seg := range copier.segments {
		assert.Equal(t, src, seg.Source)
		assert.Equal(t, filepath.Join(outDir, parts[i]), seg.Output)
	}
	require.Len(t, reported, 3)
	assert.InDelta(t, 100.0/3, reported[0], 1e-9)
	assert.InDelta(t, 200.0/3, reported[1], 1e-9)
	assert.Equal(t, 100.0, reported[2])
}

func TestTimeSegmentSplitterProbeFailure(t *testing.T) {
	dir := t.TempDir()
	_, src := writeSource(t, dir, "clip.mp4", 1024)
	outDir := filepath.Join(dir, "out")

	copier := &fakeCopier{}
	_, err := NewTimeSegmentSplitter(fakeProber{err: errors.New("ffprobe missing")}, copier).Split(context.Background(), Request{
		SourcePath: src,
		OutputDir:  outDir,
		PartBytes:  512,
	}, nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindProbe, types.KindOf(err))
	assert.Empty(t, copier.segments)
	assert.NoDirExists(t, outDir)
}

func TestTimeSegmentSplitterUnusableDuration(t *testing.T) {
	dir := t.TempDir()
	_, src := writeSource(t, dir, "clip.mp4", 1024)

	for _, duration := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		copier := &fakeCopier{}
		_, err := NewTimeSegmentSplitter(fakeProber{duration: duration}, copier).Split(context.Background(), Request{
			SourcePath: src,
			OutputDir:  filepath.Join(dir, "out"),
			PartBytes:  512,
		}, nil)
		require.Error(t, err, "duration %v", duration)
		assert.ErrorIs(t, err, types.ErrNoDuration)
		assert.Equal(t, types.ErrorKindProbe, types.KindOf(err))
		assert.Empty(t, copier.segments)
	}
}

func TestTimeSegmentSplitterSegmentFailure(t *testing.T) {
	dir := t.TempDir()
	_, src := writeSource(t, dir, "clip.mp4", 3*1024)

	copier := &fakeCopier{failAt: 2}
	var reported []float64
	parts, err := NewTimeSegmentSplitter(fakeProber{duration: 90}, copier).Split(context.Background(), Request{
		SourcePath: src,
		OutputDir:  filepath.Join(dir, "out"),
		PartBytes:  1024,
	}, func(p float64) { reported = append(reported, p) })
	require.Error(t, err)
	assert.Nil(t, parts)
	assert.Equal(t, types.ErrorKindSegment, types.KindOf(err))
	assert.Len(t, copier.segments, 2)
	for _, p := range reported {
		assert.Less(t, p, 100.0)
	}
}
