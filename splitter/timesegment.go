package splitter

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

// Prober reports the duration of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// SegmentCopier stream-copies one time range of a source into its own file.
type SegmentCopier interface {
	CopySegment(ctx context.Context, seg Segment) error
}

// Segment is one planned cut. The last segment has ToEnd set and no End.
type Segment struct {
	Index  int // 0-based
	Source string
	Output string
	Start  float64
	End    float64
	ToEnd  bool
}

// PlanSegments divides duration into ceil(fileSize/partBytes) equal ranges.
// Segment i starts where i-1 ended; the last one runs to the end of stream to absorb rounding drift.
func PlanSegments(duration float64, fileSize, partBytes int64) []Segment {
	total := max(PartCount(fileSize, partBytes), 1)
	partDuration := duration / float64(total)

	segments := make([]Segment, total)
	for i := range segments {
		segments[i] = Segment{
			Index: i,
			Start: float64(i) * partDuration,
		}
		if i == total-1 {
			segments[i].ToEnd = true
		} else {
			segments[i].End = float64(i+1) * partDuration
		}
	}
	return segments
}

// TimeSegmentSplitter cuts a video into stream-copied segments of roughly equal duration.
type TimeSegmentSplitter struct {
	prober Prober
	copier SegmentCopier
}

func NewTimeSegmentSplitter(prober Prober, copier SegmentCopier) *TimeSegmentSplitter {
	return &TimeSegmentSplitter{prober: prober, copier: copier}
}

// Split probes the duration, then copies each planned segment in order.
// A probe failure creates no output; a segment failure returns no parts and leaves cleanup of
// req.OutputDir to the caller.
func (s *TimeSegmentSplitter) Split(ctx context.Context, req Request, report types.ProgressReporter) ([]string, error) {
	if err := req.validate("time_split"); err != nil {
		return nil, err
	}

	info, err := os.Stat(req.SourcePath)
	if err != nil {
		return nil, types.IOError("stat_source", err)
	}

	duration, err := s.prober.Duration(ctx, req.SourcePath)
	if err != nil {
		return nil, types.ProbeError("probe_duration", err)
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return nil, types.ProbeError("probe_duration", fmt.Errorf("%w: got %.3f", types.ErrNoDuration, duration))
	}

	if err := tool.EnsureDir(req.OutputDir); err != nil {
		return nil, types.IOError("create_output_dir", err)
	}

	segments := PlanSegments(duration, info.Size(), req.PartBytes)
	baseName := req.baseName()
	parts := make([]string, 0, len(segments))
	tool.DefaultLogger.Infof("[TimeSplit] %s: duration=%.3fs, parts=%d", baseName, duration, len(segments))

	for _, seg := range segments {
		name := PartName(baseName, seg.Index+1)
		seg.Source = req.SourcePath
		seg.Output = filepath.Join(req.OutputDir, name)

		if err := s.copier.CopySegment(ctx, seg); err != nil {
			return nil, types.SegmentError(fmt.Sprintf("copy_segment_%d", seg.Index+1), err)
		}
		parts = append(parts, name)
		emit(report, float64(seg.Index+1)/float64(len(segments))*100)
	}

	return parts, nil
}
