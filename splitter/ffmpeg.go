package splitter

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

// FFmpeg constants for probing and stream copy
const (
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	FFmpegLogLevel      = "error"
	StreamCopyCodec     = "copy"
	MapAllStreams       = "0"
	NegativeTSMode      = "make_zero"
)

// FFprobe implements Prober with the ffprobe binary.
type FFprobe struct {
	Path string
}

func NewFFprobe(path string) *FFprobe {
	if path == "" {
		path = FFprobeCommand
	}
	return &FFprobe{Path: path}
}

// BuildArgs builds the ffprobe arguments printing only the container duration.
func (p *FFprobe) BuildArgs(inputPath string) []string {
	return []string{
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		inputPath,
	}
}

// Duration gets the duration of a media file in seconds.
func (p *FFprobe) Duration(ctx context.Context, inputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.Path, p.BuildArgs(inputPath)...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}
	return ParseDuration(string(output))
}

// ParseDuration parses ffprobe's csv duration output.
func ParseDuration(output string) (float64, error) {
	durationStr := strings.TrimSpace(output)
	if durationStr == "" || durationStr == "N/A" {
		return 0, types.ErrNoDuration
	}
	// some containers print one line per program, first one wins
	if idx := strings.IndexAny(durationStr, "\r\n"); idx >= 0 {
		durationStr = strings.TrimSpace(durationStr[:idx])
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, fmt.Errorf("%w: got %q", types.ErrNoDuration, durationStr)
	}
	return duration, nil
}

// FFmpeg implements SegmentCopier with the ffmpeg binary.
type FFmpeg struct {
	Path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = FFmpegCommand
	}
	return &FFmpeg{Path: path}
}

// BuildSegmentArgs builds the ffmpeg arguments copying seg without re-encoding.
func (f *FFmpeg) BuildSegmentArgs(seg Segment) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", FFmpegLogLevel,
		"-i", seg.Source,
		"-ss", FormatSeconds(seg.Start),
	}
	if !seg.ToEnd {
		args = append(args, "-to", FormatSeconds(seg.End))
	}
	return append(args,
		"-c", StreamCopyCodec,
		"-map", MapAllStreams,
		"-avoid_negative_ts", NegativeTSMode,
		seg.Output,
	)
}

// CopySegment runs ffmpeg for one segment.
func (f *FFmpeg) CopySegment(ctx context.Context, seg Segment) error {
	args := f.BuildSegmentArgs(seg)
	tool.DefaultLogger.Debugf("[FFmpeg] %s %s", f.Path, strings.Join(args, " "))
	output, err := exec.CommandContext(ctx, f.Path, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %v, output: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// FormatSeconds renders an offset with millisecond precision.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
