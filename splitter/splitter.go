// Package splitter cuts a source video into bounded-size parts, either by raw
// byte ranges or by stream-copied time segments.
package splitter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

// Request describes one split.
type Request struct {
	SourcePath string
	OutputDir  string
	BaseName   string // name parts are derived from, defaults to the source file name
	PartBytes  int64  // max (bytes mode) or target (time mode) part size
}

// Splitter produces the ordered part file names written under req.OutputDir.
type Splitter interface {
	Split(ctx context.Context, req Request, report types.ProgressReporter) ([]string, error)
}

// PartName returns the file name of the 1-based part index: movie_part2.mp4.
func PartName(baseName string, index int) string {
	stem, ext := tool.SplitName(baseName)
	return fmt.Sprintf("%s_part%d%s", stem, index, ext)
}

// PartCount returns ceil(size / partBytes).
func PartCount(size, partBytes int64) int {
	if size <= 0 || partBytes <= 0 {
		return 0
	}
	return int((size + partBytes - 1) / partBytes)
}

// Percent returns done/total as a percentage clamped to [0,100].
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 100
	}
	p := float64(done) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (r Request) baseName() string {
	if r.BaseName != "" {
		return r.BaseName
	}
	return filepath.Base(r.SourcePath)
}

func (r Request) validate(op string) error {
	if r.SourcePath == "" {
		return types.ValidationError(op, fmt.Errorf("source path is empty"))
	}
	if r.OutputDir == "" {
		return types.ValidationError(op, fmt.Errorf("output directory is empty"))
	}
	if r.PartBytes <= 0 {
		return types.ValidationError(op, fmt.Errorf("part size must be > 0, got %d", r.PartBytes))
	}
	return nil
}

func emit(report types.ProgressReporter, percent float64) {
	if report != nil {
		report(percent)
	}
}
