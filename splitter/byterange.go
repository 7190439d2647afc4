package splitter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

// DefaultBufferSize bounds memory per split regardless of file size.
const DefaultBufferSize = 1024 * 1024 // 1MB

// ByteRangeSplitter cuts a file into fixed-size byte chunks. It has no notion of video structure,
// parts are only playable once concatenated again.
type ByteRangeSplitter struct {
	BufferSize int
}

// NewByteRangeSplitter creates a splitter copying through a buffer of bufferSize bytes.
func NewByteRangeSplitter(bufferSize int) *ByteRangeSplitter {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &ByteRangeSplitter{BufferSize: bufferSize}
}

// Split writes ceil(size/PartBytes) parts; part i covers [i*PartBytes, min((i+1)*PartBytes, size)).
// Progress is reported after every buffer write and ends at exactly 100.
// On failure already written parts are left in place.
func (s *ByteRangeSplitter) Split(ctx context.Context, req Request, report types.ProgressReporter) ([]string, error) {
	if err := req.validate("byte_split"); err != nil {
		return nil, err
	}

	source, err := os.Open(req.SourcePath)
	if err != nil {
		return nil, types.IOError("open_source", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close source file: %v", err)
		}
	}()

	info, err := source.Stat()
	if err != nil {
		return nil, types.IOError("stat_source", err)
	}
	size := info.Size()

	if err := tool.EnsureDir(req.OutputDir); err != nil {
		return nil, types.IOError("create_output_dir", err)
	}

	total := PartCount(size, req.PartBytes)
	bufSize := s.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	buf := make([]byte, bufSize)
	baseName := req.baseName()
	parts := make([]string, 0, total)

	var written int64
	for i := 0; i < total; i++ {
		start := int64(i) * req.PartBytes
		length := min(req.PartBytes, size-start)
		name := PartName(baseName, i+1)

		err := writePart(ctx, source, filepath.Join(req.OutputDir, name), start, length, buf, func(n int) {
			written += int64(n)
			emit(report, Percent(written, size))
		})
		if err != nil {
			return nil, err
		}
		parts = append(parts, name)
		tool.DefaultLogger.Debugf("[ByteSplit] Wrote part %d/%d: %s (%d bytes)", i+1, total, name, length)
	}

	emit(report, 100)
	return parts, nil
}

func writePart(ctx context.Context, source io.ReaderAt, path string, start, length int64, buf []byte, onWrite func(int)) error {
	part, err := os.Create(path)
	if err != nil {
		return types.IOError("create_part", err)
	}

	copied, err := tool.CopyWithContext(ctx, part, io.NewSectionReader(source, start, length), buf, onWrite)
	if err == nil && copied < length {
		err = fmt.Errorf("source truncated: %d bytes missing: %w", length-copied, io.ErrUnexpectedEOF)
	}
	if err != nil {
		_ = part.Close()
		return types.IOError("write_part", err)
	}
	if err := part.Close(); err != nil {
		return types.IOError("close_part", err)
	}
	return nil
}
