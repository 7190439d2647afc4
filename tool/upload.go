package tool

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// NextAvailablePath returns the first path under dir that does not exist, using fileName
// and if it exists, trying base-2.ext, base-3.ext, ... (e.g. a.mp4 -> a-2.mp4, a-3.mp4).
func NextAvailablePath(dir, fileName string) string {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(filepath.Base(fileName), ext)
	if base == "" {
		base = fileName
		ext = ""
	}
	try := filepath.Join(dir, fileName)
	if _, err := os.Stat(try); os.IsNotExist(err) {
		return try
	}
	for n := 2; ; n++ {
		try = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, n, ext))
		if _, err := os.Stat(try); os.IsNotExist(err) {
			return try
		}
	}
}

// DefaultCopyBufferSize is used by CopyWithContext when no buffer is given.
const DefaultCopyBufferSize = 2 * 1024 * 1024

// CopyWithContext copies src to dst through buf, checking ctx between reads.
// onWrite, if set, is called with the size of every completed write.
func CopyWithContext(ctx context.Context, dst io.Writer, src io.Reader, buf []byte, onWrite func(int)) (int64, error) {
	if len(buf) == 0 {
		buf = make([]byte, DefaultCopyBufferSize)
	}
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
				if onWrite != nil {
					onWrite(nw)
				}
			}
			if writeErr != nil {
				return written, writeErr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// SaveStream writes src to path, removing the partial file on failure.
func SaveStream(ctx context.Context, path string, src io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file failed: %w", err)
	}
	written, copyErr := CopyWithContext(ctx, file, src, nil, nil)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if err := os.Remove(path); err != nil {
			DefaultLogger.Errorf("Failed to remove partial file %s: %v", path, err)
		}
		return written, fmt.Errorf("write file failed: %w", copyErr)
	}
	return written, nil
}
