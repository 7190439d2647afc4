// Package packager bundles a split output folder into a single zip archive.
package packager

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

const DefaultMemoryLimit = 256 * tool.MiB

// Archive is a finished zip ready to stream. Close releases its backing storage.
type Archive struct {
	Reader io.ReadSeeker
	Size   int64
	close  func() error
}

func (a *Archive) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// Packager builds zip archives in memory up to MemoryLimit bytes of input, in a temp file above it.
type Packager struct {
	MemoryLimit int64
	TempDir     string // "" uses os.TempDir
}

func New(memoryLimit int64) *Packager {
	if memoryLimit <= 0 {
		memoryLimit = DefaultMemoryLimit
	}
	return &Packager{MemoryLimit: memoryLimit}
}

type entry struct {
	path string
	name string
	info fs.FileInfo
}

// Pack zips every regular file under root with its root-relative slash path. Directory entries are omitted
// and files are stored uncompressed.
func (p *Packager) Pack(root string) (*Archive, error) {
	entries, total, err := collect(root)
	if err != nil {
		return nil, err
	}

	if total <= p.MemoryLimit {
		buf := &bytes.Buffer{}
		if err := write(buf, entries); err != nil {
			return nil, err
		}
		return &Archive{Reader: bytes.NewReader(buf.Bytes()), Size: int64(buf.Len())}, nil
	}

	tmp, err := os.CreateTemp(p.TempDir, "split-*.zip")
	if err != nil {
		return nil, types.IOError("create_zip", err)
	}
	cleanup := func() error {
		closeErr := tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			return err
		}
		return closeErr
	}
	if err := write(tmp, entries); err != nil {
		_ = cleanup()
		return nil, err
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = cleanup()
		return nil, types.IOError("rewind_zip", err)
	}
	tool.DefaultLogger.Debugf("[Packager] %s spilled to %s (%d bytes)", root, tmp.Name(), size)
	return &Archive{Reader: tmp, Size: size, close: cleanup}, nil
}

func collect(root string) ([]entry, int64, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, types.NotFoundError("pack", fmt.Errorf("folder %s: %w", filepath.Base(root), types.ErrNotFound))
		}
		return nil, 0, types.IOError("pack", err)
	}
	if !info.IsDir() {
		return nil, 0, types.NotFoundError("pack", fmt.Errorf("%s is not a folder: %w", filepath.Base(root), types.ErrNotFound))
	}

	var entries []entry
	var total int64
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{path: path, name: filepath.ToSlash(rel), info: fi})
		total += fi.Size()
		return nil
	})
	if err != nil {
		return nil, 0, types.IOError("walk_folder", err)
	}
	return entries, total, nil
}

func write(w io.Writer, entries []entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addFile(zw, e); err != nil {
			_ = zw.Close()
			return types.IOError("zip_add", err)
		}
	}
	if err := zw.Close(); err != nil {
		return types.IOError("zip_close", err)
	}
	return nil
}

func addFile(zw *zip.Writer, e entry) error {
	header, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return err
	}
	header.Name = e.name
	header.Method = zip.Store

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	src, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return err
}
