package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

type DownloadController struct {
	env *Env
}

func NewDownloadController(env *Env) *DownloadController {
	return &DownloadController{env: env}
}

// HandleDownloadZip streams every part of a folder as one zip and removes the folder afterwards.
// GET /download/zip/:folder_name
func (ctrl *DownloadController) HandleDownloadZip(c *gin.Context) {
	folder := c.Param("folder_name")
	dir, err := ctrl.folderPath(folder)
	if err != nil {
		tool.ReplyError(c, err)
		return
	}

	archive, err := ctrl.env.Packager.Pack(dir)
	if err != nil {
		tool.DefaultLogger.Errorf("[DownloadZip] Failed to pack %s: %v", folder, err)
		tool.ReplyError(c, err)
		return
	}
	// runs once the body is written, also when the client went away
	defer func() {
		if err := archive.Close(); err != nil {
			tool.DefaultLogger.Warnf("[DownloadZip] Failed to release archive: %v", err)
		}
		ctrl.removeFolder(dir)
	}()

	tool.DefaultLogger.Infof("[DownloadZip] Sending %s.zip (%d bytes)", folder, archive.Size)
	c.DataFromReader(http.StatusOK, archive.Size, "application/zip", archive.Reader, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s.zip"`, folder),
	})
}

// HandleDownloadSeparate sends one part. The folder is removed after its last undownloaded part went out.
// GET /download/separate/:folder_name/:filename
func (ctrl *DownloadController) HandleDownloadSeparate(c *gin.Context) {
	folder := c.Param("folder_name")
	filename := c.Param("filename")
	dir, err := ctrl.folderPath(folder)
	if err != nil {
		tool.ReplyError(c, err)
		return
	}
	if !tool.IsPlainName(filename) {
		tool.ReplyError(c, types.ValidationError("download", errors.New("invalid filename")))
		return
	}

	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		tool.ReplyError(c, types.NotFoundError("download", errors.New("file not found")))
		return
	}

	defer func() {
		// range requests and aborted transfers leave the part pending
		if c.Writer.Status() != http.StatusOK || int64(max(c.Writer.Size(), 0)) != info.Size() {
			tool.DefaultLogger.Debugf("[DownloadSeparate] Partial transfer of %s/%s, keeping it", folder, filename)
			return
		}
		if ctrl.env.Ledger.MarkDownloaded(folder, dir, filename) {
			tool.DefaultLogger.Infof("[DownloadSeparate] Last part of %s sent", folder)
			ctrl.removeFolder(dir)
		}
	}()

	tool.DefaultLogger.Infof("[DownloadSeparate] Sending %s/%s (%d bytes)", folder, filename, info.Size())
	c.FileAttachment(path, filename)
}

// folderPath validates folder and returns its directory, which must exist and not be in use.
func (ctrl *DownloadController) folderPath(folder string) (string, error) {
	if !tool.IsPlainName(folder) {
		return "", types.ValidationError("download", errors.New("invalid folder name"))
	}
	dir := ctrl.env.outputPath(folder)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", types.NotFoundError("download", errors.New("folder not found"))
	}
	if ctrl.env.Busy(dir) {
		return "", types.ConflictError("download", types.ErrJobInFlight)
	}
	return dir, nil
}

func (ctrl *DownloadController) removeFolder(dir string) {
	parts, _ := tool.ListFiles(dir)
	if err := tool.RemovePath(dir); err != nil {
		tool.DefaultLogger.Errorf("[Download] Cleanup failed: %v", err)
		return
	}
	ctrl.env.OutputRemoved(dir)
	ctrl.env.Notifier.FolderCollected(filepath.Base(dir), parts)
	tool.DefaultLogger.Debugf("[Download] Removed %s", dir)
}
