package controllers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/api/middlewares"
	"github.com/moyoez/video-splitter-go/splitter"
	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

type ProcessController struct {
	env *Env
}

func NewProcessController(env *Env) *ProcessController {
	return &ProcessController{env: env}
}

// HandleProcess splits a previously uploaded file and answers once every part is written.
// POST /process  form: filename, mode (optional), part_size_mb (optional)
func (ctrl *ProcessController) HandleProcess(c *gin.Context) {
	job, err := ctrl.buildJob(c)
	if err != nil {
		tool.ReplyError(c, err)
		return
	}

	s, ok := ctrl.env.Splitters[job.Mode]
	if !ok {
		tool.ReplyError(c, types.ValidationError("process", fmt.Errorf("split mode %q is not available", job.Mode)))
		return
	}

	if err := tool.EnsureDir(ctrl.env.Config.OutputFolder); err != nil {
		tool.ReplyError(c, types.IOError("create_output_root", err))
		return
	}
	if err := tool.EnsureFreeSpace(ctrl.env.Config.OutputFolder, job.TotalSize); err != nil {
		tool.DefaultLogger.Warnf("[Process] %v", err)
		tool.ReplyError(c, types.IOError("disk_space", err))
		return
	}

	if err := ctrl.env.Tracker.Begin(job.Key); err != nil {
		tool.ReplyError(c, err)
		return
	}
	release := ctrl.env.markBusy(job.SourcePath, job.OutputDir)
	defer release()

	// leftovers of an earlier run with a different part size must not mix in
	if err := tool.RemovePath(job.OutputDir); err != nil {
		tool.DefaultLogger.Warnf("[Process] %v", err)
	}

	tool.DefaultLogger.Infof("[Process] Splitting %s (%d bytes) in %s mode, %d byte parts", job.Key, job.TotalSize, job.Mode, job.PartBytes)
	// a client going away does not stop a split once it started
	parts, err := s.Split(context.WithoutCancel(c.Request.Context()), splitter.Request{
		SourcePath: job.SourcePath,
		OutputDir:  job.OutputDir,
		BaseName:   job.Key,
		PartBytes:  job.PartBytes,
	}, ctrl.env.Tracker.Reporter(job.Key))
	if err != nil {
		ctrl.env.Tracker.Fail(job.Key)
		if rmErr := tool.RemovePath(job.OutputDir); rmErr != nil {
			tool.DefaultLogger.Errorf("[Process] Cleanup after failed split: %v", rmErr)
		}
		tool.DefaultLogger.Errorf("[Process] Split of %s failed: %v", job.Key, err)
		tool.ReplyError(c, err)
		return
	}
	ctrl.env.Tracker.Complete(job.Key)
	job.Parts = parts

	token := middlewares.SessionToken(c)
	ctrl.env.Ledger.Register(job.FolderName, parts)
	ctrl.env.Sessions.TrackSplit(token, job.OutputDir)
	ctrl.env.Sessions.ConsumeUpload(token, job.SourcePath)
	if err := tool.RemovePath(job.SourcePath); err != nil {
		tool.DefaultLogger.Warnf("[Process] Failed to remove consumed upload: %v", err)
	}

	tool.DefaultLogger.Infof("[Process] %s split into %d parts in %s", job.Key, len(parts), job.OutputDir)
	c.JSON(http.StatusOK, types.ProcessResponse{
		Success:      true,
		Filename:     job.Key,
		SplitFiles:   job.Parts,
		OutputFolder: job.OutputDir,
		FolderName:   job.FolderName,
		Mode:         job.Mode,
	})
}

func (ctrl *ProcessController) buildJob(c *gin.Context) (*types.Job, error) {
	filename := strings.TrimSpace(c.PostForm("filename"))
	if filename == "" {
		return nil, types.ValidationError("process", errors.New("no filename provided"))
	}
	if !tool.IsPlainName(filename) {
		return nil, types.ValidationError("process", errors.New("invalid filename"))
	}

	mode := types.SplitMode(strings.ToLower(c.DefaultPostForm("mode", ctrl.env.Config.SplitMode)))
	if !mode.Valid() {
		return nil, types.ValidationError("process", fmt.Errorf("invalid mode %q", mode))
	}

	var partSizeMB int64
	if raw := strings.TrimSpace(c.PostForm("part_size_mb")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, types.ValidationError("process", fmt.Errorf("invalid part_size_mb %q", raw))
		}
		partSizeMB = n
	}

	source := ctrl.env.uploadPath(filename)
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.NotFoundError("process", errors.New("file not found"))
		}
		return nil, types.IOError("stat_upload", err)
	}
	if info.IsDir() {
		return nil, types.NotFoundError("process", errors.New("file not found"))
	}

	stem, _ := tool.SplitName(filename)
	if !tool.IsPlainName(stem) {
		return nil, types.ValidationError("process", errors.New("invalid filename"))
	}
	return &types.Job{
		Key:        filename,
		SourcePath: source,
		OutputDir:  ctrl.env.outputPath(stem),
		FolderName: stem,
		Mode:       mode,
		PartBytes:  ctrl.env.partBytes(partSizeMB),
		TotalSize:  info.Size(),
	}, nil
}
