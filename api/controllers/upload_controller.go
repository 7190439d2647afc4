package controllers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/api/middlewares"
	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

type UploadController struct {
	env *Env
}

func NewUploadController(env *Env) *UploadController {
	return &UploadController{env: env}
}

// HandleUpload stores the multipart field "file" under a unique name and returns that name.
// POST /upload
func (ctrl *UploadController) HandleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if middlewares.IsBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, tool.FastReturnError("File too large"))
			return
		}
		tool.DefaultLogger.Debugf("[Upload] No file part: %v", err)
		c.JSON(http.StatusBadRequest, tool.FastReturnError("No file part"))
		return
	}

	storedName, err := ctrl.storedName(fileHeader.Filename)
	if err != nil {
		tool.ReplyError(c, err)
		return
	}

	if err := tool.EnsureDir(ctrl.env.Config.UploadFolder); err != nil {
		tool.ReplyError(c, types.IOError("create_upload_dir", err))
		return
	}
	path := tool.NextAvailablePath(ctrl.env.Config.UploadFolder, storedName)
	storedName = filepath.Base(path)

	src, err := fileHeader.Open()
	if err != nil {
		tool.ReplyError(c, types.IOError("open_upload", err))
		return
	}
	defer src.Close()

	written, err := tool.SaveStream(c.Request.Context(), path, src)
	if err != nil {
		tool.DefaultLogger.Errorf("[Upload] Failed to save %s: %v", storedName, err)
		tool.ReplyError(c, types.IOError("save_upload", err))
		return
	}

	ctrl.env.Sessions.TrackUpload(middlewares.SessionToken(c), path)
	tool.DefaultLogger.Infof("[Upload] Saved %s (%d bytes)", storedName, written)

	c.JSON(http.StatusOK, types.UploadResponse{
		Success:  true,
		Filename: storedName,
	})
}

// storedName validates the client file name and derives the unique name it is stored under.
func (ctrl *UploadController) storedName(original string) (string, error) {
	if original == "" {
		return "", types.ValidationError("upload", types.ErrEmptyFilename)
	}
	if !tool.AllowedFile(original, ctrl.env.Config.AllowedExtensions) {
		return "", types.ValidationError("upload", types.ErrInvalidExtension)
	}
	secure := tool.SecureFilename(original)
	// non-ascii names can lose their stem or extension entirely
	if !tool.AllowedFile(secure, ctrl.env.Config.AllowedExtensions) {
		secure = "video." + tool.FileExtension(original)
	}
	return fmt.Sprintf("%s_%s", tool.GenerateShortID(), secure), nil
}
