package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/moyoez/video-splitter-go/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

type QRCodeController struct {
	env *Env
}

func NewQRCodeController(env *Env) *QRCodeController {
	return &QRCodeController{env: env}
}

// HandleFolderQRCode returns a PNG QR code of the zip download URL of a folder, so a phone
// on the same network can fetch the parts.
// GET /qrcode/:folder_name?size=200x200
func (ctrl *QRCodeController) HandleFolderQRCode(c *gin.Context) {
	folder := c.Param("folder_name")
	if !tool.IsPlainName(folder) {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid folder name"))
		return
	}
	if files, err := tool.ListFiles(ctrl.env.outputPath(folder)); err != nil || len(files) == 0 {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Folder not found"))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	data := tool.BuildZipDownloadURL(tool.BaseURL(ctrl.env.Config.PublicURL, ctrl.env.Config.Port), folder)
	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
