package tool

import (
	"errors"
	"maps"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/video-splitter-go/types"
)

func FastReturnError(msg string) gin.H {
	return gin.H{
		"success": false,
		"error":   msg,
	}
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"success": true,
	}
}

func FastReturnSuccessWithData(data map[string]any) gin.H {
	resp := FastReturnSuccess()
	maps.Copy(resp, data)
	return resp
}

// StatusForError maps an error kind to an HTTP status.
func StatusForError(err error) int {
	switch types.KindOf(err) {
	case types.ErrorKindValidation:
		return http.StatusBadRequest
	case types.ErrorKindNotFound:
		return http.StatusNotFound
	case types.ErrorKindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicErrorMessage hides internal failure detail; validation, not-found and conflict errors keep their message.
func PublicErrorMessage(err error) string {
	var sErr *types.SplitError
	if !errors.As(err, &sErr) {
		return "Internal server error"
	}
	switch sErr.Kind {
	case types.ErrorKindValidation, types.ErrorKindNotFound, types.ErrorKindConflict:
		return sErr.Err.Error()
	case types.ErrorKindProbe:
		return "Could not determine video duration"
	case types.ErrorKindSegment:
		return "Video segmenting failed"
	default:
		if errors.Is(sErr.Err, types.ErrInsufficientDisk) {
			return "Insufficient disk space"
		}
		return "File operation failed"
	}
}

// ReplyError writes the JSON failure reply for err.
func ReplyError(c *gin.Context, err error) {
	c.JSON(StatusForError(err), FastReturnError(PublicErrorMessage(err)))
}
