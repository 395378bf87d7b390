package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (r *Router) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, "unreadable file")
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			requestLogger(c).Debug("closing upload", zap.Error(err))
		}
	}()

	asset, err := r.svc.Uploads.Upload(c.Request.Context(), currentUser(c), header.Filename, header.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}
