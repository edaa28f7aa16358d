package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/service"
	"github.com/matrixnet/social-service/pkg/response"
)

// UploadHandler receives multipart uploads, spools them to a temp file
// and dispatches an UploadFile command.
type UploadHandler struct {
	Bus    *service.MessageBus
	Logger *logrus.Logger
}

func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "missing file", nil)
		return
	}

	tmp := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		response.Error(c, http.StatusInternalServerError, "upload failed", nil)
		return
	}
	defer func() {
		if err := os.Remove(tmp); err != nil {
			h.Logger.WithError(err).WithField("path", tmp).Warn("temp file cleanup failed")
		}
	}()

	fileName := uuid.NewString() + filepath.Ext(file.Filename)
	results, err := h.Bus.Handle(c.Request.Context(), domain.UploadFile{
		FileName:  fileName,
		LocalPath: tmp,
	})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"file_url": results[0]}, "file uploaded")
}
