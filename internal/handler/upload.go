package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/flatmate/flatmate-backend/internal/config"
)

// UploadHandler stores a single image and returns its public URL.
type UploadHandler struct {
	Cfg config.Config
}

func NewUploadHandler(cfg config.Config) *UploadHandler {
	return &UploadHandler{Cfg: cfg}
}

// Image accepts a multipart "file" (or legacy "image") part and writes
// it under the upload directory, prefixing the filename with the
// uploader's id so different users can upload the same filename.
func (h *UploadHandler) Image(c echo.Context) error {
	u, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		fh, err = c.FormFile("image")
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}

	url, err := saveUpload(h.Cfg.UploadDir, u.ID, fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": url})
}

// saveUpload copies the uploaded file into dir as "<userID>_<name>"
// and returns the URL path it will be served from. filepath.Base guards
// against path traversal in the client-supplied filename.
func saveUpload(dir string, userID uint64, fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d_%s", userID, filepath.Base(fh.Filename))

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/static/uploads/" + name, nil
}
