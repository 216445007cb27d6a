package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

var errNoFile = errors.New("no file uploaded")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// saveImage stores the multipart image in field under subdir and returns
// its public URL.
func (h *Handler) saveImage(c *gin.Context, field, subdir string) (string, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", errNoFile
	}
	if err != nil {
		return "", fmt.Errorf("invalid upload: %w", err)
	}

	if h.uploads.MaxBytes > 0 && fh.Size > h.uploads.MaxBytes {
		return "", fmt.Errorf("file exceeds %d bytes", h.uploads.MaxBytes)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	dir := filepath.Join(h.uploads.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(fh, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("error saving upload: %w", err)
	}
	return path.Join("/uploads", subdir, name), nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}
