// Package storage validates uploaded images and persists them to a backing store.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"
	"time"

	"virtuefeed/internal/config"
	"virtuefeed/internal/models"
	"virtuefeed/internal/observability"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Object is a stored file as seen by the cleanup job.
type Object struct {
	Key     string
	URL     string
	Size    int64
	ModTime time.Time
}

// ImageStore persists image bytes under a key and exposes them at a URL.
type ImageStore interface {
	Driver() string
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	List(ctx context.Context) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

// ImageInfo is what validation learned about an upload.
type ImageInfo struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Uploader validates images and writes them to a store.
type Uploader struct {
	store    ImageStore
	maxBytes int64
	now      func() time.Time
}

func NewUploader(store ImageStore, maxBytes int64) *Uploader {
	return &Uploader{store: store, maxBytes: maxBytes, now: time.Now}
}

// Upload stores data and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, declaredType string) (string, error) {
	info, err := ValidateImage(data, declaredType, u.maxBytes)
	if err != nil {
		return "", err
	}

	key := ObjectKey(u.now(), info.Ext)
	url, err := u.store.Put(ctx, key, data, info.ContentType)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	observability.UploadBytesTotal.WithLabelValues(u.store.Driver()).Add(float64(len(data)))
	return url, nil
}

// ValidateImage checks size and sniffed type, then decodes the whole image.
// declaredType is the client's Content-Type and may be empty.
func ValidateImage(data []byte, declaredType string, maxBytes int64) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, models.NewValidationError("No file uploaded")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return ImageInfo{}, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}

	detected := http.DetectContentType(data)
	if !isAllowedImageMIME(detected) {
		return ImageInfo{}, models.NewValidationError("Only image files are allowed (JPEG, PNG, GIF, WebP)")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, models.NewValidationError("Invalid image file")
	}

	contentType := formatToMIME(format)
	if contentType == "" {
		return ImageInfo{}, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(declaredType); strings.HasPrefix(provided, "image/") && !sameImageType(provided, contentType) {
		return ImageInfo{}, models.NewValidationError("Image content type mismatch")
	}

	return ImageInfo{
		ContentType: contentType,
		Ext:         extensionFor(contentType),
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}, nil
}

// ObjectKey lays uploads out by day: YYYY/MM/DD/<uuid><ext>.
func ObjectKey(now time.Time, ext string) string {
	return now.UTC().Format("2006/01/02") + "/" + uuid.NewString() + ext
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func sameImageType(provided, detected string) bool {
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	return provided == detected
}

func formatToMIME(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// NewFromConfig opens the store selected by STORAGE_DRIVER.
func NewFromConfig(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.StorageDriver {
	case "minio":
		return NewMinioStore(ctx, cfg)
	default:
		return NewLocalStore(cfg.UploadDir, cfg.UploadPublicPath)
	}
}
