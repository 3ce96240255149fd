// uploads.go - Base64 image uploads shared by floorplan and device handlers
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/storage"
)

var extByMIME = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
	"image/webp":    ".webp",
}

// imageUploader stores base64 encoded images (plain or data URLs).
type imageUploader struct {
	files    storage.Store
	allowed  []string
	maxBytes int64
}

// decodedImage is an upload ready to be stored.
type decodedImage struct {
	name string
	data []byte
}

// decode validates and decodes an upload. name may be empty when the data URL
// carries a known MIME type; fallbackName then provides the base name.
func (u imageUploader) decode(field, encoded, name, fallbackName string) (*decodedImage, *APIError) {
	var mimeType string
	if strings.HasPrefix(encoded, "data:") {
		header, payload, ok := strings.Cut(encoded, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, NewBadRequestError("invalid data URL in "+field, nil)
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		encoded = payload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, NewBadRequestError("invalid base64 data in "+field, err)
	}
	if len(data) == 0 {
		return nil, NewValidationError(field)
	}
	if u.maxBytes > 0 && int64(len(data)) > u.maxBytes {
		return nil, NewBadRequestError(fmt.Sprintf("%s exceeds %d bytes", field, u.maxBytes), nil)
	}

	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		ext = extByMIME[mimeType]
		if ext == "" {
			return nil, NewBadRequestError("cannot determine image type of "+field, nil)
		}
		base := name
		if base == "" {
			base = fallbackName
		}
		name = base + ext
	}
	if !u.accepts(ext) {
		return nil, NewBadRequestError("unsupported image type "+ext, nil)
	}

	return &decodedImage{name: name, data: data}, nil
}

func (u imageUploader) accepts(ext string) bool {
	if len(u.allowed) == 0 {
		return true
	}
	for _, a := range u.allowed {
		if a == ext {
			return true
		}
	}
	return false
}

func (u imageUploader) save(ctx context.Context, folder string, img *decodedImage) (*models.FileInfo, error) {
	return u.files.Save(ctx, folder, img.name, bytes.NewReader(img.data))
}

// remove deletes a stored file, ignoring references that are already gone.
func (u imageUploader) remove(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if err := u.files.Delete(ctx, ref); err != nil && !isMissingFile(err) {
		return err
	}
	return nil
}

func isMissingFile(err error) bool {
	return err != nil && (errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidRef))
}

// imageSize reads the pixel size of PNG, JPEG and GIF images.
func imageSize(data []byte) (width, height float64, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return float64(cfg.Width), float64(cfg.Height), true
}
