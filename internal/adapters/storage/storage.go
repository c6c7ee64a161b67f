// Package storage keeps reading photos and hands back the URL they are served from.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedPhoto = errors.New("only jpg, jpeg and png photos are accepted")
	ErrInvalidPhoto     = errors.New("photo could not be decoded")
)

// PhotoStore saves normalized photos and removes them again by URL
type PhotoStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Allowed reports whether an upload looks like a jpg/jpeg/png by both its
// file extension and its declared content type. An empty content type is
// judged by the extension alone.
func Allowed(filename, contentType string) bool {
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return false
	}
	if contentType == "" {
		return true
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return allowedContentTypes[mediaType]
}

// Normalize decodes an uploaded image, shrinks it to fit within maxDimension
// on its longer side and re-encodes it as JPEG. A maxDimension of zero keeps
// the original size.
func Normalize(r io.Reader, maxDimension int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}

	if maxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > maxDimension || b.Dy() > maxDimension {
			img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

func newPhotoName() string {
	return "photo-" + uuid.New().String() + ".jpg"
}
