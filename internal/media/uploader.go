// Package media stores property photos in S3 (or an S3-compatible service),
// falling back to a local directory in development.
package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hostprompt/internal/config"
)

// MaxPhotoBytes caps a single photo upload.
const MaxPhotoBytes = 10 << 20

var (
	// ErrUploaderDisabled indicates that uploads are not currently enabled.
	ErrUploaderDisabled = errors.New("media uploader disabled")
	// ErrUnsupportedType is returned for payloads that are not a known image format.
	ErrUnsupportedType = errors.New("unsupported image type")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadInput wraps the payload required for persisting a file.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// UploadResult captures the canonical object key and its accessible URL.
type UploadResult struct {
	Key string
	URL string
}

// Uploader hides the backing implementation for storing files.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (UploadResult, error)
}

type disabledUploader struct{}

func (disabledUploader) Upload(_ context.Context, _ UploadInput) (UploadResult, error) {
	return UploadResult{}, ErrUploaderDisabled
}

// Disabled returns an uploader that always signals disabled uploads.
func Disabled() Uploader {
	return disabledUploader{}
}

// New picks S3 when a bucket and region are configured, a local directory
// when LocalDir is set, and a disabled uploader otherwise.
func New(ctx context.Context, cfg config.MediaConfig) (Uploader, error) {
	switch {
	case cfg.Bucket != "" && cfg.Region != "":
		return NewS3Uploader(ctx, cfg)
	case cfg.LocalDir != "":
		return NewLocalUploader(cfg.LocalDir, LocalURLPrefix)
	default:
		return Disabled(), nil
	}
}

// DetectImageType sniffs the first bytes of a file and returns its MIME type
// when it is an image we accept.
func DetectImageType(head []byte) (string, error) {
	mime := http.DetectContentType(head)
	if _, ok := imageExtensions[mime]; !ok {
		return "", ErrUnsupportedType
	}
	return mime, nil
}

// objectName returns a random file name keeping a sane extension.
func objectName(filename, contentType string) string {
	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(filename))
		if len(ext) > 10 {
			ext = ext[:10]
		}
	}
	return uuid.NewString() + ext
}
