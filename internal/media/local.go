package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalURLPrefix is where the server exposes files written by LocalUploader.
const LocalURLPrefix = "/media"

// LocalUploader stores files on the local filesystem for development setups
// without object storage.
type LocalUploader struct {
	BaseDir   string
	URLPrefix string
}

// NewLocalUploader constructs an uploader that writes to the provided directory.
// If baseDir is empty, os.TempDir() is used.
func NewLocalUploader(baseDir, urlPrefix string) (*LocalUploader, error) {
	dir := baseDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create local media dir: %w", err)
	}
	return &LocalUploader{BaseDir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Upload writes the content to a new file and returns its served URL.
func (l *LocalUploader) Upload(_ context.Context, input UploadInput) (UploadResult, error) {
	if input.Body == nil {
		return UploadResult{}, fmt.Errorf("upload body is required")
	}

	name := objectName(input.Filename, input.ContentType)
	f, err := os.CreateTemp(l.BaseDir, "hostprompt-*-"+name)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(input.Body, MaxPhotoBytes+1)); err != nil {
		os.Remove(f.Name())
		return UploadResult{}, fmt.Errorf("write file: %w", err)
	}

	base := filepath.Base(f.Name())
	return UploadResult{
		Key: base,
		URL: l.URLPrefix + "/" + base,
	}, nil
}
