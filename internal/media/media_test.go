package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectImageType(t *testing.T) {
	mime, err := DetectImageType(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = DetectImageType([]byte("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalUploader(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "/media/")
	require.NoError(t, err)

	res, err := up.Upload(context.Background(), UploadInput{
		Filename:    "deck.PNG",
		ContentType: "image/png",
		Body:        bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.URL, "/media/hostprompt-"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, res.Key))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, written)

	_, err = up.Upload(context.Background(), UploadInput{})
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	up, err := New(ctx, config.MediaConfig{})
	require.NoError(t, err)
	_, err = up.Upload(ctx, UploadInput{Body: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, ErrUploaderDisabled)

	up, err = New(ctx, config.MediaConfig{LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalUploader{}, up)
}

func TestS3UploaderPutsObject(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method = r.Method
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, err := NewS3Uploader(context.Background(), config.MediaConfig{
		Bucket:          "photos",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		ForcePathStyle:  true,
		KeyPrefix:       "uploads",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	res, err := up.Upload(context.Background(), UploadInput{
		Filename:    "deck.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(pngHeader),
		Size:        int64(len(pngHeader)),
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasPrefix(path, "/photos/uploads/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, srv.URL+"/photos/"+res.Key, res.URL)
	assert.NotEmpty(t, body)
}
