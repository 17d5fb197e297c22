package properties

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/auth"
	"hostprompt/internal/media"
	"hostprompt/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func newRouter(t *testing.T, userID string) (http.Handler, storage.Store) {
	t.Helper()
	store := storage.NewInMemoryStore()
	up, err := media.NewLocalUploader(t.TempDir(), media.LocalURLPrefix)
	require.NoError(t, err)
	h := Handler{Store: store, Uploader: up}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithUser(req.Context(), storage.User{ID: userID})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/properties", h.List)
	r.Post("/api/properties", h.Create)
	r.Get("/api/properties/{id}", h.Get)
	r.Patch("/api/properties/{id}", h.Update)
	r.Delete("/api/properties/{id}", h.Delete)
	r.Post("/api/properties/{id}/photos", h.UploadPhoto)
	r.Put("/api/properties/{id}/photos/{photoID}/primary", h.SetPrimaryPhoto)
	r.Delete("/api/properties/{id}/photos/{photoID}", h.DeletePhoto)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestPropertyCRUD(t *testing.T) {
	h, _ := newRouter(t, "owner-1")

	rr := do(t, h, http.MethodPost, "/api/properties", `{"name":"Lake Cabin","bedrooms":3,"bathrooms":1.5,"savedHashtags":["#LakeLife","lake life"]}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[storage.Property](t, rr)
	assert.Equal(t, "owner-1", created.OwnerID)
	assert.Equal(t, []string{"LakeLife"}, created.SavedHashtags)

	rr = do(t, h, http.MethodPatch, "/api/properties/"+created.ID, `{"hostSignature":"Sam","useBrandVoiceDefault":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[storage.Property](t, rr)
	assert.Equal(t, "Sam", updated.HostSignature)
	assert.True(t, updated.UseBrandVoiceDefault)
	assert.Equal(t, "Lake Cabin", updated.Name)

	rr = do(t, h, http.MethodGet, "/api/properties", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]storage.Property](t, rr), 1)

	rr = do(t, h, http.MethodDelete, "/api/properties/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/properties/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateValidation(t *testing.T) {
	h, _ := newRouter(t, "owner-1")

	rr := do(t, h, http.MethodPost, "/api/properties", `{"bedrooms":2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/properties", `{"name":"x","status":"sold"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestForeignPropertyIsNotFound(t *testing.T) {
	h, store := newRouter(t, "owner-2")
	p, err := store.CreateProperty(context.Background(), storage.Property{OwnerID: "owner-1", Name: "Not yours"})
	require.NoError(t, err)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr := do(t, h, method, "/api/properties/"+p.ID, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
	}
	rr := do(t, h, http.MethodPatch, "/api/properties/"+p.ID, `{"name":"mine now"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func uploadPhoto(t *testing.T, h http.Handler, propertyID string, data []byte, name string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "deck.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/properties/"+propertyID+"/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPhotoUploadAndPrimary(t *testing.T) {
	h, store := newRouter(t, "owner-1")
	p, err := store.CreateProperty(context.Background(), storage.Property{OwnerID: "owner-1", Name: "Lake Cabin"})
	require.NoError(t, err)

	rr := uploadPhoto(t, h, p.ID, pngBytes, "Deck")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	first := decode[storage.Photo](t, rr)
	assert.True(t, first.IsPrimary)
	assert.Equal(t, "Deck", first.Name)
	assert.True(t, strings.HasPrefix(first.URL, "/media/"))

	rr = uploadPhoto(t, h, p.ID, pngBytes, "Dock")
	require.Equal(t, http.StatusCreated, rr.Code)
	second := decode[storage.Photo](t, rr)
	assert.False(t, second.IsPrimary)

	rr = do(t, h, http.MethodPut, "/api/properties/"+p.ID+"/photos/"+second.ID+"/primary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[storage.Property](t, rr)
	for _, photo := range got.Photos {
		assert.Equal(t, photo.ID == second.ID, photo.IsPrimary, photo.ID)
	}

	rr = do(t, h, http.MethodDelete, "/api/properties/"+p.ID+"/photos/"+second.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	got = decode[storage.Property](t, rr)
	require.Len(t, got.Photos, 1)
	assert.True(t, got.Photos[0].IsPrimary)

	rr = do(t, h, http.MethodDelete, "/api/properties/"+p.ID+"/photos/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = uploadPhoto(t, h, p.ID, []byte("plain text, not an image"), "notes")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
