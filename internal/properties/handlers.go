// Package properties serves property CRUD and photo management.
package properties

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hostprompt/internal/auth"
	"hostprompt/internal/httputil"
	"hostprompt/internal/media"
	"hostprompt/internal/storage"
)

// Handler bundles dependencies for property endpoints.
type Handler struct {
	Store    storage.Store
	Uploader media.Uploader
}

// CreateRequest describes the payload for POST /api/properties.
type CreateRequest struct {
	Name                 string   `json:"name" validate:"required,max=200"`
	Location             string   `json:"location" validate:"max=200"`
	Bedrooms             int      `json:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms            float64  `json:"bathrooms" validate:"gte=0,lte=100"`
	Description          string   `json:"description" validate:"max=5000"`
	HeroImageURL         string   `json:"heroImageUrl" validate:"max=2048"`
	Status               string   `json:"status" validate:"omitempty,oneof=active inactive draft"`
	Amenities            []string `json:"amenities" validate:"max=100,dive,max=100"`
	BrandVoice           string   `json:"brandVoice" validate:"max=200"`
	BrandVoiceSummary    string   `json:"brandVoiceSummary" validate:"max=500"`
	UseBrandVoiceDefault bool     `json:"useBrandVoiceDefault"`
	SavedHashtags        []string `json:"savedHashtags" validate:"max=30,dive,max=100"`
	HostSignature        string   `json:"hostSignature" validate:"max=200"`
}

// UpdateRequest is the PATCH payload; nil fields are left alone.
type UpdateRequest struct {
	Name                 *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Location             *string   `json:"location" validate:"omitempty,max=200"`
	Bedrooms             *int      `json:"bedrooms" validate:"omitempty,gte=0,lte=100"`
	Bathrooms            *float64  `json:"bathrooms" validate:"omitempty,gte=0,lte=100"`
	Description          *string   `json:"description" validate:"omitempty,max=5000"`
	HeroImageURL         *string   `json:"heroImageUrl" validate:"omitempty,max=2048"`
	Status               *string   `json:"status" validate:"omitempty,oneof=active inactive draft"`
	Amenities            *[]string `json:"amenities" validate:"omitempty,max=100"`
	BrandVoice           *string   `json:"brandVoice" validate:"omitempty,max=200"`
	BrandVoiceSummary    *string   `json:"brandVoiceSummary" validate:"omitempty,max=500"`
	UseBrandVoiceDefault *bool     `json:"useBrandVoiceDefault"`
	SavedHashtags        *[]string `json:"savedHashtags" validate:"omitempty,max=30"`
	HostSignature        *string   `json:"hostSignature" validate:"omitempty,max=200"`
}

// List handles GET /api/properties.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	props, err := h.Store.ListProperties(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, props)
}

// Create handles POST /api/properties.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.Store.CreateProperty(r.Context(), storage.Property{
		OwnerID:              auth.UserID(r.Context()),
		Name:                 req.Name,
		Location:             req.Location,
		Bedrooms:             req.Bedrooms,
		Bathrooms:            req.Bathrooms,
		Description:          req.Description,
		HeroImageURL:         req.HeroImageURL,
		Status:               storage.PropertyStatus(req.Status),
		Amenities:            req.Amenities,
		BrandVoice:           req.BrandVoice,
		BrandVoiceSummary:    req.BrandVoiceSummary,
		UseBrandVoiceDefault: req.UseBrandVoiceDefault,
		SavedHashtags:        req.SavedHashtags,
		HostSignature:        req.HostSignature,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/properties/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

// Update handles PATCH /api/properties/{id}.
func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req UpdateRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}
	req.apply(&p)

	updated, err := h.Store.UpdateProperty(r.Context(), p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/properties/{id}.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteProperty(r.Context(), p.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto handles POST /api/properties/{id}/photos with a multipart
// "photo" file and optional "name" and "isPrimary" fields.
func (h Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	upload, err := parsePhotoUpload(w, r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.Uploader == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "Photo uploads are not configured")
		return
	}
	result, err := h.Uploader.Upload(r.Context(), media.UploadInput{
		Filename:    upload.filename,
		ContentType: upload.contentType,
		Body:        bytes.NewReader(upload.data),
		Size:        int64(len(upload.data)),
	})
	if err != nil {
		if errors.Is(err, media.ErrUploaderDisabled) {
			httputil.RespondError(w, http.StatusServiceUnavailable, "Photo uploads are not configured")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Str("property_id", p.ID).Msg("photo upload failed")
		httputil.RespondError(w, http.StatusInternalServerError, "Could not store photo")
		return
	}

	photo, err := h.Store.AddPhoto(r.Context(), p.ID, storage.Photo{
		URL:       result.URL,
		Name:      upload.name,
		IsPrimary: upload.primary,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, photo)
}

// SetPrimaryPhoto handles PUT /api/properties/{id}/photos/{photoID}/primary.
func (h Handler) SetPrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.SetPrimaryPhoto(r.Context(), p.ID, chi.URLParam(r, "photoID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondProperty(w, r, p.ID)
}

// DeletePhoto handles DELETE /api/properties/{id}/photos/{photoID}.
func (h Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	p, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.DeletePhoto(r.Context(), p.ID, chi.URLParam(r, "photoID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondProperty(w, r, p.ID)
}

func (h Handler) owned(r *http.Request) (storage.Property, error) {
	return storage.OwnedProperty(r.Context(), h.Store, auth.UserID(r.Context()), chi.URLParam(r, "id"))
}

func (h Handler) respondProperty(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.Store.GetProperty(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

func (h Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "Property not found")
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("property request failed")
	httputil.RespondError(w, http.StatusInternalServerError, "Something went wrong")
}

func (req UpdateRequest) apply(p *storage.Property) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.Bedrooms != nil {
		p.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		p.Bathrooms = *req.Bathrooms
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.HeroImageURL != nil {
		p.HeroImageURL = *req.HeroImageURL
	}
	if req.Status != nil {
		p.Status = storage.PropertyStatus(*req.Status)
	}
	if req.Amenities != nil {
		p.Amenities = *req.Amenities
	}
	if req.BrandVoice != nil {
		p.BrandVoice = *req.BrandVoice
	}
	if req.BrandVoiceSummary != nil {
		p.BrandVoiceSummary = *req.BrandVoiceSummary
	}
	if req.UseBrandVoiceDefault != nil {
		p.UseBrandVoiceDefault = *req.UseBrandVoiceDefault
	}
	if req.SavedHashtags != nil {
		p.SavedHashtags = *req.SavedHashtags
	}
	if req.HostSignature != nil {
		p.HostSignature = *req.HostSignature
	}
}

type photoUpload struct {
	data        []byte
	filename    string
	contentType string
	name        string
	primary     bool
}

func parsePhotoUpload(w http.ResponseWriter, r *http.Request) (photoUpload, error) {
	const maxFormMemory = media.MaxPhotoBytes + (1 << 20)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return photoUpload{}, fmt.Errorf("invalid multipart payload: %w", err)
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return photoUpload{}, errors.New("photo file is required")
		}
		return photoUpload{}, fmt.Errorf("could not read photo: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxPhotoBytes+1))
	if err != nil {
		return photoUpload{}, fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return photoUpload{}, errors.New("photo is empty")
	}
	if len(data) > media.MaxPhotoBytes {
		return photoUpload{}, fmt.Errorf("photo is too large (max %d MB)", media.MaxPhotoBytes/(1024*1024))
	}

	contentType, err := media.DetectImageType(data)
	if err != nil {
		return photoUpload{}, errors.New("photo must be a JPEG, PNG, GIF or WebP image")
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}
	primary, _ := strconv.ParseBool(r.FormValue("isPrimary"))

	return photoUpload{
		data:        data,
		filename:    header.Filename,
		contentType: contentType,
		name:        name,
		primary:     primary,
	}, nil
}
