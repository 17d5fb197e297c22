// Package library serves the saved-content library.
package library

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hostprompt/internal/auth"
	"hostprompt/internal/httputil"
	"hostprompt/internal/storage"
)

// Handler exposes saved content endpoints.
type Handler struct {
	Store storage.Store
}

// SaveRequest is the body of POST /api/content, usually a generation result.
type SaveRequest struct {
	PropertyID      string                  `json:"propertyId" validate:"required"`
	ContentType     storage.ContentType     `json:"contentType" validate:"required,oneof=social_media_caption listing_description welcome_message house_rules guest_reengagement booking_gap_filler"`
	Title           string                  `json:"title" validate:"max=300"`
	Content         string                  `json:"content" validate:"required,max=20000"`
	Keywords        []string                `json:"keywords" validate:"max=50"`
	ImageURL        string                  `json:"imageUrl" validate:"max=2048"`
	BrandVoice      string                  `json:"brandVoice" validate:"max=300"`
	CTAEnhancements storage.CTAEnhancements `json:"ctaEnhancements"`
	GeneratedAt     *time.Time              `json:"generatedAt"`
}

// Save handles POST /api/content. A new record answers 201; an identical
// existing one answers 200 with that record.
func (h Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	ownerID := auth.UserID(ctx)
	if _, err := storage.OwnedProperty(ctx, h.Store, ownerID, req.PropertyID); err != nil {
		h.respondError(w, r, err, "Property not found")
		return
	}

	item := storage.SavedContent{
		OwnerID:         ownerID,
		PropertyID:      req.PropertyID,
		ContentType:     req.ContentType,
		Title:           strings.TrimSpace(req.Title),
		Content:         req.Content,
		Keywords:        req.Keywords,
		ImageURL:        req.ImageURL,
		BrandVoice:      req.BrandVoice,
		CTAEnhancements: req.CTAEnhancements,
	}
	if req.GeneratedAt != nil {
		item.GeneratedAt = *req.GeneratedAt
	}

	saved, created, err := h.Store.SaveContent(ctx, item)
	if err != nil {
		h.respondError(w, r, err, "Property not found")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, saved)
}

// List handles GET /api/content, optionally filtered by ?propertyId=.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := storage.ContentFilter{
		OwnerID:    auth.UserID(ctx),
		PropertyID: strings.TrimSpace(r.URL.Query().Get("propertyId")),
	}

	items, err := h.Store.ListContent(ctx, filter)
	if err != nil {
		h.respondError(w, r, err, "Content not found")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// Get handles GET /api/content/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err, "Content not found")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/content/{id}.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	item, err := h.owned(r)
	if err != nil {
		h.respondError(w, r, err, "Content not found")
		return
	}
	if err := h.Store.DeleteContent(r.Context(), item.ID); err != nil {
		h.respondError(w, r, err, "Content not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h Handler) owned(r *http.Request) (storage.SavedContent, error) {
	item, err := h.Store.GetContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return storage.SavedContent{}, err
	}
	if item.OwnerID != auth.UserID(r.Context()) {
		return storage.SavedContent{}, storage.ErrNotFound
	}
	return item, nil
}

func (h Handler) respondError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, storage.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, notFound)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("content request failed")
	httputil.RespondError(w, http.StatusInternalServerError, "Something went wrong")
}
