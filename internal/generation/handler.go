package generation

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"hostprompt/internal/auth"
	"hostprompt/internal/events"
	"hostprompt/internal/httputil"
	"hostprompt/internal/prompts"
	"hostprompt/internal/storage"
)

// Handler exposes the generation endpoints.
type Handler struct {
	Service  *Service
	Analyzer Analyzer
	Broker   *events.Broker
}

type brandVoiceRequest struct {
	Input      string `json:"input" validate:"required,max=20000"`
	InputType  string `json:"inputType" validate:"required,oneof=description captions"`
	PropertyID string `json:"propertyId" validate:"required"`
}

// GenerateContent handles POST /api/generate-content.
func (h Handler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	content, err := h.Service.Generate(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.respondError(w, err, "Failed to generate content")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, content)
}

// EditContent handles POST /api/edit-content-with-prompt.
func (h Handler) EditContent(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.Service.Edit(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.respondError(w, err, "Failed to edit content")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// AnalyzeBrandVoice handles POST /api/analyze-brand-voice. The result,
// fallback included, is stored on the property.
func (h Handler) AnalyzeBrandVoice(w http.ResponseWriter, r *http.Request) {
	var req brandVoiceRequest
	if !httputil.DecodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	if _, err := storage.OwnedProperty(ctx, h.Service.Store, auth.UserID(ctx), req.PropertyID); err != nil {
		h.respondError(w, err, "Failed to analyze brand voice")
		return
	}

	voice := h.Analyzer.Analyze(ctx, req.Input, req.InputType)
	if _, err := h.Service.Store.UpdateBrandVoice(ctx, req.PropertyID, voice.BrandVoice, voice.BrandVoiceSummary); err != nil {
		h.respondError(w, err, "Failed to save brand voice")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, voice)
}

// Events handles GET /api/events, streaming the caller's generation progress.
func (h Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.Broker.ServeSSE(w, r, auth.UserID(r.Context()))
}

// Options handles GET /api/generation-options so clients can build pickers.
func (h Handler) Options(w http.ResponseWriter, _ *http.Request) {
	types := make([]map[string]string, 0, 6)
	for _, ct := range []storage.ContentType{
		storage.ContentSocialCaption,
		storage.ContentListingDescription,
		storage.ContentWelcomeMessage,
		storage.ContentHouseRules,
		storage.ContentGuestReengagement,
		storage.ContentBookingGap,
	} {
		types = append(types, map[string]string{"value": string(ct), "label": ct.Label()})
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"contentTypes": types,
		"tones":        prompts.Tones,
		"styles":       prompts.Styles,
		"lengths":      prompts.Lengths,
	})
}

func (h Handler) respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Property not found")
	default:
		if !errors.Is(err, ErrGenerationFailed) {
			log.Error().Err(err).Msg(fallback)
		}
		httputil.RespondError(w, http.StatusInternalServerError, fallback)
	}
}
