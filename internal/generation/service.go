// Package generation runs the content pipeline: property lookup, optional
// photo description, prompt composition, one model call and cleanup.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hostprompt/internal/events"
	"hostprompt/internal/llm"
	"hostprompt/internal/observability"
	"hostprompt/internal/postprocess"
	"hostprompt/internal/prompts"
	"hostprompt/internal/storage"
	"hostprompt/internal/vision"
)

// ErrGenerationFailed wraps any model failure during generation or editing.
var ErrGenerationFailed = errors.New("generation failed")

const (
	temperature = 0.7
	maxTokens   = 1500
)

// PhotoData is an inline photo sent with a generation request.
type PhotoData struct {
	Base64Image string `json:"base64Image"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

// Request is the body of POST /api/generate-content.
type Request struct {
	PropertyID      string                  `json:"propertyId" validate:"required"`
	ContentType     storage.ContentType     `json:"contentType" validate:"required,oneof=social_media_caption listing_description welcome_message house_rules guest_reengagement booking_gap_filler"`
	BrandVoice      prompts.BrandVoice      `json:"brandVoice"`
	CTAEnhancements storage.CTAEnhancements `json:"ctaEnhancements"`
	PhotoData       *PhotoData              `json:"photoData,omitempty"`
	ImageURL        string                  `json:"imageUrl,omitempty" validate:"max=2048"`
	ContentLength   string                  `json:"contentLength,omitempty" validate:"omitempty,oneof=short medium long"`
	CustomWordCount int                     `json:"customWordCount,omitempty" validate:"gte=0,lte=1000"`
	BookingGap      *prompts.BookingGap     `json:"bookingGap,omitempty"`
}

// Content is the structured result handed back to the caller.
type Content struct {
	Title           string                  `json:"title"`
	Content         string                  `json:"content"`
	Keywords        []string                `json:"keywords"`
	PropertyID      string                  `json:"propertyId"`
	ContentType     storage.ContentType     `json:"contentType"`
	ImageURL        string                  `json:"imageUrl,omitempty"`
	GeneratedAt     time.Time               `json:"generatedAt"`
	BrandVoice      string                  `json:"brandVoice"`
	CTAEnhancements storage.CTAEnhancements `json:"ctaEnhancements"`
}

// Service orchestrates generation and editing.
type Service struct {
	Store     storage.Store
	LLM       llm.Client
	Describer vision.Describer
	Events    events.Publisher
	Now       func() time.Time
	// EditModel overrides the client's default model for Edit.
	EditModel string
}

// Generate produces copy for one request owned by ownerID. A missing or
// foreign property yields storage.ErrNotFound; a model failure yields
// ErrGenerationFailed.
func (s *Service) Generate(ctx context.Context, ownerID string, req Request) (Content, error) {
	run := s.newRun(ownerID, req)

	run.stage(events.StageReceived)
	property, err := storage.OwnedProperty(ctx, s.Store, ownerID, req.PropertyID)
	if err != nil {
		run.stage(events.StageFailed)
		return Content{}, err
	}

	internalType := req.ContentType
	if internalType == storage.ContentBookingGap && req.BookingGap != nil {
		internalType = storage.ContentBookingGapSpecial
	}

	var photoDescription, caption string
	if req.PhotoData != nil && strings.TrimSpace(req.PhotoData.Base64Image) != "" {
		run.stage(events.StageDescribing)
		caption = req.PhotoData.Description
		photoDescription = s.describe(ctx, req.PhotoData.Base64Image, property.Name)
	}

	run.stage(events.StageComposing)
	voice := prompts.ResolveVoice(req.BrandVoice, property)
	result := Content{
		PropertyID:      property.ID,
		ContentType:     req.ContentType,
		ImageURL:        req.ImageURL,
		BrandVoice:      voice.Label(),
		CTAEnhancements: req.CTAEnhancements,
	}

	if internalType == storage.ContentBookingGapSpecial {
		tpl := prompts.RenderBookingGap(*req.BookingGap)
		result.Title = tpl.Title
		result.Content = tpl.Body
		result.Keywords = tpl.Keywords
		result.GeneratedAt = s.now()
		run.stage(events.StageDone)
		return result, nil
	}

	prompt := prompts.Compose(prompts.Request{
		ContentType:     internalType,
		BrandVoice:      req.BrandVoice,
		CTA:             req.CTAEnhancements,
		ContentLength:   req.ContentLength,
		CustomWordCount: req.CustomWordCount,
		ImageCaption:    caption,
	}, property, photoDescription)

	run.stage(events.StageModelCall)
	raw, err := s.LLM.ChatCompletion(llm.WithMaxTokens(ctx, maxTokens), llm.Conversation(prompt.System, prompt.User), temperature)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("property_id", property.ID).Str("content_type", string(internalType)).Msg("model call failed")
		run.stage(events.StageFailed)
		return Content{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	run.stage(events.StagePostProcessing)
	processed := postprocess.Process(raw, internalType, property.SavedHashtags)
	result.Title = processed.Title
	if result.Title == "" {
		result.Title = fallbackTitle(internalType, property)
	}
	result.Content = processed.Body
	result.Keywords = processed.Keywords
	result.GeneratedAt = s.now()

	run.stage(events.StageDone)
	return result, nil
}

func (s *Service) describe(ctx context.Context, raw, propertyName string) string {
	img, err := vision.DecodeImage(raw)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("photo payload unusable, using fallback description")
		return vision.FallbackDescription(propertyName)
	}
	return vision.DescribeOrFallback(ctx, s.Describer, img, propertyName)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func fallbackTitle(ct storage.ContentType, p storage.Property) string {
	if p.Name == "" {
		return ct.Label()
	}
	return fmt.Sprintf("%s - %s", ct.Label(), p.Name)
}

type run struct {
	events      events.Publisher
	id          string
	ownerID     string
	propertyID  string
	contentType string
}

func (s *Service) newRun(ownerID string, req Request) run {
	return run{
		events:      s.Events,
		id:          uuid.NewString(),
		ownerID:     ownerID,
		propertyID:  req.PropertyID,
		contentType: string(req.ContentType),
	}
}

func (r run) stage(stage events.Stage) {
	observability.ObserveStage(r.contentType, string(stage))
	if r.events == nil {
		return
	}
	r.events.Publish(events.Event{
		RequestID:   r.id,
		OwnerID:     r.ownerID,
		PropertyID:  r.propertyID,
		ContentType: r.contentType,
		Stage:       stage,
	})
}
