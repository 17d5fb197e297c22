package generation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hostprompt/internal/llm"
	"hostprompt/internal/postprocess"
	"hostprompt/internal/prompts"
	"hostprompt/internal/storage"
)

// EditRequest is the body of POST /api/edit-content-with-prompt.
type EditRequest struct {
	Content     string              `json:"content" validate:"required,max=20000"`
	Prompt      string              `json:"prompt" validate:"required,max=2000"`
	PropertyID  string              `json:"propertyId"`
	ContentType storage.ContentType `json:"contentType"`
}

// EditResult pairs the original text with the rewrite.
type EditResult struct {
	OriginalContent string `json:"originalContent"`
	EditedContent   string `json:"editedContent"`
	Prompt          string `json:"prompt"`
}

// Edit rewrites existing text per the host's instruction. When a property is
// named it must belong to ownerID and its brand voice scopes the rewrite.
func (s *Service) Edit(ctx context.Context, ownerID string, req EditRequest) (EditResult, error) {
	var property storage.Property
	if req.PropertyID != "" {
		p, err := storage.OwnedProperty(ctx, s.Store, ownerID, req.PropertyID)
		if err != nil {
			return EditResult{}, err
		}
		property = p
	}

	prompt := prompts.ComposeEdit(req.Content, req.Prompt, req.ContentType, property)
	raw, err := s.LLM.ChatCompletion(llm.WithMaxTokens(llm.WithModel(ctx, s.EditModel), maxTokens), llm.Conversation(prompt.System, prompt.User), temperature)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("property_id", req.PropertyID).Msg("edit model call failed")
		return EditResult{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return EditResult{
		OriginalContent: req.Content,
		EditedContent:   postprocess.StripFormatting(raw),
		Prompt:          req.Prompt,
	}, nil
}
