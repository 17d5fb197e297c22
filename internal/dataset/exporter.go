// Package dataset turns a host's saved content into prompt/completion pairs
// and reads past writing from .docx files.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"hostprompt/internal/prompts"
	"hostprompt/internal/storage"
)

// Example represents a single prompt/completion pair for fine-tuning.
type Example struct {
	ContentID   string `json:"content_id"`
	PropertyID  string `json:"property_id"`
	ContentType string `json:"content_type"`
	BrandVoice  string `json:"brand_voice,omitempty"`
	Prompt      string `json:"prompt"`
	Completion  string `json:"completion"`
}

// Options control which saved items are exported.
type Options struct {
	MinWords    int
	ContentType storage.ContentType
}

// BuildExamples pairs each saved item with the prompt that would produce it
// today. Items whose property is gone or that are too short are skipped.
func BuildExamples(items []storage.SavedContent, properties map[string]storage.Property, opts Options) []Example {
	if opts.MinWords <= 0 {
		opts.MinWords = 10
	}

	var examples []Example
	for _, item := range items {
		if opts.ContentType != "" && item.ContentType != opts.ContentType {
			continue
		}
		property, ok := properties[item.PropertyID]
		if !ok {
			continue
		}
		completion := strings.TrimSpace(item.Content)
		if wordCount(completion) < opts.MinWords {
			continue
		}

		ct := item.ContentType
		if !ct.Valid() {
			ct = storage.ContentSocialCaption
		}
		voice := prompts.ParseVoiceLabel(item.BrandVoice)
		if voice.CustomVoice != "" && voice.CustomVoice == strings.TrimSpace(property.BrandVoice) {
			voice.CustomVoiceSummary = property.BrandVoiceSummary
		}
		prompt := prompts.Compose(prompts.Request{
			ContentType: ct,
			BrandVoice:  voice,
			CTA:         item.CTAEnhancements,
		}, property, "")

		if title := strings.TrimSpace(item.Title); title != "" {
			completion = fmt.Sprintf("Title: %s\n%s", title, completion)
		}
		examples = append(examples, Example{
			ContentID:   item.ID,
			PropertyID:  item.PropertyID,
			ContentType: string(item.ContentType),
			BrandVoice:  item.BrandVoice,
			Prompt:      strings.TrimSpace(prompt.System + "\n\n" + prompt.User),
			Completion:  completion,
		})
	}
	return examples
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// WriteJSONL serializes examples as JSON Lines.
func WriteJSONL(w io.Writer, examples []Example) error {
	enc := json.NewEncoder(w)
	for _, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("encode example %s: %w", ex.ContentID, err)
		}
	}
	return nil
}
