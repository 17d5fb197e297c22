package vision

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"hostprompt/internal/config"
)

// NewFromConfig picks the describer for cfg.VisionProvider, defaulting to
// cfg.Provider. A nil Describer with a nil error means photos get the
// fallback description.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (Describer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.VisionProvider))
	if provider == "" {
		provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	}

	switch provider {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
		client := openai.NewClient(opts...)
		return NewOpenAIDescriber(&client, cfg.VisionModel), nil
	case "gemini", "vertex":
		if cfg.GeminiAPIKey == "" {
			if provider == "vertex" {
				log.Warn().Msg("vertex has no photo describer; set GEMINI_API_KEY or AI_VISION_PROVIDER=openai")
			}
			return nil, nil
		}
		model := cfg.VisionModel
		if strings.HasPrefix(model, "gpt-") {
			model = ""
		}
		d, err := NewGeminiDescriber(ctx, GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("vision: unknown provider %q", provider)
	}
}
