package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"hostprompt/internal/observability"
)

const defaultGeminiVisionModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini describer. BaseURL is only set in tests.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	BaseURL string
}

// GeminiDescriber sends photos inline to Gemini through the genai SDK.
type GeminiDescriber struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiDescriber constructs the SDK client once.
func NewGeminiDescriber(ctx context.Context, cfg GeminiConfig) (*GeminiDescriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("vision: gemini API key is required")
	}
	model := strings.TrimPrefix(strings.TrimSpace(cfg.Model), "models/")
	if model == "" {
		model = defaultGeminiVisionModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("vision: create genai client: %w", err)
	}
	return &GeminiDescriber{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiDescriber) Describe(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}

	childCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(describePrompt),
			genai.NewPartFromBytes(img.Data, detectMime(img.Data, img.MIME)),
		}, genai.RoleUser),
	}
	temperature := float32(0.2)

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(childCtx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	observability.ObserveExternal("gemini", "vision", observability.StatusOf(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("vision: gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vision: gemini returned no candidates")
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("vision: gemini candidate missing text")
	}
	return strings.Join(parts, " "), nil
}
