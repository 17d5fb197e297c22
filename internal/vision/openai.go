package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"hostprompt/internal/observability"
)

const defaultOpenAIVisionModel = "gpt-4o-mini"

// OpenAIDescriber describes photos with a vision-capable chat model.
type OpenAIDescriber struct {
	client *openai.Client
	model  string
}

// NewOpenAIDescriber reuses an SDK client, typically llm.OpenAIClient.SDK().
func NewOpenAIDescriber(client *openai.Client, model string) *OpenAIDescriber {
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIVisionModel
	}
	return &OpenAIDescriber{client: client, model: model}
}

func (d *OpenAIDescriber) Describe(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}

	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(d.model),
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(300),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(describePrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    img.DataURL(),
					Detail: "low",
				}),
			}),
		},
	}

	start := time.Now()
	resp, err := d.client.Chat.Completions.New(ctx, req)
	observability.ObserveExternal("openai", "vision", observability.StatusOf(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("vision: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision: openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
