package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"hostprompt/internal/observability"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClient wraps the chat completion endpoint of the official SDK.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs a client using the provided API key and default
// model. Extra options (base URL, retries) are passed to the SDK as is.
func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	c := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIClient{client: &c, model: model}
}

// SDK exposes the underlying client so vision calls can share it.
func (c *OpenAIClient) SDK() *openai.Client {
	return c.client
}

// ChatCompletion sends chat messages to OpenAI and returns the first response content.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(temperature),
	}
	if override := ModelFromContext(ctx); override != "" {
		params.Model = shared.ChatModel(override)
	}
	if n := maxTokensFromContext(ctx); n > 0 {
		params.MaxTokens = openai.Int(int64(n))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	observability.ObserveExternal("openai", "chat.completions", openAIStatus(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func openAIStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
