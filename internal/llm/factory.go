package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/option"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"hostprompt/internal/config"
)

const generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"

// NewFromConfig builds the chat client selected by cfg.Provider, wrapped in
// the configured rate limit. Missing credentials yield Disabled rather than
// an error so the server can still start.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (Client, error) {
	var (
		client Client
		err    error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return Disabled{}, nil
		}
		var opts []option.RequestOption
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
		client = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model, opts...)
	case "gemini":
		ts, tsErr := googleTokenSource(ctx, cfg.CredentialsFile)
		if tsErr != nil {
			return nil, tsErr
		}
		if cfg.GeminiAPIKey == "" && ts == nil {
			return Disabled{}, nil
		}
		client = NewGeminiClient(cfg.GeminiAPIKey, cfg.Model, cfg.Timeout, ts)
	case "vertex":
		client, err = NewVertexClient(ctx, VertexConfig{
			ProjectID:       cfg.VertexProject,
			Location:        cfg.VertexLocation,
			Model:           cfg.Model,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}

	return NewRateLimited(client, cfg.RequestsPerSecond), nil
}

// googleTokenSource reads a service account file for the Generative
// Language API. An empty path means API key auth.
func googleTokenSource(ctx context.Context, path string) (oauth2.TokenSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, generativeLanguageScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return creds.TokenSource, nil
}
