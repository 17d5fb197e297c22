package llm

import "context"

type contextKey string

const (
	modelContextKey     contextKey = "llm-model-override"
	maxTokensContextKey contextKey = "llm-max-tokens"
)

// WithModel returns a context carrying a preferred model override.
func WithModel(ctx context.Context, model string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	model = normalizeModel(model)
	if model == "" {
		return ctx
	}
	return context.WithValue(ctx, modelContextKey, model)
}

// WithMaxTokens caps the length of the completion for calls made with ctx.
func WithMaxTokens(ctx context.Context, n int) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if n <= 0 {
		return ctx
	}
	return context.WithValue(ctx, maxTokensContextKey, n)
}

// ModelFromContext returns the override set by WithModel, if any.
func ModelFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(modelContextKey).(string); ok {
		return normalizeModel(value)
	}
	return ""
}

func maxTokensFromContext(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	n, _ := ctx.Value(maxTokensContextKey).(int)
	return n
}
