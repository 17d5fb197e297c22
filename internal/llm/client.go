package llm

import (
	"context"
	"errors"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrDisabled is returned when no model provider is configured.
var ErrDisabled = errors.New("llm: no provider configured")

// ChatMessage represents a generic chat turn in the prompt history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the behaviour required by the generation package.
type Client interface {
	ChatCompletion(ctx context.Context, messages []ChatMessage, temperature float64) (string, error)
}

// Conversation returns the usual system + user message pair.
func Conversation(system, user string) []ChatMessage {
	msgs := make([]ChatMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: system})
	}
	return append(msgs, ChatMessage{Role: RoleUser, Content: user})
}

// Disabled is a Client that always fails with ErrDisabled.
type Disabled struct{}

func (Disabled) ChatCompletion(context.Context, []ChatMessage, float64) (string, error) {
	return "", ErrDisabled
}
