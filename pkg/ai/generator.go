package ai

import "context"

// ChatMessage is one entry in a chat-completions message list.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatGenerator produces a completion for an ordered message list.
// The upstream LLM provider implements this interface.
type ChatGenerator interface {
	GenerateChat(ctx context.Context, messages []ChatMessage) (string, error)
}
