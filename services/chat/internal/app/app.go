package app

import (
	"context"
	"fmt"
	"strings"

	"wizdomai/pkg/ai"
	"wizdomai/pkg/domain"
	"wizdomai/pkg/persona"
)

// historyLimit caps how many prior turns are forwarded upstream per question.
const historyLimit = 20

// Config holds runtime configuration for the core application.
type Config struct {
	UpstreamBaseURL string
	UpstreamAPIKey  string
	UpstreamModel   string

	// Generator overrides the upstream client, for tests.
	Generator ai.ChatGenerator
}

// App answers chat questions: canned replies locally, everything else through
// the upstream chat-completions API plus post-processing.
type App struct {
	generator ai.ChatGenerator
	hasAPIKey bool
}

// New constructs the application around an upstream generator.
func New(cfg Config) (*App, error) {
	generator := cfg.Generator
	if generator == nil {
		if cfg.UpstreamBaseURL == "" {
			return nil, fmt.Errorf("upstream base URL required")
		}
		if cfg.UpstreamModel == "" {
			return nil, fmt.Errorf("upstream model required")
		}
		generator = ai.NewChatCompatGenerator(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, cfg.UpstreamModel)
	}
	return &App{
		generator: generator,
		hasAPIKey: strings.TrimSpace(cfg.UpstreamAPIKey) != "",
	}, nil
}

// Answer resolves one question. Direct matches never touch the upstream; the
// missing-credential check runs only after the direct matcher so canned
// replies keep working without a key. Upstream answers are post-processed
// before they leave the service.
func (a *App) Answer(ctx context.Context, question string, history []domain.HistoryEntry) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	if reply, ok := persona.Direct(question); ok {
		return reply, nil
	}
	if !a.hasAPIKey {
		return "", ErrMissingAPIKey
	}

	raw, err := a.generator.GenerateChat(ctx, buildMessages(question, history))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return persona.Process(raw, question), nil
}

// buildMessages assembles the upstream message list: fixed system prompt,
// the most recent history (oldest dropped first), then the question itself.
func buildMessages(question string, history []domain.HistoryEntry) []ai.ChatMessage {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: persona.SystemPrompt})
	for _, entry := range history {
		messages = append(messages, ai.ChatMessage{
			Role:    normalizeRole(entry.Role),
			Content: entry.Content,
		})
	}
	return append(messages, ai.ChatMessage{Role: "user", Content: question})
}

// normalizeRole maps client-side role vocabulary onto what the completions
// API accepts. Legacy clients say "bot" where the API wants "assistant".
func normalizeRole(role string) string {
	if role == "bot" {
		return domain.RoleAssistant
	}
	return role
}
