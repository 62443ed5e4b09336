package domain

import "time"

// Role names are canonical across the whole system. The legacy "bot" alias
// is accepted on the proxy's inbound contract and normalized at decode time.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Project is the top-level, user-named grouping of conversations.
// Conversations are ordered newest first.
type Project struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	CreatedAt     time.Time      `json:"createdAt"`
	Conversations []Conversation `json:"conversations"`
}

// Conversation is an ordered thread of messages. Title and preview start as
// placeholders and are rewritten once from the first user message.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Preview   string    `json:"preview"`
	Messages  []Message `json:"messages"`
}

// Message is one turn in a conversation, append-only within the
// conversation's lifetime.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is one prior turn forwarded to the proxy endpoint.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// User is an account held by the auth service.
type User struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Session is the auth service's session-lookup response.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
