// Package chat implements the outgoing-message pipeline: store mutation,
// direct-reply short circuit, proxy call, and the guaranteed assistant turn
// that concludes every send.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"wizdomai/pkg/chatstore"
	"wizdomai/pkg/persona"
)

// historyLimit caps the prior turns forwarded with a question. Older history
// is dropped silently, oldest first.
const historyLimit = 20

// FallbackReply is appended as the assistant turn whenever the proxy call
// fails, so a conversation never ends on an unanswered user message.
const FallbackReply = "Sorry, I encountered an error. Please try again."

// Pipeline drives one outgoing message at a time through the store and the
// proxy. Sends to the same store are serialized.
type Pipeline struct {
	store *chatstore.Store
	proxy *Client

	mu      sync.Mutex
	sending atomic.Bool
}

// NewPipeline wires a pipeline to its store and proxy client.
func NewPipeline(store *chatstore.Store, proxy *Client) *Pipeline {
	return &Pipeline{store: store, proxy: proxy}
}

// Sending reports whether a send is in flight. UIs disable input while true.
func (p *Pipeline) Sending() bool {
	return p.sending.Load()
}

// Send runs one full turn: append the user message (creating a conversation
// when none is current), try the direct matcher, otherwise ask the proxy,
// and always append an assistant reply. Blank input or a missing current
// project is a silent no-op. A returned error means the fallback reply was
// used and the UI should show a transient notification; the store is always
// left consistent.
func (p *Pipeline) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	projectID := p.store.CurrentProjectID()
	if projectID == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// History is captured before the user message is appended, so the new
	// question is not duplicated inside it.
	conversationID := p.store.CurrentConversationID()
	history := p.store.History(conversationID, historyLimit)

	conversationID = p.store.SendUserMessage(projectID, conversationID, text)
	if conversationID == "" {
		return nil
	}

	p.sending.Store(true)
	defer p.sending.Store(false)

	if reply, ok := persona.Direct(text); ok {
		p.store.AppendAssistantMessage(projectID, conversationID, reply)
		return nil
	}

	answer, err := p.proxy.Ask(ctx, text, history)
	if err != nil {
		p.store.AppendAssistantMessage(projectID, conversationID, FallbackReply)
		return fmt.Errorf("ask proxy: %w", err)
	}
	p.store.AppendAssistantMessage(projectID, conversationID, answer)
	return nil
}
