// Package chatstore owns the Project -> Conversation -> Message hierarchy
// and its durable persistence. It is the single writer for all chat state on
// the client side.
package chatstore

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wizdomai/pkg/domain"
)

const (
	// DefaultTitle and DefaultPreview are the placeholder values a fresh
	// conversation carries until its first user message rewrites them.
	DefaultTitle   = "New Chat"
	DefaultPreview = "Start a conversation..."

	// DefaultProjectName is used when the store starts with no durable state.
	DefaultProjectName = "Default Project"

	titleLimit   = 30
	previewLimit = 50
)

// Store holds the full chat hierarchy plus the two "current" pointers.
// Pointers are plain identifiers resolved by lookup, never embedded
// references, so deletion can never leave them dangling. All mutations are
// serialized by the mutex and re-persist the whole hierarchy.
type Store struct {
	mu sync.Mutex

	projects map[string]*domain.Project
	order    []string // project ids, newest first

	currentProject      string
	currentConversation string

	persister Persister
}

// New hydrates a store from durable state. Missing state seeds one default
// empty project; corrupt state is logged and replaced by the same seed
// rather than crashing startup.
func New(p Persister) *Store {
	s := &Store{
		projects:  make(map[string]*domain.Project),
		persister: p,
	}
	projects, err := p.Load()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("chatstore: discarding unreadable durable state", "err", err)
		}
		s.seed()
		return s
	}
	for _, proj := range projects {
		copied := proj
		s.projects[copied.ID] = &copied
		s.order = append(s.order, copied.ID)
	}
	if len(s.order) == 0 {
		s.seed()
		return s
	}
	s.currentProject = s.order[0]
	if convs := s.projects[s.currentProject].Conversations; len(convs) > 0 {
		s.currentConversation = convs[0].ID
	}
	return s
}

func (s *Store) seed() {
	proj := &domain.Project{
		ID:        uuid.NewString(),
		Name:      DefaultProjectName,
		CreatedAt: time.Now().UTC(),
	}
	s.projects[proj.ID] = proj
	s.order = []string{proj.ID}
	s.currentProject = proj.ID
	s.currentConversation = ""
}

// CreateProject prepends a new project and makes it current. Blank names are
// ignored.
func (s *Store) CreateProject(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	proj := &domain.Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.projects[proj.ID] = proj
	s.order = append([]string{proj.ID}, s.order...)
	s.currentProject = proj.ID
	s.currentConversation = ""
	s.save()
}

// DeleteProject removes a project. When the current project goes away, the
// first remaining project (and its first conversation) become current.
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return
	}
	delete(s.projects, id)
	filtered := s.order[:0]
	for _, pid := range s.order {
		if pid != id {
			filtered = append(filtered, pid)
		}
	}
	s.order = filtered
	if s.currentProject == id {
		s.currentProject = ""
		s.currentConversation = ""
		if len(s.order) > 0 {
			s.currentProject = s.order[0]
			if convs := s.projects[s.currentProject].Conversations; len(convs) > 0 {
				s.currentConversation = convs[0].ID
			}
		}
	}
	s.save()
}

// SelectProject makes an existing project current and points the current
// conversation at its first conversation, if any.
func (s *Store) SelectProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[id]
	if !ok {
		return
	}
	s.currentProject = id
	s.currentConversation = ""
	if len(proj.Conversations) > 0 {
		s.currentConversation = proj.Conversations[0].ID
	}
}

// SelectConversation makes a conversation of the current project current.
func (s *Store) SelectConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[s.currentProject]
	if !ok {
		return
	}
	for _, conv := range proj.Conversations {
		if conv.ID == id {
			s.currentConversation = id
			return
		}
	}
}

// CreateConversation prepends an empty conversation with placeholder
// title/preview to the current project and makes it current. Without a
// current project this is a no-op.
func (s *Store) CreateConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[s.currentProject]
	if !ok {
		return
	}
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		CreatedAt: time.Now().UTC(),
		Preview:   DefaultPreview,
	}
	proj.Conversations = append([]domain.Conversation{conv}, proj.Conversations...)
	s.currentConversation = conv.ID
	s.save()
}

// SendUserMessage appends a user message, creating the target conversation
// when conversationID is empty. Text is trimmed before it is stored or used
// for titling. A conversation still holding the default title with zero
// messages has its title/preview rewritten from the text.
// Returns the id of the conversation that received the message; the empty
// string means the call was a no-op (blank text or projectID not current).
func (s *Store) SendUserMessage(projectID, conversationID, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if projectID != s.currentProject {
		return ""
	}
	proj, ok := s.projects[projectID]
	if !ok {
		return ""
	}

	if conversationID == "" {
		conv := domain.Conversation{
			ID:        uuid.NewString(),
			Title:     truncate(text, titleLimit),
			CreatedAt: time.Now().UTC(),
			Preview:   truncate(text, previewLimit),
		}
		proj.Conversations = append([]domain.Conversation{conv}, proj.Conversations...)
		s.currentConversation = conv.ID
		conversationID = conv.ID
	}

	conv := findConversation(proj, conversationID)
	if conv == nil {
		return ""
	}
	if conv.Title == DefaultTitle && len(conv.Messages) == 0 {
		conv.Title = truncate(text, titleLimit)
		conv.Preview = truncate(text, previewLimit)
	}
	conv.Messages = append(conv.Messages, domain.Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    true,
		Timestamp: time.Now().UTC(),
	})
	s.save()
	return conversationID
}

// AppendAssistantMessage appends an assistant turn to a conversation.
func (s *Store) AppendAssistantMessage(projectID, conversationID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[projectID]
	if !ok {
		return
	}
	conv := findConversation(proj, conversationID)
	if conv == nil {
		return
	}
	conv.Messages = append(conv.Messages, domain.Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    false,
		Timestamp: time.Now().UTC(),
	})
	s.save()
}

// DeleteConversation removes a conversation from the current project. When
// the current conversation goes away, the project's first remaining
// conversation becomes current.
func (s *Store) DeleteConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[s.currentProject]
	if !ok {
		return
	}
	filtered := proj.Conversations[:0]
	for _, conv := range proj.Conversations {
		if conv.ID != id {
			filtered = append(filtered, conv)
		}
	}
	proj.Conversations = filtered
	if s.currentConversation == id {
		s.currentConversation = ""
		if len(proj.Conversations) > 0 {
			s.currentConversation = proj.Conversations[0].ID
		}
	}
	s.save()
}

// ClearAllConversations empties the current project's conversation list.
func (s *Store) ClearAllConversations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[s.currentProject]
	if !ok {
		return
	}
	proj.Conversations = nil
	s.currentConversation = ""
	s.save()
}

// CurrentProjectID returns the current project pointer ("" when none).
func (s *Store) CurrentProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentProject
}

// CurrentConversationID returns the current conversation pointer ("" when
// none).
func (s *Store) CurrentConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentConversation
}

// CurrentProject returns a copy of the current project.
func (s *Store) CurrentProject() (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[s.currentProject]
	if !ok {
		return domain.Project{}, false
	}
	return copyProject(proj), true
}

// Projects returns copies of all projects, newest first.
func (s *Store) Projects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Conversation returns a copy of one conversation of the current project.
func (s *Store) Conversation(id string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[s.currentProject]
	if !ok {
		return domain.Conversation{}, false
	}
	conv := findConversation(proj, id)
	if conv == nil {
		return domain.Conversation{}, false
	}
	return copyConversation(*conv), true
}

// History returns the conversation's messages as role/content entries, most
// recent limit only (oldest entries dropped first). A zero limit means no
// cap.
func (s *Store) History(conversationID string, limit int) []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, ok := s.projects[s.currentProject]
	if !ok {
		return nil
	}
	conv := findConversation(proj, conversationID)
	if conv == nil {
		return nil
	}
	msgs := conv.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	entries := make([]domain.HistoryEntry, 0, len(msgs))
	for _, msg := range msgs {
		role := domain.RoleAssistant
		if msg.IsUser {
			role = domain.RoleUser
		}
		entries = append(entries, domain.HistoryEntry{Role: role, Content: msg.Text})
	}
	return entries
}

// save re-serializes the full hierarchy. Persistence failures are logged and
// do not roll back the in-memory mutation.
func (s *Store) save() {
	if err := s.persister.Save(s.snapshotLocked()); err != nil {
		slog.Warn("chatstore: persist failed", "err", err)
	}
}

func (s *Store) snapshotLocked() []domain.Project {
	out := make([]domain.Project, 0, len(s.order))
	for _, id := range s.order {
		if proj, ok := s.projects[id]; ok {
			out = append(out, copyProject(proj))
		}
	}
	return out
}

func copyProject(p *domain.Project) domain.Project {
	copied := *p
	copied.Conversations = make([]domain.Conversation, len(p.Conversations))
	for i, conv := range p.Conversations {
		copied.Conversations[i] = copyConversation(conv)
	}
	return copied
}

func copyConversation(c domain.Conversation) domain.Conversation {
	copied := c
	copied.Messages = append([]domain.Message(nil), c.Messages...)
	return copied
}

func findConversation(p *domain.Project, id string) *domain.Conversation {
	for i := range p.Conversations {
		if p.Conversations[i].ID == id {
			return &p.Conversations[i]
		}
	}
	return nil
}

// truncate counts characters, not bytes, so multibyte text keeps its full
// allowance and never gets cut mid-rune.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
