package chatstore

import (
	"strings"
	"testing"
	"unicode/utf8"

	"wizdomai/pkg/domain"
)

// memPersister keeps the snapshot in memory for tests.
type memPersister struct {
	saved   []domain.Project
	saves   int
	loadErr error
	seeded  []domain.Project
	hasData bool
}

func (m *memPersister) Save(projects []domain.Project) error {
	m.saved = projects
	m.saves++
	return nil
}

func (m *memPersister) Load() ([]domain.Project, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if !m.hasData {
		return nil, ErrNotFound
	}
	return m.seeded, nil
}

func newTestStore(t *testing.T) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{}
	return New(p), p
}

func TestNewSeedsDefaultProjectWhenEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	proj, ok := s.CurrentProject()
	if !ok {
		t.Fatalf("expected a current project after seeding")
	}
	if proj.Name != DefaultProjectName {
		t.Fatalf("unexpected seeded project name %q", proj.Name)
	}
	if len(proj.Conversations) != 0 {
		t.Fatalf("seeded project should be empty")
	}
	if s.CurrentConversationID() != "" {
		t.Fatalf("seeded store should have no current conversation")
	}
}

func TestNewFallsBackToSeedOnCorruptState(t *testing.T) {
	p := &memPersister{loadErr: errSentinel}
	s := New(p)
	if _, ok := s.CurrentProject(); !ok {
		t.Fatalf("corrupt state must still yield a usable store")
	}
}

var errSentinel = &corruptErr{}

type corruptErr struct{}

func (*corruptErr) Error() string { return "decode projects: unexpected end of JSON input" }

func TestCreateProjectPrependsAndBecomesCurrent(t *testing.T) {
	s, p := newTestStore(t)
	s.CreateProject("Work")
	s.CreateProject("Home")

	projects := s.Projects()
	if len(projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(projects))
	}
	if projects[0].Name != "Home" || projects[1].Name != "Work" {
		t.Fatalf("expected newest-first order, got %q then %q", projects[0].Name, projects[1].Name)
	}
	if cur, _ := s.CurrentProject(); cur.Name != "Home" {
		t.Fatalf("expected Home current, got %q", cur.Name)
	}
	if s.CurrentConversationID() != "" {
		t.Fatalf("new project must clear current conversation")
	}
	if p.saves == 0 {
		t.Fatalf("expected a durable save")
	}
}

func TestCreateProjectIgnoresBlankName(t *testing.T) {
	s, p := newTestStore(t)
	before := p.saves
	s.CreateProject("   ")
	if len(s.Projects()) != 1 || p.saves != before {
		t.Fatalf("blank name should be a no-op")
	}
}

func TestDeleteProjectRepairsPointers(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateProject("Work")
	work := s.CurrentProjectID()
	s.CreateConversation()
	conv := s.CurrentConversationID()

	s.CreateProject("Home")
	home := s.CurrentProjectID()

	s.DeleteProject(home)
	if s.CurrentProjectID() != work {
		t.Fatalf("expected first remaining project to become current")
	}
	if s.CurrentConversationID() != conv {
		t.Fatalf("expected first conversation of new current project")
	}

	// Delete everything; pointers must drop to empty.
	s.DeleteProject(work)
	s.DeleteProject(s.CurrentProjectID())
	if s.CurrentProjectID() != "" || s.CurrentConversationID() != "" {
		t.Fatalf("expected empty pointers after deleting all projects")
	}
}

func TestCreateConversationUsesPlaceholders(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateConversation()
	conv, ok := s.Conversation(s.CurrentConversationID())
	if !ok {
		t.Fatalf("expected a current conversation")
	}
	if conv.Title != DefaultTitle || conv.Preview != DefaultPreview {
		t.Fatalf("unexpected placeholders %q / %q", conv.Title, conv.Preview)
	}
}

func TestCreateConversationWithoutProjectIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	s.DeleteProject(s.CurrentProjectID())
	s.CreateConversation()
	if s.CurrentConversationID() != "" {
		t.Fatalf("expected no-op without a current project")
	}
}

func TestSendUserMessageCreatesConversationWithTruncatedTitleAndPreview(t *testing.T) {
	s, _ := newTestStore(t)
	text := strings.Repeat("A", 60)
	convID := s.SendUserMessage(s.CurrentProjectID(), "", text)
	if convID == "" {
		t.Fatalf("expected a conversation id")
	}
	if convID != s.CurrentConversationID() {
		t.Fatalf("new conversation must become current")
	}
	conv, _ := s.Conversation(convID)
	if want := strings.Repeat("A", 30) + "..."; conv.Title != want {
		t.Fatalf("title = %q, want %q", conv.Title, want)
	}
	if want := strings.Repeat("A", 50) + "..."; conv.Preview != want {
		t.Fatalf("preview = %q, want %q", conv.Preview, want)
	}
	if len(conv.Messages) != 1 || !conv.Messages[0].IsUser || conv.Messages[0].Text != text {
		t.Fatalf("unexpected messages %+v", conv.Messages)
	}
}

func TestSendUserMessageTruncatesByCharacterNotByte(t *testing.T) {
	s, _ := newTestStore(t)
	text := "a" + strings.Repeat("é", 60)
	convID := s.SendUserMessage(s.CurrentProjectID(), "", text)
	conv, _ := s.Conversation(convID)

	if want := "a" + strings.Repeat("é", 29) + "..."; conv.Title != want {
		t.Fatalf("title = %q, want %q", conv.Title, want)
	}
	if want := "a" + strings.Repeat("é", 49) + "..."; conv.Preview != want {
		t.Fatalf("preview = %q, want %q", conv.Preview, want)
	}
	if !utf8.ValidString(conv.Title) || !utf8.ValidString(conv.Preview) {
		t.Fatalf("truncation must never produce invalid UTF-8: %q / %q", conv.Title, conv.Preview)
	}
}

func TestSendUserMessageStoresTrimmedText(t *testing.T) {
	s, _ := newTestStore(t)
	convID := s.SendUserMessage(s.CurrentProjectID(), "", "  hi there  ")
	conv, _ := s.Conversation(convID)

	if conv.Title != "hi there" || conv.Preview != "hi there" {
		t.Fatalf("title/preview must come from trimmed text: %q / %q", conv.Title, conv.Preview)
	}
	if got := conv.Messages[0].Text; got != "hi there" {
		t.Fatalf("stored text = %q, want %q", got, "hi there")
	}
}

func TestSendUserMessageKeepsShortTitleWithoutEllipsis(t *testing.T) {
	s, _ := newTestStore(t)
	convID := s.SendUserMessage(s.CurrentProjectID(), "", "Hello there")
	conv, _ := s.Conversation(convID)
	if conv.Title != "Hello there" || conv.Preview != "Hello there" {
		t.Fatalf("short text must not be suffixed: %q / %q", conv.Title, conv.Preview)
	}
}

func TestSendUserMessageRewritesDefaultTitleOnce(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateConversation()
	convID := s.CurrentConversationID()

	if got := s.SendUserMessage(s.CurrentProjectID(), convID, "First question"); got != convID {
		t.Fatalf("expected message in existing conversation, got %q", got)
	}
	conv, _ := s.Conversation(convID)
	if conv.Title != "First question" {
		t.Fatalf("expected rewritten title, got %q", conv.Title)
	}

	s.SendUserMessage(s.CurrentProjectID(), convID, "Second question")
	conv, _ = s.Conversation(convID)
	if conv.Title != "First question" {
		t.Fatalf("title must be rewritten only once, got %q", conv.Title)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
}

func TestSendUserMessageNoopCases(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.SendUserMessage(s.CurrentProjectID(), "", "   "); got != "" {
		t.Fatalf("blank text must be a no-op")
	}
	if got := s.SendUserMessage("not-current", "", "hello"); got != "" {
		t.Fatalf("non-current project must be a no-op")
	}
}

func TestAppendAssistantMessage(t *testing.T) {
	s, _ := newTestStore(t)
	convID := s.SendUserMessage(s.CurrentProjectID(), "", "hi there everyone")
	s.AppendAssistantMessage(s.CurrentProjectID(), convID, "hello!")
	conv, _ := s.Conversation(convID)
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[1].IsUser {
		t.Fatalf("second message must be an assistant turn")
	}
}

func TestDeleteConversationRepairsPointer(t *testing.T) {
	s, _ := newTestStore(t)
	first := s.SendUserMessage(s.CurrentProjectID(), "", "first conversation")
	second := s.SendUserMessage(s.CurrentProjectID(), "", "second conversation")
	if second == first {
		t.Fatalf("expected two distinct conversations")
	}
	// second was created after first, so it sits at the head and is current.
	s.DeleteConversation(second)
	if s.CurrentConversationID() != first {
		t.Fatalf("expected first remaining conversation to become current")
	}
	s.DeleteConversation(first)
	if s.CurrentConversationID() != "" {
		t.Fatalf("expected empty pointer after deleting all conversations")
	}
}

func TestClearAllConversations(t *testing.T) {
	s, _ := newTestStore(t)
	s.SendUserMessage(s.CurrentProjectID(), "", "one")
	s.SendUserMessage(s.CurrentProjectID(), "", "two")
	s.ClearAllConversations()
	proj, _ := s.CurrentProject()
	if len(proj.Conversations) != 0 || s.CurrentConversationID() != "" {
		t.Fatalf("expected empty project after clear")
	}
}

func TestHistoryMapsRolesAndAppliesLimit(t *testing.T) {
	s, _ := newTestStore(t)
	convID := s.SendUserMessage(s.CurrentProjectID(), "", "question one")
	s.AppendAssistantMessage(s.CurrentProjectID(), convID, "answer one")
	s.SendUserMessage(s.CurrentProjectID(), convID, "question two")

	history := s.History(convID, 0)
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].Role != domain.RoleUser || history[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected roles %+v", history)
	}

	limited := s.History(convID, 2)
	if len(limited) != 2 || limited[0].Content != "answer one" {
		t.Fatalf("expected the most recent 2 entries, got %+v", limited)
	}
}

// assertConsistent checks the pointer invariants: the current project exists
// when set, and the current conversation exists inside the current project
// when set.
func assertConsistent(t *testing.T, s *Store) {
	t.Helper()
	pid := s.CurrentProjectID()
	cid := s.CurrentConversationID()
	if pid == "" {
		if cid != "" {
			t.Fatalf("conversation pointer %q without a project", cid)
		}
		return
	}
	proj, ok := s.CurrentProject()
	if !ok {
		t.Fatalf("current project %q does not exist", pid)
	}
	if cid == "" {
		return
	}
	for _, conv := range proj.Conversations {
		if conv.ID == cid {
			return
		}
	}
	t.Fatalf("current conversation %q not in current project %q", cid, pid)
}

func TestPointerInvariantsAcrossMutationSequence(t *testing.T) {
	s, _ := newTestStore(t)
	seeded := s.CurrentProjectID()

	steps := []func(){
		func() { s.CreateProject("P1") },
		func() { s.CreateConversation() },
		func() { s.SendUserMessage(s.CurrentProjectID(), s.CurrentConversationID(), "hello world") },
		func() { s.CreateConversation() },
		func() { s.DeleteConversation(s.CurrentConversationID()) },
		func() { s.CreateProject("P2") },
		func() { s.DeleteProject(s.CurrentProjectID()) },
		func() { s.DeleteConversation(s.CurrentConversationID()) },
		func() { s.ClearAllConversations() },
		func() { s.DeleteProject(seeded) },
		func() { s.DeleteProject(s.CurrentProjectID()) },
		func() { s.CreateConversation() },
		func() { s.CreateProject("P3") },
	}
	for i, step := range steps {
		step()
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("step %d panicked: %v", i, r)
				}
			}()
			assertConsistent(t, s)
		}()
	}
}
