package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"wizdomai/internal/ratelimit"
	"wizdomai/pkg/ai"
	"wizdomai/services/chat/internal/app"
)

type fakeGenerator struct {
	reply string
	err   error
	calls [][]ai.ChatMessage
}

func (f *fakeGenerator) GenerateChat(_ context.Context, messages []ai.ChatMessage) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestServer(t *testing.T, gen ai.ChatGenerator) *Server {
	t.Helper()
	appCore, err := app.New(app.Config{Generator: gen, UpstreamAPIKey: "test-key"})
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	return New(Config{App: appCore})
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) (answer, errMsg string) {
	t.Helper()
	var body struct {
		Answer string `json:"answer"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body.Answer, body.Error
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
	want := "authorization, x-client-info, apikey, content-type"
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != want {
		t.Fatalf("Access-Control-Allow-Headers = %q, want %q", got, want)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	s := newTestServer(t, gen)
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("preflight body must be empty, got %q", rec.Body.String())
	}
	assertCORS(t, rec)
	if len(gen.calls) != 0 {
		t.Fatalf("preflight must not reach the app")
	}
}

func TestDirectMatchSkipsUpstream(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	s := newTestServer(t, gen)
	rec := postChat(t, s, `{"question":"Hi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	assertCORS(t, rec)
	answer, _ := decodeChat(t, rec)
	if answer != "Hey there! What's on your mind?" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("direct match must not call the generator")
	}
}

func TestChatBuildsUpstreamMessages(t *testing.T) {
	gen := &fakeGenerator{reply: "The capital of France is Paris."}
	s := newTestServer(t, gen)
	rec := postChat(t, s, `{
		"question": "and its population?",
		"conversationHistory": [
			{"role": "user", "content": "capital of France?"},
			{"role": "bot", "content": "Paris."}
		]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected one upstream call, got %d", len(gen.calls))
	}
	messages := gen.calls[0]
	if len(messages) != 4 {
		t.Fatalf("expected system + 2 history + question, got %d", len(messages))
	}
	if messages[0].Role != "system" {
		t.Fatalf("first message role = %q, want system", messages[0].Role)
	}
	// Legacy "bot" entries arrive as "assistant" upstream.
	if messages[2].Role != "assistant" || messages[2].Content != "Paris." {
		t.Fatalf("unexpected normalized history entry %+v", messages[2])
	}
	if last := messages[3]; last.Role != "user" || last.Content != "and its population?" {
		t.Fatalf("unexpected final message %+v", last)
	}
}

func TestChatTruncatesOversizedHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	s := newTestServer(t, gen)

	entries := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		entries = append(entries, fmt.Sprintf(`{"role":"user","content":"m%d"}`, i))
	}
	body := `{"question":"q","conversationHistory":[` + strings.Join(entries, ",") + `]}`
	rec := postChat(t, s, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	messages := gen.calls[0]
	if len(messages) != 22 {
		t.Fatalf("expected system + 20 history + question, got %d", len(messages))
	}
	// The oldest 10 entries are dropped.
	if messages[1].Content != "m10" {
		t.Fatalf("first kept history entry = %q, want m10", messages[1].Content)
	}
}

func TestChatPostProcessesAnswer(t *testing.T) {
	gen := &fakeGenerator{reply: "The Eiffel Tower is 330 meters tall.[1][2]\nReferences:\n1. example.com"}
	s := newTestServer(t, gen)
	rec := postChat(t, s, `{"question":"how tall is the eiffel tower?"}`)

	answer, _ := decodeChat(t, rec)
	if answer != "The Eiffel Tower is 330 meters tall." {
		t.Fatalf("citations must be stripped, got %q", answer)
	}
}

func TestChatMasksOtherAssistantNames(t *testing.T) {
	gen := &fakeGenerator{reply: "Perplexity can look that up for you."}
	s := newTestServer(t, gen)
	rec := postChat(t, s, `{"question":"can you search the web?"}`)

	answer, _ := decodeChat(t, rec)
	if answer != "Wizdom can look that up for you." {
		t.Fatalf("denied name must be masked, got %q", answer)
	}
}

func TestChatUpstreamFailureReturnsFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream exploded")}
	s := newTestServer(t, gen)
	rec := postChat(t, s, `{"question":"why is the sky blue?"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	assertCORS(t, rec)
	answer, errMsg := decodeChat(t, rec)
	if answer != app.GenericFallback {
		t.Fatalf("answer = %q, want generic fallback", answer)
	}
	if !strings.Contains(errMsg, "upstream exploded") {
		t.Fatalf("error = %q, want upstream cause", errMsg)
	}
}

func TestChatMissingAPIKey(t *testing.T) {
	appCore, err := app.New(app.Config{Generator: &fakeGenerator{reply: "unused"}})
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	s := New(Config{App: appCore})
	rec := postChat(t, s, `{"question":"why is the sky blue?"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	answer, errMsg := decodeChat(t, rec)
	if answer != app.GenericFallback {
		t.Fatalf("answer = %q, want generic fallback", answer)
	}
	if !strings.Contains(errMsg, "PERPLEXITY_API_KEY") {
		t.Fatalf("error = %q, want missing key message", errMsg)
	}
}

func TestChatMissingAPIKeyStillAnswersDirectMatches(t *testing.T) {
	appCore, err := app.New(app.Config{Generator: &fakeGenerator{reply: "unused"}})
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	s := New(Config{App: appCore})
	rec := postChat(t, s, `{"question":"thanks"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	answer, _ := decodeChat(t, rec)
	if answer != "No problem! Happy to help." {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestChatRejectsInvalidJSON(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{reply: "unused"})
	rec := postChat(t, s, `{"question":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	assertCORS(t, rec)
	if _, errMsg := decodeChat(t, rec); errMsg != "invalid JSON body" {
		t.Fatalf("unexpected error %q", errMsg)
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{reply: "unused"})
	rec := postChat(t, s, `{"question":"   "}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, errMsg := decodeChat(t, rec); errMsg != "question is required" {
		t.Fatalf("unexpected error %q", errMsg)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{reply: "unused"})
	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	assertCORS(t, rec)
}

func TestChatRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(mr.Addr(), "", "test:chat", 2, time.Minute)
	if err != nil {
		t.Fatalf("init limiter: %v", err)
	}
	appCore, err := app.New(app.Config{Generator: &fakeGenerator{reply: "ok"}, UpstreamAPIKey: "test-key"})
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	s := New(Config{App: appCore, Limiter: limiter})

	for i := 0; i < 2; i++ {
		if rec := postChat(t, s, `{"question":"q"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := postChat(t, s, `{"question":"q"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	assertCORS(t, rec)
	answer, errMsg := decodeChat(t, rec)
	if answer != app.GenericFallback || errMsg != "rate limit exceeded" {
		t.Fatalf("unexpected limited response answer=%q error=%q", answer, errMsg)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{reply: "unused"})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
