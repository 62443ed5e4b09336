package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"wizdomai/internal/ratelimit"
	"wizdomai/internal/util"
	"wizdomai/pkg/domain"
	"wizdomai/services/chat/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// Limiter is optional; nil disables per-IP rate limiting.
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the chat proxy endpoint.
type Server struct {
	app            *app.App
	limiter        *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		trustedProxies: cfg.TrustedProxies,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler. CORS sits innermost so its headers
// land on every response, preflights included.
func (s *Server) Router() http.Handler {
	return util.WithRequestLog("chat", util.WithRequestID(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/chat", s.handleChat)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Question            string                `json:"question"`
	ConversationHistory []domain.HistoryEntry `json:"conversationHistory"`
}

type chatResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("chat handler panic", "panic", rec, "request_id", util.RequestIDFromRequest(r))
			writeAnswerError(w, http.StatusInternalServerError, "internal error")
		}
	}()

	if r.Method != http.MethodPost {
		writeAnswerError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.limiter != nil && !s.limiter.Allow(util.ClientIP(r, s.trustedProxies)) {
		writeAnswerError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeAnswerError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	answer, err := s.app.Answer(r.Context(), req.Question, req.ConversationHistory)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, app.ErrEmptyQuestion) {
			status = http.StatusBadRequest
		}
		slog.Error("chat answer failed", "err", err, "request_id", util.RequestIDFromRequest(r))
		writeAnswerError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeAnswerError emits the proxy's uniform failure shape: the error plus a
// fallback answer the client can render in place of a real one.
func writeAnswerError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, chatResponse{Answer: app.GenericFallback, Error: msg})
}
