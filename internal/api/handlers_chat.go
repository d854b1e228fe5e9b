package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rsharda/personad/internal/llm"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}

	sess := s.sessions.GetOrCreate(req.SessionID)
	if req.UserName != "" || req.UserEmail != "" {
		sess.UpdateProfile(req.UserName, req.UserEmail)
	}

	system := s.engine.SystemPrompt(sess.UserName())
	msgs := sess.Window(s.cfg.HistoryWindow)
	msgs = append(msgs, llm.Message{Role: "user", Content: req.Message})

	var raw string
	var err error
	for attempt := 0; attempt < llm.MaxRetries; attempt++ {
		raw, err = s.model.Complete(r.Context(), system, msgs)
		if err == nil || !llm.IsRetryable(err) || attempt == llm.MaxRetries-1 {
			break
		}
		s.log.Warn("retryable chat error", "session_id", sess.ID, "attempt", attempt, "error", err)
		select {
		case <-time.After(llm.Backoff(attempt)):
		case <-r.Context().Done():
			jsonError(w, "request cancelled", http.StatusRequestTimeout)
			return
		}
	}
	if err != nil {
		s.log.Error("chat completion failed", "session_id", sess.ID, "error", err)
		jsonError(w, "model unavailable", http.StatusBadGateway)
		return
	}

	reply := llm.ParseChatReply(raw, req.Message)
	sess.AppendTurn(reply.UserSummary, reply.ResponseText)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id":    sess.ID,
		"user_summary":  reply.UserSummary,
		"response_text": reply.ResponseText,
	})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		jsonError(w, "session_id is required", http.StatusBadRequest)
		return
	}
	s.sessions.Clear(req.SessionID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(sessionID)
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
