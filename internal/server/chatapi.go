package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/OwenXu27/ereader/internal/chat"
)

// handleGetChat returns the conversation history.
func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": s.chat.Messages(),
	})
}

type askRequest struct {
	Text string `json:"text"`
}

type askResponse struct {
	Answer   string         `json:"answer,omitempty"`
	Error    string         `json:"error,omitempty"`
	Messages []chat.Message `json:"messages"`
}

// handleAskChat appends a user message and returns the assistant answer.
// Backend failures still return 200: the error is part of the conversation.
func (s *Server) handleAskChat(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	answer, err := s.chat.Ask(r.Context(), req.Text)
	resp := askResponse{Answer: answer, Messages: s.chat.Messages()}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type quickRequest struct {
	Mode      string `json:"mode"`
	Selection string `json:"selection"`
}

// handleQuickChat runs a quick-prompt template against a selection. When no
// selection is supplied, the last selection reported by the content document
// is used.
func (s *Server) handleQuickChat(w http.ResponseWriter, r *http.Request) {
	var req quickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad quick prompt request")
		return
	}

	mode := chat.Mode(req.Mode)
	switch mode {
	case chat.ModeGrammar, chat.ModeBackground, chat.ModePlain:
	default:
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}

	selection := req.Selection
	if selection == "" {
		selection = s.selection()
	}

	answer, err := s.chat.AskQuick(r.Context(), mode, selection)
	if errors.Is(err, chat.ErrEmptySelection) {
		writeError(w, http.StatusBadRequest, "nothing selected")
		return
	}
	resp := askResponse{Answer: answer, Messages: s.chat.Messages()}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResetChat clears the conversation.
func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	s.chat.Reset()
	w.WriteHeader(http.StatusNoContent)
}
