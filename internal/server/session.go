package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/OwenXu27/ereader/internal/library"
	"github.com/OwenXu27/ereader/internal/reader"
)

// handleOpenBook opens a reading session on a book, tearing down any prior
// session first. The chat conversation is scoped to the open book.
func (s *Server) handleOpenBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sess, err := s.controller.Open(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, library.ErrBookNotFound):
			writeError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, reader.ErrParse):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("open failed", "book", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to open book")
		}
		return
	}

	s.chat.Reset()
	s.setSelection("")
	go s.runBridge(sess)

	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleGetSession returns the live session state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleCloseSession closes the live session. A no-op when nothing is open.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	s.controller.Close()
	s.chat.Reset()
	w.WriteHeader(http.StatusNoContent)
}

type navigateRequest struct {
	Href string `json:"href"`
}

// handleNavigate resolves and displays a table-of-contents target.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}

	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Href == "" {
		writeError(w, http.StatusBadRequest, "href required")
		return
	}

	sess.Navigate(r.Context(), req.Href)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleNext pages forward.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}
	sess.Next(r.Context())
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handlePrevious pages backward.
func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}
	sess.Previous(r.Context())
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// handleResize recalculates the surface layout.
func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad resize request")
		return
	}
	sess.Resize(req.Width, req.Height)
	w.WriteHeader(http.StatusNoContent)
}

// handleDocument returns the blocks of the current content document with
// their translation states.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}
	doc := sess.Document()
	if doc == nil {
		writeError(w, http.StatusNotFound, "no rendered content")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"href":   doc.Href(),
		"blocks": doc.Blocks(),
	})
}

type translateRequest struct {
	Block int `json:"block"`
}

// handleTranslate triggers the double-click translation flow on a block.
// The request runs asynchronously; poll the document for the result.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}
	doc := sess.Document()
	if doc == nil {
		writeError(w, http.StatusNotFound, "no rendered content")
		return
	}
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad translate request")
		return
	}
	doc.HandleDoubleClick(req.Block)
	w.WriteHeader(http.StatusAccepted)
}

type inputRequest struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
	Text string `json:"text,omitempty"`
	Code string `json:"code,omitempty"`
}

// handleInput forwards a content document interaction to the document
// dispatchers. The resulting bridge events are consumed asynchronously by the
// session's bridge loop.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open book")
		return
	}
	doc := sess.Document()
	if doc == nil {
		writeError(w, http.StatusNotFound, "no rendered content")
		return
	}
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad input request")
		return
	}
	switch req.Type {
	case "key":
		doc.HandleKey(req.Key)
	case "selection":
		doc.HandleSelection(req.Text)
	case "quickprompt":
		doc.HandleQuickPrompt(req.Code)
	default:
		writeError(w, http.StatusBadRequest, "unknown input type")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) setSelection(text string) {
	s.mu.Lock()
	s.lastSelection = text
	s.mu.Unlock()
}

func (s *Server) selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSelection
}

// runBridge consumes document-originated events for one session: navigation
// keys page the surface, selections are remembered for quick prompts, and a
// quick-prompt trigger with a non-empty selection appends exactly one chat
// exchange.
func (s *Server) runBridge(sess *reader.Session) {
	for {
		select {
		case <-sess.Done():
			return
		case ev := <-sess.Bridge():
			switch e := ev.(type) {
			case reader.KeyForwarded:
				switch e.Key {
				case "ArrowRight", "PageDown":
					sess.Next(context.Background())
				case "ArrowLeft", "PageUp":
					sess.Previous(context.Background())
				}
			case reader.SelectionChanged:
				s.setSelection(e.Text)
			case reader.QuickPrompt:
				sel := s.selection()
				if sel == "" {
					continue
				}
				if _, err := s.chat.AskQuick(context.Background(), e.Mode, sel); err != nil {
					s.logger.Warn("quick prompt failed", "mode", e.Mode, "error", err)
				}
			}
		}
	}
}
