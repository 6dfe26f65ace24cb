package server

import (
	"encoding/json"
	"net/http"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /books", s.handleListBooks)
	mux.HandleFunc("POST /books", s.handleImportBook)
	mux.HandleFunc("DELETE /books/{id}", s.handleDeleteBook)
	mux.HandleFunc("GET /books/{id}/cover", s.handleCover)
	mux.HandleFunc("POST /books/{id}/open", s.handleOpenBook)

	mux.HandleFunc("GET /session", s.handleGetSession)
	mux.HandleFunc("DELETE /session", s.handleCloseSession)
	mux.HandleFunc("POST /session/navigate", s.handleNavigate)
	mux.HandleFunc("POST /session/next", s.handleNext)
	mux.HandleFunc("POST /session/previous", s.handlePrevious)
	mux.HandleFunc("POST /session/resize", s.handleResize)
	mux.HandleFunc("GET /session/document", s.handleDocument)
	mux.HandleFunc("POST /session/translate", s.handleTranslate)
	mux.HandleFunc("POST /session/input", s.handleInput)

	mux.HandleFunc("GET /chat", s.handleGetChat)
	mux.HandleFunc("POST /chat", s.handleAskChat)
	mux.HandleFunc("POST /chat/quick", s.handleQuickChat)
	mux.HandleFunc("DELETE /chat", s.handleResetChat)

	mux.HandleFunc("POST /api/llm/v1/chat/completions", s.handleLLMProxy)
}

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns basic server health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
