package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/OwenXu27/ereader/internal/library"
)

// maxUploadBytes bounds an uploaded book file.
const maxUploadBytes = 200 << 20

// handleListBooks returns the book list, newest first.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.library.List())
}

// handleImportBook imports a book from the raw request body.
func (s *Server) handleImportBook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return
	}

	book, err := s.library.Import(r.Context(), raw)
	if err != nil {
		if errors.Is(err, library.ErrInvalidBook) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// handleDeleteBook removes a book. An open session on it is closed first.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if sess := s.controller.Session(); sess != nil && sess.Book().ID == id {
		s.controller.Close()
	}

	if err := s.library.Delete(r.Context(), id); err != nil {
		if errors.Is(err, library.ErrBookNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCover serves a book's cover image.
func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	data, err := s.library.Cover(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no cover")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}
