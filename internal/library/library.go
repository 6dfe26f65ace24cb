// Package library owns the imported-book collection: metadata records, the
// raw book files backing them, and the reading-progress fields updated by a
// live session.
package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/simp-lee/epub"

	"github.com/OwenXu27/ereader/internal/storage"
)

// ErrInvalidBook indicates the uploaded bytes are not a valid book package.
var ErrInvalidBook = errors.New("library: not a valid book file")

// ErrBookNotFound indicates the requested book id is unknown.
var ErrBookNotFound = errors.New("library: book not found")

// Book is one imported book. Identity fields are set at import time and never
// mutated afterwards; Location and Progress are the only session-writable
// fields.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	HasCover  bool      `json:"has_cover,omitempty"`
	Location  string    `json:"location,omitempty"`
	Progress  float64   `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
}

// Library is the in-memory book list with write-through to durable storage.
type Library struct {
	mu     sync.RWMutex
	store  storage.Store
	logger *slog.Logger
	books  map[string]*Book
}

// New creates an empty Library backed by the given store.
func New(store storage.Store, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		store:  store,
		logger: logger,
		books:  make(map[string]*Book),
	}
}

// Load populates the in-memory list from durable storage.
func (l *Library) Load(ctx context.Context) error {
	recs, err := l.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range recs {
		b := fromRecord(rec)
		l.books[b.ID] = &b
	}
	return nil
}

// List returns all books, newest first.
func (l *Library) List() []Book {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Book, 0, len(l.books))
	for _, b := range l.books {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns a book by id.
func (l *Library) Get(id string) (Book, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return *b, nil
}

// Data returns the raw file bytes for a book.
func (l *Library) Data(ctx context.Context, id string) ([]byte, error) {
	if _, err := l.Get(id); err != nil {
		return nil, err
	}
	return l.store.GetBookData(ctx, id)
}

// Cover returns the cover image bytes for a book.
func (l *Library) Cover(ctx context.Context, id string) ([]byte, error) {
	b, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if !b.HasCover {
		return nil, storage.ErrNotFound
	}
	return l.store.GetCover(ctx, id)
}

// Import parses the uploaded bytes, extracts metadata and cover, assigns an
// id, and persists both the record and the raw file.
func (l *Library) Import(ctx context.Context, raw []byte) (Book, error) {
	doc, err := epub.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return Book{}, fmt.Errorf("%w: %v", ErrInvalidBook, err)
	}
	defer doc.Close()

	meta := doc.Metadata()
	b := Book{
		ID:        uuid.New().String(),
		Title:     firstOr(meta.Titles, "Untitled"),
		CreatedAt: time.Now().UTC(),
	}
	if len(meta.Authors) > 0 {
		names := make([]string, 0, len(meta.Authors))
		for _, a := range meta.Authors {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		b.Author = strings.Join(names, ", ")
	}

	var coverData []byte
	if cover, err := doc.Cover(); err == nil && len(cover.Data) > 0 {
		coverData = cover.Data
		b.HasCover = true
	}

	if err := l.store.PutBookData(ctx, b.ID, raw); err != nil {
		return Book{}, err
	}
	if coverData != nil {
		if err := l.store.PutCover(ctx, b.ID, coverData); err != nil {
			l.logger.Warn("cover write failed", "book", b.ID, "error", err)
			b.HasCover = false
		}
	}
	if err := l.store.PutBook(ctx, toRecord(b)); err != nil {
		return Book{}, err
	}

	l.mu.Lock()
	l.books[b.ID] = &b
	l.mu.Unlock()

	l.logger.Info("book imported", "book", b.ID, "title", b.Title)
	return b, nil
}

// Delete removes a book from the list and from storage.
func (l *Library) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	_, ok := l.books[id]
	delete(l.books, id)
	l.mu.Unlock()
	if !ok {
		return ErrBookNotFound
	}
	return l.store.DeleteBook(ctx, id)
}

// UpdateProgress writes the book's reading position to the in-memory list and
// to durable storage as one logical operation. A storage failure is logged
// and the in-memory copy stays authoritative for the rest of the session.
func (l *Library) UpdateProgress(ctx context.Context, id, location string, progress float64) error {
	l.mu.Lock()
	b, ok := l.books[id]
	if !ok {
		l.mu.Unlock()
		return ErrBookNotFound
	}
	b.Location = location
	b.Progress = progress
	rec := toRecord(*b)
	l.mu.Unlock()

	if err := l.store.PutBook(ctx, rec); err != nil {
		l.logger.Warn("progress write failed, keeping in-memory copy",
			"book", id, "error", err)
		return nil
	}
	return nil
}

func toRecord(b Book) storage.BookRecord {
	return storage.BookRecord{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		HasCover:  b.HasCover,
		Location:  b.Location,
		Progress:  b.Progress,
		CreatedAt: b.CreatedAt,
	}
}

func fromRecord(rec storage.BookRecord) Book {
	return Book{
		ID:        rec.ID,
		Title:     rec.Title,
		Author:    rec.Author,
		HasCover:  rec.HasCover,
		Location:  rec.Location,
		Progress:  rec.Progress,
		CreatedAt: rec.CreatedAt,
	}
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
