// Package storage provides the durable key-value storage contract for book
// metadata, raw book files, and the persisted settings/translation blob.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrStorage wraps durable-write failures. Callers log these and keep the
// in-memory copy authoritative rather than blocking the session.
var ErrStorage = errors.New("storage: write failed")

// BookRecord is the persisted metadata for one imported book.
// Identity fields are owned by the library; only Location and Progress are
// updated during a reading session.
type BookRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	HasCover  bool      `json:"has_cover,omitempty"`
	Location  string    `json:"location,omitempty"`
	Progress  float64   `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
}

// State is the single namespaced settings/cache blob.
// Translations maps bookID -> content hash (hex) -> translated text.
type State struct {
	Settings     map[string]string            `json:"settings,omitempty"`
	Translations map[string]map[string]string `json:"translations,omitempty"`
}

// Store is the durable storage contract. Writes are fire-and-forget from the
// session's perspective except at teardown, where the flush is awaited.
type Store interface {
	// Book metadata, keyed by id.
	PutBook(ctx context.Context, rec BookRecord) error
	GetBook(ctx context.Context, id string) (BookRecord, error)
	ListBooks(ctx context.Context) ([]BookRecord, error)
	DeleteBook(ctx context.Context, id string) error

	// Raw book file bytes, keyed by id.
	PutBookData(ctx context.Context, id string, data []byte) error
	GetBookData(ctx context.Context, id string) ([]byte, error)

	// Cover image bytes, keyed by id.
	PutCover(ctx context.Context, id string, data []byte) error
	GetCover(ctx context.Context, id string) ([]byte, error)

	// The settings/cache blob, persisted under a single key.
	PutState(ctx context.Context, st State) error
	GetState(ctx context.Context) (State, error)
}
