package storage

import (
	"context"
	"sync"
)

// MemStore implements Store with in-memory maps for unit tests.
// Error injection is supported for testing failure paths.
type MemStore struct {
	mu     sync.RWMutex
	books  map[string]BookRecord
	data   map[string][]byte
	covers map[string][]byte
	state  State

	// StateWrites counts PutState calls for throttle assertions.
	StateWrites int

	// BookWrites counts PutBook calls.
	BookWrites int

	// PutErr is returned by every write operation when non-nil.
	PutErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		books:  make(map[string]BookRecord),
		data:   make(map[string][]byte),
		covers: make(map[string][]byte),
	}
}

func (s *MemStore) PutBook(ctx context.Context, rec BookRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.books[rec.ID] = rec
	s.BookWrites++
	return nil
}

func (s *MemStore) GetBook(ctx context.Context, id string) (BookRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.books[id]
	if !ok {
		return BookRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemStore) ListBooks(ctx context.Context) ([]BookRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BookRecord, 0, len(s.books))
	for _, rec := range s.books {
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemStore) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	delete(s.books, id)
	delete(s.data, id)
	delete(s.covers, id)
	return nil
}

func (s *MemStore) PutBookData(ctx context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.data[id] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) GetBookData(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) PutCover(ctx context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.covers[id] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) GetCover(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.covers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) PutState(ctx context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.state = st
	s.StateWrites++
	return nil
}

func (s *MemStore) GetState(ctx context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}
