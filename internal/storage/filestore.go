package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OwenXu27/ereader/internal/home"
)

// FileStore implements Store on top of the ereader home directory.
// Layout: books/<id>.json (metadata), books/<id>.epub (raw bytes),
// books/<id>.cover (cover image), state.json (settings/cache blob).
type FileStore struct {
	dir *home.Dir
}

// NewFileStore creates a FileStore rooted at the given home directory.
func NewFileStore(dir *home.Dir) (*FileStore, error) {
	if err := dir.EnsureExists(); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) metaPath(id string) string {
	return filepath.Join(s.dir.BooksPath(), id+".json")
}

func (s *FileStore) dataPath(id string) string {
	return filepath.Join(s.dir.BooksPath(), id+".epub")
}

func (s *FileStore) coverPath(id string) string {
	return filepath.Join(s.dir.BooksPath(), id+".cover")
}

// PutBook writes book metadata.
func (s *FileStore) PutBook(ctx context.Context, rec BookRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal book %s: %v", ErrStorage, rec.ID, err)
	}
	return s.writeFile(s.metaPath(rec.ID), data)
}

// GetBook reads book metadata by id.
func (s *FileStore) GetBook(ctx context.Context, id string) (BookRecord, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return BookRecord{}, ErrNotFound
		}
		return BookRecord{}, fmt.Errorf("read book %s: %w", id, err)
	}
	var rec BookRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return BookRecord{}, fmt.Errorf("decode book %s: %w", id, err)
	}
	return rec, nil
}

// ListBooks reads all book metadata records.
func (s *FileStore) ListBooks(ctx context.Context) ([]BookRecord, error) {
	entries, err := os.ReadDir(s.dir.BooksPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list books: %w", err)
	}

	var out []BookRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		rec, err := s.GetBook(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteBook removes a book's metadata, raw bytes and cover.
func (s *FileStore) DeleteBook(ctx context.Context, id string) error {
	if err := os.Remove(s.metaPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete book %s: %v", ErrStorage, id, err)
	}
	os.Remove(s.dataPath(id))
	os.Remove(s.coverPath(id))
	return nil
}

// PutBookData writes the raw book file bytes.
func (s *FileStore) PutBookData(ctx context.Context, id string, data []byte) error {
	return s.writeFile(s.dataPath(id), data)
}

// GetBookData reads the raw book file bytes.
func (s *FileStore) GetBookData(ctx context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.dataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read book data %s: %w", id, err)
	}
	return data, nil
}

// PutCover writes the cover image bytes.
func (s *FileStore) PutCover(ctx context.Context, id string, data []byte) error {
	return s.writeFile(s.coverPath(id), data)
}

// GetCover reads the cover image bytes.
func (s *FileStore) GetCover(ctx context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.coverPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read cover %s: %w", id, err)
	}
	return data, nil
}

// PutState writes the settings/cache blob.
func (s *FileStore) PutState(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: marshal state: %v", ErrStorage, err)
	}
	return s.writeFile(s.dir.StatePath(), data)
}

// GetState reads the settings/cache blob. A missing blob yields an empty
// state, not an error.
func (s *FileStore) GetState(ctx context.Context) (State, error) {
	data, err := os.ReadFile(s.dir.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// writeFile writes atomically via a temp file rename so a crashed write
// never leaves a truncated record behind.
func (s *FileStore) writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}
