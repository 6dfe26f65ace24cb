package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OwenXu27/ereader/internal/storage"
	"github.com/OwenXu27/ereader/internal/testutil"
)

func TestImport(t *testing.T) {
	store := storage.NewMemStore()
	lib := New(store, nil)
	ctx := context.Background()

	book, err := lib.Import(ctx, testutil.SimpleBook(t))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if book.ID == "" {
		t.Error("no id assigned")
	}
	if book.Title != "Test Book" {
		t.Errorf("title = %q", book.Title)
	}
	if book.Author != "Test Author" {
		t.Errorf("author = %q", book.Author)
	}

	// Raw bytes are persisted and retrievable.
	data, err := lib.Data(ctx, book.ID)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(data) == 0 {
		t.Error("no data stored")
	}

	// The record survives a reload from storage.
	reloaded := New(store, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := reloaded.Get(book.ID)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.Title != book.Title {
		t.Errorf("reloaded title = %q", got.Title)
	}
}

func TestImport_InvalidBytes(t *testing.T) {
	lib := New(storage.NewMemStore(), nil)
	if _, err := lib.Import(context.Background(), []byte("junk")); !errors.Is(err, ErrInvalidBook) {
		t.Errorf("err = %v, want ErrInvalidBook", err)
	}
	if len(lib.List()) != 0 {
		t.Error("invalid upload left a record behind")
	}
}

func TestList_NewestFirst(t *testing.T) {
	store := storage.NewMemStore()
	lib := New(store, nil)
	ctx := context.Background()

	first, _ := lib.Import(ctx, testutil.SimpleBook(t))
	second, _ := lib.Import(ctx, testutil.SimpleBook(t))

	// Imports within the same instant sort unstably; nudge the second one.
	lib.mu.Lock()
	lib.books[second.ID].CreatedAt = first.CreatedAt.Add(time.Second)
	lib.mu.Unlock()

	books := lib.List()
	if len(books) != 2 {
		t.Fatalf("len = %d", len(books))
	}
	if books[0].ID != second.ID {
		t.Error("newest book not first")
	}
}

func TestDelete(t *testing.T) {
	store := storage.NewMemStore()
	lib := New(store, nil)
	ctx := context.Background()

	book, _ := lib.Import(ctx, testutil.SimpleBook(t))
	if err := lib.Delete(ctx, book.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := lib.Get(book.ID); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
	if err := lib.Delete(ctx, book.ID); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("second Delete: %v", err)
	}
}

func TestUpdateProgress(t *testing.T) {
	store := storage.NewMemStore()
	lib := New(store, nil)
	ctx := context.Background()

	book, _ := lib.Import(ctx, testutil.SimpleBook(t))
	if err := lib.UpdateProgress(ctx, book.ID, "spine:1", 0.5); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	got, _ := lib.Get(book.ID)
	if got.Location != "spine:1" || got.Progress != 0.5 {
		t.Errorf("book = %+v", got)
	}
	rec, err := store.GetBook(ctx, book.ID)
	if err != nil || rec.Location != "spine:1" {
		t.Errorf("stored record = %+v, %v", rec, err)
	}
}

func TestUpdateProgress_StorageFailureIsSwallowed(t *testing.T) {
	store := storage.NewMemStore()
	lib := New(store, nil)
	ctx := context.Background()

	book, _ := lib.Import(ctx, testutil.SimpleBook(t))

	store.PutErr = errors.New("disk full")
	if err := lib.UpdateProgress(ctx, book.ID, "spine:1", 0.5); err != nil {
		t.Fatalf("UpdateProgress should not propagate storage errors: %v", err)
	}

	// The in-memory copy stays authoritative.
	got, _ := lib.Get(book.ID)
	if got.Location != "spine:1" {
		t.Errorf("in-memory location = %q", got.Location)
	}
}

func TestUpdateProgress_UnknownBook(t *testing.T) {
	lib := New(storage.NewMemStore(), nil)
	if err := lib.UpdateProgress(context.Background(), "nope", "spine:0", 0); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("err = %v", err)
	}
}
