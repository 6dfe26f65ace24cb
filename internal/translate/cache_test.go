package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/OwenXu27/ereader/internal/storage"
)

func TestHash_NormalizesWhitespace(t *testing.T) {
	a := Hash("The quick   brown\n\tfox")
	b := Hash("The quick brown fox")
	if a != b {
		t.Error("whitespace variants should hash identically")
	}
	if Hash("The quick brown fox.") == a {
		t.Error("different text should hash differently")
	}
}

func TestCache_PutGet(t *testing.T) {
	store := storage.NewMemStore()
	c := NewCache(store, nil)
	ctx := context.Background()

	h := Hash("Hello, world.")
	if _, ok := c.Get("book-1", h); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Put(ctx, "book-1", h, "Bonjour, le monde.")
	got, ok := c.Get("book-1", h)
	if !ok || got != "Bonjour, le monde." {
		t.Errorf("Get = %q, %v", got, ok)
	}

	// Entries are scoped per book.
	if _, ok := c.Get("book-2", h); ok {
		t.Error("entry leaked across books")
	}
}

func TestCache_PersistsAcrossLoads(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	c := NewCache(store, nil)
	h := Hash("Some paragraph.")
	c.Put(ctx, "book-1", h, "translated")

	reloaded := NewCache(store, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := reloaded.Get("book-1", h)
	if !ok || got != "translated" {
		t.Errorf("after reload: Get = %q, %v", got, ok)
	}
}

func TestCache_WriteFailureKeepsMemoryCopy(t *testing.T) {
	store := storage.NewMemStore()
	store.PutErr = errors.New("disk full")
	c := NewCache(store, nil)

	h := Hash("Some paragraph.")
	c.Put(context.Background(), "book-1", h, "translated")

	got, ok := c.Get("book-1", h)
	if !ok || got != "translated" {
		t.Errorf("in-memory entry lost after persist failure: %q, %v", got, ok)
	}
}

func TestCache_PutOverwrites(t *testing.T) {
	store := storage.NewMemStore()
	c := NewCache(store, nil)
	ctx := context.Background()

	h := Hash("text")
	c.Put(ctx, "b", h, "first")
	c.Put(ctx, "b", h, "second")
	if got, _ := c.Get("b", h); got != "second" {
		t.Errorf("Get = %q, want %q", got, "second")
	}
	if store.StateWrites != 2 {
		t.Errorf("StateWrites = %d, want 2", store.StateWrites)
	}
}
