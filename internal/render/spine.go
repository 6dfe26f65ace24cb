package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/simp-lee/epub"
)

// tokenPrefix marks spine-index location tokens produced by this surface.
// Tokens are opaque to everything outside the surface.
const tokenPrefix = "spine:"

// SpineSurface is the default render surface: a chapter-granularity engine
// over an EPUB spine. One fragment per spine item; location tokens are spine
// indices.
type SpineSurface struct {
	book     *epub.Book
	chapters []epub.Chapter
	events   chan Event

	mu        sync.Mutex
	idx       int
	settled   bool
	doc       *Document
	destroyed bool
}

// NewSpineSurface creates a surface over the given parsed book.
func NewSpineSurface(book *epub.Book) *SpineSurface {
	return &SpineSurface{
		book:     book,
		chapters: book.Chapters(),
		events:   make(chan Event, 32),
	}
}

// Events returns the surface event channel. Closed by Destroy.
func (s *SpineSurface) Events() <-chan Event {
	return s.events
}

// Manifest returns the ordered content list.
func (s *SpineSurface) Manifest() []ManifestItem {
	out := make([]ManifestItem, len(s.chapters))
	for i, ch := range s.chapters {
		out[i] = ManifestItem{Path: ch.Href}
	}
	return out
}

// Navigate displays the start of the book (empty target), a location token,
// or an exact content href. Anything else fails and leaves the current
// fragment displayed.
func (s *SpineSurface) Navigate(ctx context.Context, target string) error {
	if len(s.chapters) == 0 {
		return fmt.Errorf("render: book has no content")
	}

	switch {
	case target == "":
		return s.settle(ctx, 0)
	case strings.HasPrefix(target, tokenPrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(target, tokenPrefix))
		if err != nil || n < 0 || n >= len(s.chapters) {
			return fmt.Errorf("render: bad location token %q", target)
		}
		return s.settle(ctx, n)
	default:
		for i, ch := range s.chapters {
			if ch.Href == target {
				return s.settle(ctx, i)
			}
		}
		return fmt.Errorf("render: no fragment for target %q", target)
	}
}

// Next displays the following fragment. At the end of the book it is a no-op.
func (s *SpineSurface) Next(ctx context.Context) error {
	s.mu.Lock()
	idx := s.idx
	settled := s.settled
	s.mu.Unlock()
	if !settled || idx+1 >= len(s.chapters) {
		return nil
	}
	return s.settle(ctx, idx+1)
}

// Previous displays the preceding fragment. At the start it is a no-op.
func (s *SpineSurface) Previous(ctx context.Context) error {
	s.mu.Lock()
	idx := s.idx
	settled := s.settled
	s.mu.Unlock()
	if !settled || idx == 0 {
		return nil
	}
	return s.settle(ctx, idx-1)
}

// Resize recalculates the layout. Chapter granularity makes this a re-settle
// of the current fragment so the location event is re-emitted.
func (s *SpineSurface) Resize(width, height int) {
	s.mu.Lock()
	idx := s.idx
	settled := s.settled
	s.mu.Unlock()
	if settled {
		_ = s.settle(context.Background(), idx)
	}
}

// settle renders the fragment at idx: unloads the previous document, emits
// ContentReady for the new one, then the location event.
func (s *SpineSurface) settle(ctx context.Context, idx int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch := s.chapters[idx]
	raw, err := ch.RawContent()
	if err != nil {
		s.emit(Fault{Err: fmt.Errorf("render: read fragment %s: %w", ch.Href, err)})
		return err
	}
	paragraphs, err := extractParagraphs(raw)
	if err != nil {
		s.emit(Fault{Err: fmt.Errorf("render: parse fragment %s: %w", ch.Href, err)})
		return err
	}

	doc := NewDocument(ch.Href, paragraphs)

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("render: surface destroyed")
	}
	prev := s.doc
	s.doc = doc
	s.idx = idx
	s.settled = true
	s.mu.Unlock()

	if prev != nil {
		prev.Unload()
	}

	s.emit(ContentReady{Doc: doc})
	s.emit(Relocated{Location: Location{
		Token:    tokenPrefix + strconv.Itoa(idx),
		Fraction: s.fraction(idx),
		Href:     ch.Href,
	}})
	return nil
}

func (s *SpineSurface) fraction(idx int) float64 {
	if len(s.chapters) <= 1 {
		return 0
	}
	return float64(idx) / float64(len(s.chapters)-1)
}

// emit sends under the lock so a concurrent Destroy cannot close the channel
// mid-send. The session event loop drains without taking this lock.
func (s *SpineSurface) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.events <- ev
}

// Destroy unloads the current document and closes the event channel.
// Idempotent.
func (s *SpineSurface) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	doc := s.doc
	s.doc = nil
	s.mu.Unlock()

	if doc != nil {
		doc.Unload()
	}
	close(s.events)
}
