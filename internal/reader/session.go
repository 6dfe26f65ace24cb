// Package reader implements the reading-session controller: the lifecycle of
// one open book, the hooks injected into rendered content, navigation
// resolution, and throttled progress persistence.
package reader

import (
	"context"
	"log/slog"
	"sync"

	"github.com/simp-lee/epub"

	"github.com/OwenXu27/ereader/internal/library"
	"github.com/OwenXu27/ereader/internal/render"
)

// State is the session lifecycle state.
type State int

const (
	// StateOpen means the session is live and the surface is healthy.
	StateOpen State = iota
	// StateUnavailable means the surface reported a fatal internal error.
	// The session is not reopened automatically.
	StateUnavailable
	// StateClosed means the session has been torn down.
	StateClosed
)

// NavigationState makes the one-navigation-at-a-time invariant explicit.
type NavigationState int

const (
	// NavIdle means no navigation is in flight.
	NavIdle NavigationState = iota
	// NavInProgress means a navigation is being resolved and displayed.
	NavInProgress
)

// Session is one open book. Exactly one Session is alive at a time; the
// Controller tears down the previous one before constructing the next.
type Session struct {
	book     library.Book
	doc      *epub.Book
	surface  render.Surface
	injector *Injector
	tracker  *Tracker
	resolver *Resolver
	logger   *slog.Logger
	bridge   chan BridgeEvent

	mu         sync.Mutex
	state      State
	nav        NavigationState
	loc        render.Location
	chapter    string
	toc        []TOCEntry
	currentDoc *render.Document
	faultErr   error

	readyCh   chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// loop consumes surface events in emission order. It is the single owner of
// session state transitions; it exits when the surface is destroyed.
func (s *Session) loop() {
	defer close(s.done)
	for ev := range s.surface.Events() {
		switch e := ev.(type) {
		case render.ContentReady:
			s.injector.Inject(s, e.Doc)
			s.mu.Lock()
			s.currentDoc = e.Doc
			s.mu.Unlock()

		case render.Relocated:
			s.mu.Lock()
			s.loc = e.Location
			if label, ok := ChapterLabel(s.toc, e.Location.Href); ok {
				s.chapter = label
			} else {
				s.chapter = ""
			}
			s.mu.Unlock()
			s.tracker.Observe(e.Location)
			s.readyOnce.Do(func() { close(s.readyCh) })

		case render.Fault:
			s.mu.Lock()
			if s.state == StateOpen {
				s.state = StateUnavailable
				s.faultErr = e.Err
			}
			s.mu.Unlock()
			s.logger.Error("render surface fault", "book", s.book.ID, "error", e.Err)
			s.readyOnce.Do(func() { close(s.readyCh) })
		}
	}
}

// waitReady blocks until the first paint completes.
func (s *Session) waitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateUnavailable {
			return s.faultErr
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Book returns the book this session reads.
func (s *Session) Book() library.Book {
	return s.book
}

// TOC returns the resolved table-of-contents tree.
func (s *Session) TOC() []TOCEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toc
}

// Document returns the currently displayed content document, or nil before
// the first fragment renders.
func (s *Session) Document() *render.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDoc
}

// Done is closed when the session's event loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateClosed
}

// Snapshot is the externally visible session state.
type Snapshot struct {
	BookID   string          `json:"book_id"`
	Title    string          `json:"title"`
	State    State           `json:"state"`
	Location render.Location `json:"location"`
	Chapter  string          `json:"chapter,omitempty"`
	TimeLeft string          `json:"time_left,omitempty"`
	TOC      []TOCEntry      `json:"toc,omitempty"`
}

// Snapshot returns the current session state for display.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		BookID:   s.book.ID,
		Title:    s.book.Title,
		State:    s.state,
		Location: s.loc,
		Chapter:  s.chapter,
		TOC:      s.toc,
	}
	s.mu.Unlock()

	if left, ok := s.tracker.TimeLeft(); ok {
		snap.TimeLeft = left
	}
	return snap
}

// beginNavigation claims the navigation slot. It refuses when the session is
// not open or a navigation is already in flight.
func (s *Session) beginNavigation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen || s.nav != NavIdle {
		return false
	}
	s.nav = NavInProgress
	return true
}

func (s *Session) endNavigation() {
	s.mu.Lock()
	s.nav = NavIdle
	s.mu.Unlock()
}

// Navigate resolves and displays a table-of-contents target. Failures are
// soft: the current location is left unchanged.
func (s *Session) Navigate(ctx context.Context, target string) {
	if !s.beginNavigation() {
		return
	}
	defer s.endNavigation()

	// ErrNavigation has already been logged by the resolver; malformed
	// internal links must never take down the reading session.
	_ = s.resolver.Display(ctx, s.surface, target)
}

// Next displays the following fragment.
func (s *Session) Next(ctx context.Context) {
	if !s.beginNavigation() {
		return
	}
	defer s.endNavigation()
	if err := s.surface.Next(ctx); err != nil {
		s.logger.Warn("next failed", "book", s.book.ID, "error", err)
	}
}

// Previous displays the preceding fragment.
func (s *Session) Previous(ctx context.Context) {
	if !s.beginNavigation() {
		return
	}
	defer s.endNavigation()
	if err := s.surface.Previous(ctx); err != nil {
		s.logger.Warn("previous failed", "book", s.book.ID, "error", err)
	}
}

// Resize recalculates the surface layout.
func (s *Session) Resize(width, height int) {
	s.surface.Resize(width, height)
}

// Close tears the session down: pending progress is flushed synchronously,
// content hooks are detached, the surface is destroyed and the book-document
// handle released. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		doc := s.currentDoc
		s.currentDoc = nil
		s.mu.Unlock()

		s.tracker.Flush(context.Background())
		if doc != nil {
			doc.Unload()
		}
		s.surface.Destroy()
		<-s.done

		if err := s.doc.Close(); err != nil {
			s.logger.Warn("book handle close failed", "book", s.book.ID, "error", err)
		}
		s.logger.Info("session closed", "book", s.book.ID)
	})
}
