package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/simp-lee/epub"

	"github.com/OwenXu27/ereader/internal/library"
	"github.com/OwenXu27/ereader/internal/render"
	"github.com/OwenXu27/ereader/internal/translate"
)

// ErrParse indicates the book bytes are not a valid archive/package.
// Fatal for the open attempt; surfaced to the shell, never retried.
var ErrParse = errors.New("reader: book parse failed")

// Config wires the controller's collaborators. State is passed down
// explicitly; there is no ambient global store.
type Config struct {
	Library *library.Library
	Cache   *translate.Cache

	// Translate produces a translation for one paragraph.
	Translate TranslateFunc

	// TranslationEnabled is read at interaction time so settings changes
	// apply without reopening the book.
	TranslationEnabled func() bool

	// NewSurface builds the render surface for a parsed book. Defaults to
	// the spine surface.
	NewSurface func(doc *epub.Book) render.Surface

	ThrottleWindow time.Duration
	MinBlockLen    int
	Logger         *slog.Logger
}

// Controller owns the single live reading session.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	current *Session
}

// NewController creates a Controller.
func NewController(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NewSurface == nil {
		cfg.NewSurface = func(doc *epub.Book) render.Surface {
			return render.NewSpineSurface(doc)
		}
	}
	return &Controller{cfg: cfg, logger: cfg.Logger}
}

// Session returns the live session, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Open opens a library book, resuming at its last known location. Any prior
// session is fully torn down (flush, detach, release) before the new one is
// constructed.
func (c *Controller) Open(ctx context.Context, bookID string) (*Session, error) {
	c.Close()

	book, err := c.cfg.Library.Get(bookID)
	if err != nil {
		return nil, err
	}
	raw, err := c.cfg.Library.Data(ctx, bookID)
	if err != nil {
		return nil, err
	}

	s, err := c.OpenBook(ctx, book, raw, book.Location)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	return s, nil
}

// OpenBook parses the file bytes, creates the render surface, navigates to
// the resume location or the start of the book, and returns once the first
// paint completes. The content hook injector is registered against every
// future content-ready event for the life of the session.
func (c *Controller) OpenBook(ctx context.Context, book library.Book, raw []byte, resume string) (*Session, error) {
	doc, err := epub.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	surface := c.cfg.NewSurface(doc)
	s := &Session{
		book:     book,
		doc:      doc,
		surface:  surface,
		injector: NewInjector(c.cfg.Cache, c.cfg.Translate, c.cfg.TranslationEnabled, c.cfg.MinBlockLen, c.logger),
		tracker:  NewTracker(c.cfg.Library, book.ID, c.cfg.ThrottleWindow, c.logger),
		resolver: NewResolver(c.logger),
		logger:   c.logger,
		bridge:   make(chan BridgeEvent, bridgeBuffer),
		toc:      convertTOC(doc.TOC()),
		readyCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()

	painted := false
	if resume != "" {
		if err := s.resolver.Display(ctx, surface, resume); err == nil {
			painted = true
		} else {
			c.logger.Warn("resume location not displayable, starting at beginning",
				"book", book.ID, "resume", resume)
		}
	}
	if !painted {
		if err := surface.Navigate(ctx, ""); err != nil {
			s.Close()
			return nil, fmt.Errorf("reader: first paint failed: %w", err)
		}
	}

	if err := s.waitReady(ctx); err != nil {
		s.Close()
		return nil, err
	}

	c.logger.Info("session opened", "book", book.ID, "title", book.Title)
	return s, nil
}

// Close tears down the live session, if any. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	prev := c.current
	c.current = nil
	c.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}
