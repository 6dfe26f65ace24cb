package reader

import (
	"context"
	"log/slog"

	"github.com/OwenXu27/ereader/internal/chat"
	"github.com/OwenXu27/ereader/internal/llm"
	"github.com/OwenXu27/ereader/internal/render"
	"github.com/OwenXu27/ereader/internal/translate"
)

// translatingPlaceholder is shown under a block while its request is in
// flight.
const translatingPlaceholder = "Translating…"

// MinBlockLen is the default minimum paragraph length eligible for
// translation.
const MinBlockLen = 5

// TranslateFunc produces a translation for one paragraph.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// Injector installs interactive behavior into each newly rendered content
// document and relies on the document's unload to tear it down again.
type Injector struct {
	cache     *translate.Cache
	translate TranslateFunc
	enabled   func() bool
	minLen    int
	logger    *slog.Logger
}

// NewInjector creates an Injector. enabled gates the double-click
// translation against current settings at interaction time.
func NewInjector(cache *translate.Cache, fn TranslateFunc, enabled func() bool, minLen int, logger *slog.Logger) *Injector {
	if minLen <= 0 {
		minLen = MinBlockLen
	}
	if enabled == nil {
		enabled = func() bool { return true }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Injector{
		cache:     cache,
		translate: fn,
		enabled:   enabled,
		minLen:    minLen,
		logger:    logger,
	}
}

// Inject attaches behavior to one content document: cached translations are
// rendered synchronously before any interaction, then the double-click, key,
// selection and quick-prompt handlers are installed.
func (inj *Injector) Inject(s *Session, doc *render.Document) {
	bookID := s.book.ID

	// Revisited chapters must show prior translations without delay.
	for _, b := range doc.Blocks() {
		if len(b.Text) < inj.minLen {
			continue
		}
		if text, ok := inj.cache.Get(bookID, translate.Hash(b.Text)); ok {
			doc.SetTranslated(b.Index, text)
		}
	}

	doc.OnDoubleClick(func(i int) {
		inj.handleDoubleClick(s, doc, i)
	})
	doc.OnKey(func(key string) {
		s.forward(KeyForwarded{Key: key})
	})
	doc.OnSelection(func(text string) {
		s.forward(SelectionChanged{Text: text})
	})
	doc.OnQuickPrompt(func(code string) {
		if mode, ok := chat.ModeForKey(code); ok {
			s.forward(QuickPrompt{Mode: mode})
		}
	})
	doc.OnUnload(func() {
		inj.logger.Debug("content hooks torn down", "href", doc.Href())
	})
}

// handleDoubleClick runs the translation flow for one block. The request
// runs off the event loop; results against an unloaded document or a closed
// session are discarded.
func (inj *Injector) handleDoubleClick(s *Session, doc *render.Document, i int) {
	if !inj.enabled() {
		return
	}
	text, ok := doc.BlockText(i)
	if !ok || len(text) < inj.minLen {
		return
	}
	// BeginTranslation refuses blocks that are already translated or
	// mid-translation.
	if !doc.BeginTranslation(i, translatingPlaceholder) {
		return
	}

	bookID := s.book.ID
	go func() {
		out, err := inj.translate(context.Background(), text)
		if doc.Unloaded() || s.Closed() {
			return
		}
		if err != nil {
			inj.logger.Warn("translation failed", "book", bookID, "error", err)
			doc.SetFailed(i, llm.UserMessage(err))
			return
		}
		doc.SetTranslated(i, out)
		// Only a successful response may populate the cache.
		inj.cache.Put(context.Background(), bookID, translate.Hash(text), out)
	}()
}
