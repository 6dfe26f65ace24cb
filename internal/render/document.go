package render

import "sync"

// TranslationState tracks a block's inline translation.
type TranslationState int

const (
	// NotTranslated means no translation is shown.
	NotTranslated TranslationState = iota
	// Translating means a request is in flight and a placeholder is shown.
	Translating
	// Translated means the translation is rendered beneath the block.
	Translated
)

// Block is one paragraph-level unit of a content document.
type Block struct {
	Index       int              `json:"index"`
	Text        string           `json:"text"`
	State       TranslationState `json:"state"`
	Translation string           `json:"translation,omitempty"`

	// Note is transient UI text under the block: a loading placeholder
	// while translating, or an error message after a failed request.
	Note string `json:"note,omitempty"`
}

// Document is one isolated rendering context, one per displayed fragment.
// Interactive behavior is installed by the content hook injector and torn
// down when the document unloads.
type Document struct {
	mu     sync.Mutex
	href   string
	blocks []Block

	onDoubleClick func(blockIndex int)
	onKey         func(key string)
	onSelection   func(text string)
	onQuickPrompt func(code string)
	onUnload      []func()
	unloaded      bool
}

// NewDocument creates a document for the given href with one block per
// paragraph text.
func NewDocument(href string, paragraphs []string) *Document {
	blocks := make([]Block, len(paragraphs))
	for i, text := range paragraphs {
		blocks[i] = Block{Index: i, Text: text}
	}
	return &Document{href: href, blocks: blocks}
}

// Href returns the content path this document renders.
func (d *Document) Href() string {
	return d.href
}

// Blocks returns a snapshot of all blocks.
func (d *Document) Blocks() []Block {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// BlockText returns the text of one block.
func (d *Document) BlockText(i int) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.blocks) {
		return "", false
	}
	return d.blocks[i].Text, true
}

// State returns the translation state of one block.
func (d *Document) State(i int) TranslationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.blocks) {
		return NotTranslated
	}
	return d.blocks[i].State
}

// BeginTranslation marks a block as loading and shows the placeholder.
// It returns false if the block is already translated, already loading,
// out of range, or the document has unloaded.
func (d *Document) BeginTranslation(i int, placeholder string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unloaded || i < 0 || i >= len(d.blocks) {
		return false
	}
	if d.blocks[i].State != NotTranslated {
		return false
	}
	d.blocks[i].State = Translating
	d.blocks[i].Note = placeholder
	return true
}

// SetTranslated renders the translation beneath the block and marks it done.
// A no-op after unload.
func (d *Document) SetTranslated(i int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unloaded || i < 0 || i >= len(d.blocks) {
		return
	}
	d.blocks[i].State = Translated
	d.blocks[i].Translation = text
	d.blocks[i].Note = ""
}

// SetFailed replaces the placeholder with the error message and resets the
// block so the user may retry. A no-op after unload.
func (d *Document) SetFailed(i int, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unloaded || i < 0 || i >= len(d.blocks) {
		return
	}
	d.blocks[i].State = NotTranslated
	d.blocks[i].Translation = ""
	d.blocks[i].Note = message
}

// OnDoubleClick installs the per-block double-click handler.
func (d *Document) OnDoubleClick(fn func(blockIndex int)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.unloaded {
		d.onDoubleClick = fn
	}
}

// OnKey installs the document-level key handler.
func (d *Document) OnKey(fn func(key string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.unloaded {
		d.onKey = fn
	}
}

// OnSelection installs the text-selection handler.
func (d *Document) OnSelection(fn func(text string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.unloaded {
		d.onSelection = fn
	}
}

// OnQuickPrompt installs the quick-prompt modifier handler.
func (d *Document) OnQuickPrompt(fn func(code string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.unloaded {
		d.onQuickPrompt = fn
	}
}

// OnUnload registers a cleanup hook fired exactly once when the document
// unloads.
func (d *Document) OnUnload(fn func()) {
	d.mu.Lock()
	if d.unloaded {
		d.mu.Unlock()
		fn()
		return
	}
	d.onUnload = append(d.onUnload, fn)
	d.mu.Unlock()
}

// HandleDoubleClick dispatches a double-click on a block.
func (d *Document) HandleDoubleClick(i int) {
	d.mu.Lock()
	fn := d.onDoubleClick
	d.mu.Unlock()
	if fn != nil {
		fn(i)
	}
}

// HandleKey dispatches a key press inside the document.
func (d *Document) HandleKey(key string) {
	d.mu.Lock()
	fn := d.onKey
	d.mu.Unlock()
	if fn != nil {
		fn(key)
	}
}

// HandleSelection dispatches a text selection.
func (d *Document) HandleSelection(text string) {
	d.mu.Lock()
	fn := d.onSelection
	d.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

// HandleQuickPrompt dispatches a quick-prompt modifier combination.
func (d *Document) HandleQuickPrompt(code string) {
	d.mu.Lock()
	fn := d.onQuickPrompt
	d.mu.Unlock()
	if fn != nil {
		fn(code)
	}
}

// Unload tears down all installed handlers and fires the cleanup hooks
// exactly once. Further dispatches and mutations are no-ops.
func (d *Document) Unload() {
	d.mu.Lock()
	if d.unloaded {
		d.mu.Unlock()
		return
	}
	d.unloaded = true
	hooks := d.onUnload
	d.onUnload = nil
	d.onDoubleClick = nil
	d.onKey = nil
	d.onSelection = nil
	d.onQuickPrompt = nil
	d.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Unloaded reports whether the document has unloaded.
func (d *Document) Unloaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unloaded
}
