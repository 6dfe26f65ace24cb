package reader

import "github.com/OwenXu27/ereader/internal/chat"

// BridgeEvent is a semantically meaningful interaction re-dispatched from an
// isolated content document to the application scope. This typed channel is
// the sole path out of rendered content; without it, keyboard and selection
// interaction inside a fragment would be invisible to the shell.
type BridgeEvent interface {
	isBridgeEvent()
}

// KeyForwarded carries a logical key pressed inside rendered content
// (navigation keys, mostly).
type KeyForwarded struct {
	Key string `json:"key"`
}

// QuickPrompt carries a quick-prompt trigger with its resolved mode.
type QuickPrompt struct {
	Mode chat.Mode `json:"mode"`
}

// SelectionChanged carries the currently selected text.
type SelectionChanged struct {
	Text string `json:"text"`
}

func (KeyForwarded) isBridgeEvent()     {}
func (QuickPrompt) isBridgeEvent()      {}
func (SelectionChanged) isBridgeEvent() {}

// bridgeBuffer bounds the bridge channel. Sends are fire-and-forget: when
// the shell is not draining, the oldest semantics are dropped rather than
// blocking the document's event dispatch.
const bridgeBuffer = 64

// forward puts an event on the bridge without blocking.
func (s *Session) forward(ev BridgeEvent) {
	select {
	case s.bridge <- ev:
	default:
	}
}

// Bridge exposes document-originated events to the shell.
func (s *Session) Bridge() <-chan BridgeEvent {
	return s.bridge
}
