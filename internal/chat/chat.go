// Package chat maintains the per-book conversation with the language-model
// backend, including the quick-prompt templates applied to text selections.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/OwenXu27/ereader/internal/llm"
)

// ErrEmptySelection is returned by AskQuick when no text is selected.
var ErrEmptySelection = errors.New("chat: empty selection")

// Message is one conversation entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Mode selects which prompt template wraps a quoted selection.
type Mode string

// Quick prompt modes.
const (
	ModeGrammar    Mode = "grammar"
	ModeBackground Mode = "background"
	ModePlain      Mode = "plain"
)

// ModeForKey maps a forwarded modifier-key code to a quick prompt mode.
func ModeForKey(code string) (Mode, bool) {
	switch code {
	case "KeyG":
		return ModeGrammar, true
	case "KeyB":
		return ModeBackground, true
	case "KeyQ":
		return ModePlain, true
	}
	return "", false
}

// prompt wraps the quoted selection in the template for the given mode.
func prompt(mode Mode, selection string) string {
	quoted := fmt.Sprintf("%q", selection)
	switch mode {
	case ModeGrammar:
		return "Explain the grammar of this passage, including sentence " +
			"structure and any notable constructions:\n\n" + quoted
	case ModeBackground:
		return "Give background knowledge that helps a reader understand " +
			"this passage (people, places, events, allusions):\n\n" + quoted
	default:
		return quoted
	}
}

// ChatClient is the subset of the LLM client the chat session uses.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Session is an ordered, append-only conversation. It is cleared only by
// explicit user action or by closing the book.
type Session struct {
	mu       sync.Mutex
	client   ChatClient
	messages []Message
}

// NewSession creates an empty chat session.
func NewSession(client ChatClient) *Session {
	return &Session{client: client}
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Ask appends the user message, sends the full history to the backend, and
// appends the assistant answer. On failure the conversation is kept intact
// with an inline error line appended, and the error is returned.
func (s *Session) Ask(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	s.messages = append(s.messages, Message{Role: llm.RoleUser, Content: text})
	history := make([]llm.Message, len(s.messages))
	for i, m := range s.messages {
		history[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	s.mu.Unlock()

	answer, err := s.client.Chat(ctx, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.messages = append(s.messages, Message{
			Role:    llm.RoleAssistant,
			Content: llm.UserMessage(err),
		})
		return "", err
	}
	s.messages = append(s.messages, Message{Role: llm.RoleAssistant, Content: answer})
	return answer, nil
}

// AskQuick wraps a non-empty selection in the template for the given mode
// and asks. Exactly one user/assistant pair is appended.
func (s *Session) AskQuick(ctx context.Context, mode Mode, selection string) (string, error) {
	if selection == "" {
		return "", ErrEmptySelection
	}
	return s.Ask(ctx, prompt(mode, selection))
}

// Reset clears the conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
