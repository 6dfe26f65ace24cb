package translate

import (
	"context"
	"fmt"

	"github.com/OwenXu27/ereader/internal/llm"
)

// ChatClient is the subset of the LLM client used for translation.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Translator wraps a chat client with the paragraph translation prompt.
type Translator struct {
	client ChatClient
	target string
}

// NewTranslator creates a Translator producing text in the target language.
func NewTranslator(client ChatClient, targetLanguage string) *Translator {
	if targetLanguage == "" {
		targetLanguage = "Chinese"
	}
	return &Translator{client: client, target: targetLanguage}
}

// Translate returns the translation of one paragraph.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(
			"You are a translator. Translate the user's text into %s. "+
				"Preserve tone and meaning. Reply with the translation only, "+
				"no explanations.", t.target)},
		{Role: llm.RoleUser, Content: text},
	}
	return t.client.Chat(ctx, messages)
}
